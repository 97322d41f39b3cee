package domain

import (
	"context"
	"time"

	"joblet/internal/models"
)

// Repository is the persistence surface the service layer depends on. The
// sqlite implementation lives in internal/database.
type Repository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	SetAccountBlacklisted(ctx context.Context, id int64, blacklisted bool) error
	AdjustBalance(ctx context.Context, accountID, amountCents int64) error
	GetWalletEntries(ctx context.Context, accountID int64) ([]*models.WalletEntry, error)
	GetProviderStats(ctx context.Context, providerID int64) (*models.ProviderStats, error)

	CreateService(ctx context.Context, service *models.Service) error
	GetService(ctx context.Context, id int64) (*models.Service, error)
	GetBookableService(ctx context.Context, id int64) (*models.Service, error)
	ListBookableServices(ctx context.Context, q models.CatalogQuery) ([]*models.Service, error)
	ListServicesByProvider(ctx context.Context, providerID int64) ([]*models.Service, error)
	ListPendingServices(ctx context.Context) ([]*models.Service, error)
	UpdateService(ctx context.Context, id, providerID int64, patch models.ServicePatch) error
	SetServiceActive(ctx context.Context, id, providerID int64, active bool) error
	SetServiceApproval(ctx context.Context, id int64, approval string) error

	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	CreateBookingWithDebit(ctx context.Context, booking *models.Booking) error
	AcceptBooking(ctx context.Context, bookingID, providerID int64) (*models.Booking, error)
	RejectBooking(ctx context.Context, bookingID, providerID int64) (*models.Booking, error)
	CompleteBooking(ctx context.Context, bookingID, customerID int64) (*models.Booking, error)
	GetCustomerBookings(ctx context.Context, customerID int64) ([]*models.Booking, error)
	GetProviderBookings(ctx context.Context, providerID int64, status string) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)

	GetChatByBooking(ctx context.Context, bookingID int64) (*models.Chat, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessages(ctx context.Context, chatID int64, limit, offset int) ([]*models.Message, error)
	MarkMessagesRead(ctx context.Context, chatID, readerID int64) error
	GetUnreadMessageCount(ctx context.Context, readerID int64) (int, error)

	GetNotifications(ctx context.Context, recipientID int64, unreadOnly bool) ([]*models.Notification, error)
	GetUnreadCount(ctx context.Context, recipientID int64) (int, error)
	MarkNotificationRead(ctx context.Context, notificationID, recipientID int64) error
	MarkAllNotificationsRead(ctx context.Context, recipientID int64) error
}

// CacheRepository fronts redis for the catalog cache and chat rate limiting.
// Implementations must degrade to a memory fallback when redis is down.
type CacheRepository interface {
	GetCatalogPage(ctx context.Context, key string) ([]byte, bool, error)
	SetCatalogPage(ctx context.Context, key string, data []byte, ttl time.Duration) error
	InvalidateCatalog(ctx context.Context) error
	CheckRateLimit(ctx context.Context, accountID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SheetsWriter mirrors the booking ledger into a spreadsheet for operators.
type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	AppendBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error
}

type BookingService interface {
	ValidateScheduledAt(scheduledAt time.Time) error
	RequestBooking(ctx context.Context, customerID, serviceID int64, scheduledAt time.Time, details string) (*models.Booking, error)
	AcceptBooking(ctx context.Context, bookingID, providerID int64) (*models.Booking, error)
	RejectBooking(ctx context.Context, bookingID, providerID int64) (*models.Booking, error)
	CompleteBooking(ctx context.Context, bookingID, customerID int64) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID int64, account *models.Account) (*models.Booking, error)
	ListBookings(ctx context.Context, account *models.Account, status string) ([]*models.Booking, error)
}

type CatalogService interface {
	ListServices(ctx context.Context, q models.CatalogQuery) ([]*models.Service, error)
	GetService(ctx context.Context, id int64) (*models.Service, error)
	CreateService(ctx context.Context, service *models.Service) error
	UpdateService(ctx context.Context, id, providerID int64, patch models.ServicePatch) error
	SetServiceActive(ctx context.Context, id, providerID int64, active bool) error
	ListProviderServices(ctx context.Context, providerID int64) ([]*models.Service, error)
	ListPendingServices(ctx context.Context) ([]*models.Service, error)
	ModerateService(ctx context.Context, id int64, approve bool) error
}

type ChatService interface {
	SendMessage(ctx context.Context, bookingID, senderID int64, content string) (*models.Message, error)
	GetHistory(ctx context.Context, bookingID, accountID int64, limit, offset int) ([]*models.Message, error)
	MarkRead(ctx context.Context, bookingID, accountID int64) error
}

type NotificationService interface {
	List(ctx context.Context, recipientID int64, unreadOnly bool) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, recipientID int64) (int, error)
	MarkRead(ctx context.Context, notificationID, recipientID int64) error
	MarkAllRead(ctx context.Context, recipientID int64) error
}

type AccountService interface {
	Register(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	GetWallet(ctx context.Context, accountID int64) (*models.Account, []*models.WalletEntry, error)
	AdjustBalance(ctx context.Context, adminID, accountID, amountCents int64) error
	SetBlacklisted(ctx context.Context, adminID, accountID int64, blacklisted bool) error
	ProviderStats(ctx context.Context, providerID int64) (*models.ProviderStats, error)
}
