package service

import (
	"context"
	"time"

	"joblet/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateAccount(ctx context.Context, a *models.Account) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockRepo) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}
func (m *mockRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}
func (m *mockRepo) SetAccountBlacklisted(ctx context.Context, id int64, b bool) error {
	return m.Called(ctx, id, b).Error(0)
}
func (m *mockRepo) AdjustBalance(ctx context.Context, accountID, amountCents int64) error {
	return m.Called(ctx, accountID, amountCents).Error(0)
}
func (m *mockRepo) GetWalletEntries(ctx context.Context, accountID int64) ([]*models.WalletEntry, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WalletEntry), args.Error(1)
}
func (m *mockRepo) GetProviderStats(ctx context.Context, providerID int64) (*models.ProviderStats, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProviderStats), args.Error(1)
}

func (m *mockRepo) CreateService(ctx context.Context, s *models.Service) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockRepo) GetService(ctx context.Context, id int64) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}
func (m *mockRepo) GetBookableService(ctx context.Context, id int64) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}
func (m *mockRepo) ListBookableServices(ctx context.Context, q models.CatalogQuery) ([]*models.Service, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Service), args.Error(1)
}
func (m *mockRepo) ListServicesByProvider(ctx context.Context, providerID int64) ([]*models.Service, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Service), args.Error(1)
}
func (m *mockRepo) ListPendingServices(ctx context.Context) ([]*models.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Service), args.Error(1)
}
func (m *mockRepo) UpdateService(ctx context.Context, id, providerID int64, patch models.ServicePatch) error {
	return m.Called(ctx, id, providerID, patch).Error(0)
}
func (m *mockRepo) SetServiceActive(ctx context.Context, id, providerID int64, active bool) error {
	return m.Called(ctx, id, providerID, active).Error(0)
}
func (m *mockRepo) SetServiceApproval(ctx context.Context, id int64, approval string) error {
	return m.Called(ctx, id, approval).Error(0)
}

func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) CreateBookingWithDebit(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) AcceptBooking(ctx context.Context, bookingID, providerID int64) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) RejectBooking(ctx context.Context, bookingID, providerID int64) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) CompleteBooking(ctx context.Context, bookingID, customerID int64) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) GetCustomerBookings(ctx context.Context, customerID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetProviderBookings(ctx context.Context, providerID int64, status string) ([]*models.Booking, error) {
	args := m.Called(ctx, providerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockRepo) GetChatByBooking(ctx context.Context, bookingID int64) (*models.Chat, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chat), args.Error(1)
}
func (m *mockRepo) CreateMessage(ctx context.Context, msg *models.Message) error {
	return m.Called(ctx, msg).Error(0)
}
func (m *mockRepo) GetMessages(ctx context.Context, chatID int64, limit, offset int) ([]*models.Message, error) {
	args := m.Called(ctx, chatID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}
func (m *mockRepo) MarkMessagesRead(ctx context.Context, chatID, readerID int64) error {
	return m.Called(ctx, chatID, readerID).Error(0)
}
func (m *mockRepo) GetUnreadMessageCount(ctx context.Context, readerID int64) (int, error) {
	args := m.Called(ctx, readerID)
	return args.Int(0), args.Error(1)
}

func (m *mockRepo) GetNotifications(ctx context.Context, recipientID int64, unreadOnly bool) ([]*models.Notification, error) {
	args := m.Called(ctx, recipientID, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}
func (m *mockRepo) GetUnreadCount(ctx context.Context, recipientID int64) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}
func (m *mockRepo) MarkNotificationRead(ctx context.Context, notificationID, recipientID int64) error {
	return m.Called(ctx, notificationID, recipientID).Error(0)
}
func (m *mockRepo) MarkAllNotificationsRead(ctx context.Context, recipientID int64) error {
	return m.Called(ctx, recipientID).Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetCatalogPage(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}
func (m *mockCache) SetCatalogPage(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return m.Called(ctx, key, data, ttl).Error(0)
}
func (m *mockCache) InvalidateCatalog(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *mockCache) CheckRateLimit(ctx context.Context, accountID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, accountID, limit, window)
	return args.Bool(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error {
	return m.Called(ctx, taskType, booking).Error(0)
}
