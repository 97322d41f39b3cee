package service

import (
	"context"
	"errors"
	"time"

	"joblet/internal/database"
	"joblet/internal/domain"
	"joblet/internal/events"
	"joblet/internal/metrics"
	"joblet/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrPastDate   = errors.New("scheduled time is in the past")
	ErrDateTooFar = errors.New("scheduled time is too far ahead")
)

type BookingService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	ledgerWorker   domain.SyncWorker
	maxAdvanceDays int
	logger         *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, ledgerWorker domain.SyncWorker, maxAdvanceDays int, logger *zerolog.Logger) *BookingService {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = 365
	}
	return &BookingService{
		repo:           repo,
		eventBus:       eventBus,
		ledgerWorker:   ledgerWorker,
		maxAdvanceDays: maxAdvanceDays,
		logger:         logger,
	}
}

func (s *BookingService) ValidateScheduledAt(scheduledAt time.Time) error {
	if scheduledAt.Before(time.Now()) {
		return ErrPastDate
	}

	maxDate := time.Now().AddDate(0, 0, s.maxAdvanceDays)
	if scheduledAt.After(maxDate) {
		return ErrDateTooFar
	}

	return nil
}

// RequestBooking debits the customer and opens a pending booking. The debit
// and the booking row commit together so funds can never be held without a
// booking to show for it.
func (s *BookingService) RequestBooking(ctx context.Context, customerID, serviceID int64, scheduledAt time.Time, details string) (*models.Booking, error) {
	if err := s.ValidateScheduledAt(scheduledAt); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ServiceID:   serviceID,
		CustomerID:  customerID,
		ScheduledAt: scheduledAt,
		Details:     details,
	}
	if err := s.repo.CreateBookingWithDebit(ctx, booking); err != nil {
		metrics.IncTransition("request", outcomeLabel(err))
		return nil, err
	}
	metrics.IncTransition("request", "ok")
	metrics.AddWalletCents(models.EntryBookingHold, booking.PriceCents)

	s.publishEvent(events.EventBookingRequested, booking, customerID)
	s.enqueueSync(ctx, booking)

	return booking, nil
}

func (s *BookingService) AcceptBooking(ctx context.Context, bookingID, providerID int64) (*models.Booking, error) {
	booking, err := s.repo.AcceptBooking(ctx, bookingID, providerID)
	if err != nil {
		metrics.IncTransition("accept", outcomeLabel(err))
		return nil, err
	}
	metrics.IncTransition("accept", "ok")

	s.publishEvent(events.EventBookingAccepted, booking, providerID)
	s.enqueueSync(ctx, booking)

	return booking, nil
}

func (s *BookingService) RejectBooking(ctx context.Context, bookingID, providerID int64) (*models.Booking, error) {
	booking, err := s.repo.RejectBooking(ctx, bookingID, providerID)
	if err != nil {
		metrics.IncTransition("reject", outcomeLabel(err))
		return nil, err
	}
	metrics.IncTransition("reject", "ok")
	metrics.AddWalletCents(models.EntryBookingRefund, booking.PriceCents)

	s.publishEvent(events.EventBookingRejected, booking, providerID)
	s.enqueueSync(ctx, booking)

	return booking, nil
}

func (s *BookingService) CompleteBooking(ctx context.Context, bookingID, customerID int64) (*models.Booking, error) {
	booking, err := s.repo.CompleteBooking(ctx, bookingID, customerID)
	if err != nil {
		metrics.IncTransition("complete", outcomeLabel(err))
		return nil, err
	}
	metrics.IncTransition("complete", "ok")
	metrics.AddWalletCents(models.EntryBookingPayout, booking.PriceCents)

	s.publishEvent(events.EventBookingCompleted, booking, customerID)
	s.enqueueSync(ctx, booking)

	return booking, nil
}

// GetBooking returns the booking to its two parties and to admins. Strangers
// get ErrForbidden, not a 404 leak.
func (s *BookingService) GetBooking(ctx context.Context, bookingID int64, account *models.Account) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Party(account.ID) && !account.IsAdmin {
		return nil, database.ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, account *models.Account, status string) ([]*models.Booking, error) {
	if account.IsProvider {
		return s.repo.GetProviderBookings(ctx, account.ID, status)
	}
	return s.repo.GetCustomerBookings(ctx, account.ID)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, actorID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		Reference:   booking.Reference,
		ServiceID:   booking.ServiceID,
		ServiceName: booking.ServiceName,
		CustomerID:  booking.CustomerID,
		ProviderID:  booking.ProviderID,
		PriceCents:  booking.PriceCents,
		Status:      booking.Status,
		ScheduledAt: booking.ScheduledAt,
		ActorID:     actorID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking) {
	if s.ledgerWorker == nil {
		return
	}

	if err := s.ledgerWorker.EnqueueTask(ctx, models.TaskTypeLedgerSync, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("ledger enqueue error")
	}
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, database.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, database.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, database.ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, database.ErrForbidden):
		return "forbidden"
	case errors.Is(err, database.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
