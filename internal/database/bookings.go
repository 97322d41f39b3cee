package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"joblet/internal/models"

	"github.com/google/uuid"
)

const bookingColumns = `b.id, b.reference, b.service_id, b.customer_id, s.provider_id, s.title,
	                 b.price_cents, b.scheduled_at, b.details, b.status, b.created_at,
					 b.updated_at, b.accepted_at, b.completed_at, b.cancelled_at`

func scanBooking(scanner interface{ Scan(...interface{}) error }) (*models.Booking, error) {
	b := &models.Booking{}
	var details sql.NullString
	err := scanner.Scan(
		&b.ID, &b.Reference, &b.ServiceID, &b.CustomerID, &b.ProviderID, &b.ServiceName,
		&b.PriceCents, &b.ScheduledAt, &details, &b.Status, &b.CreatedAt,
		&b.UpdatedAt, &b.AcceptedAt, &b.CompletedAt, &b.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	b.Details = details.String
	return b, nil
}

func getBookingTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
              JOIN services s ON b.service_id = s.id WHERE b.id = ?`
	b, err := scanBooking(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
              JOIN services s ON b.service_id = s.id WHERE b.id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// CreateBookingWithDebit performs the booking-creation transition atomically:
// re-check the catalog gate, hold the service price on the customer's wallet,
// insert the pending booking and the provider's action-required notification.
// Either everything commits or nothing does.
func (db *DB) CreateBookingWithDebit(ctx context.Context, booking *models.Booking) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var providerID, priceCents int64
		var title string
		gate := `SELECT provider_id, price_cents, title FROM services
                 WHERE id = ? AND is_active = 1 AND approval = ?`
		err := tx.QueryRowContext(ctx, gate, booking.ServiceID, models.ApprovalApproved).
			Scan(&providerID, &priceCents, &title)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check service in tx: %w", err)
		}

		if err := applyBalanceChange(ctx, tx, booking.CustomerID, -priceCents); err != nil {
			return err
		}

		now := time.Now()
		reference := uuid.NewString()
		insert := `INSERT INTO bookings (
					reference, service_id, customer_id, price_cents, scheduled_at,
					details, status, created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		result, err := tx.ExecContext(ctx, insert,
			reference,
			booking.ServiceID,
			booking.CustomerID,
			priceCents,
			booking.ScheduledAt,
			booking.Details,
			models.StatusPending,
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert booking in tx: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id in tx: %w", err)
		}

		if err := insertWalletEntry(ctx, tx, booking.CustomerID, id, models.EntryBookingHold, -priceCents); err != nil {
			return err
		}

		msg := fmt.Sprintf("New booking request for %q", title)
		if err := insertNotification(ctx, tx, providerID, id, msg, true); err != nil {
			return err
		}

		booking.ID = id
		booking.Reference = reference
		booking.ProviderID = providerID
		booking.ServiceName = title
		booking.PriceCents = priceCents
		booking.Status = models.StatusPending
		booking.CreatedAt = now
		booking.UpdatedAt = now
		return nil
	})
}

// AcceptBooking moves pending -> in_progress, creates the chat on first entry
// and notifies the customer, all in one transaction.
func (db *DB) AcceptBooking(ctx context.Context, bookingID, providerID int64) (*models.Booking, error) {
	var booking *models.Booking
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBookingTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.ProviderID != providerID {
			return ErrForbidden
		}
		if b.Status != models.StatusPending {
			return ErrInvalidTransition
		}

		now := time.Now()
		// Status guard repeated in the UPDATE so a concurrent transition loses.
		update := `UPDATE bookings SET status = ?, accepted_at = ?, updated_at = ?
                   WHERE id = ? AND status = ?`
		result, err := tx.ExecContext(ctx, update,
			models.StatusInProgress, now, now, bookingID, models.StatusPending)
		if err != nil {
			return fmt.Errorf("failed to accept booking: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return ErrInvalidTransition
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO chats (booking_id, created_at) VALUES (?, ?)`,
			bookingID, now); err != nil {
			return fmt.Errorf("failed to create chat: %w", err)
		}

		if err := clearActionRequired(ctx, tx, bookingID, providerID); err != nil {
			return err
		}

		msg := fmt.Sprintf("Your booking for %q was accepted", b.ServiceName)
		if err := insertNotification(ctx, tx, b.CustomerID, bookingID, msg, false); err != nil {
			return err
		}

		b.Status = models.StatusInProgress
		b.AcceptedAt = &now
		b.UpdatedAt = now
		booking = b
		return nil
	})
	return booking, err
}

// RejectBooking moves pending -> cancelled and returns the held funds to the
// customer in the same transaction.
func (db *DB) RejectBooking(ctx context.Context, bookingID, providerID int64) (*models.Booking, error) {
	var booking *models.Booking
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBookingTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.ProviderID != providerID {
			return ErrForbidden
		}
		if b.Status != models.StatusPending {
			return ErrInvalidTransition
		}

		now := time.Now()
		update := `UPDATE bookings SET status = ?, cancelled_at = ?, updated_at = ?
                   WHERE id = ? AND status = ?`
		result, err := tx.ExecContext(ctx, update,
			models.StatusCancelled, now, now, bookingID, models.StatusPending)
		if err != nil {
			return fmt.Errorf("failed to reject booking: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return ErrInvalidTransition
		}

		if err := applyBalanceChange(ctx, tx, b.CustomerID, b.PriceCents); err != nil {
			return err
		}
		if err := insertWalletEntry(ctx, tx, b.CustomerID, bookingID, models.EntryBookingRefund, b.PriceCents); err != nil {
			return err
		}

		if err := clearActionRequired(ctx, tx, bookingID, providerID); err != nil {
			return err
		}

		msg := fmt.Sprintf("Your booking for %q was rejected, %s refunded", b.ServiceName, formatCents(b.PriceCents))
		if err := insertNotification(ctx, tx, b.CustomerID, bookingID, msg, false); err != nil {
			return err
		}

		b.Status = models.StatusCancelled
		b.CancelledAt = &now
		b.UpdatedAt = now
		booking = b
		return nil
	})
	return booking, err
}

// CompleteBooking moves in_progress -> completed and pays the provider. The
// status guard makes the payout happen at most once; repeated calls surface
// ErrAlreadyCompleted so callers can treat them as a no-op.
func (db *DB) CompleteBooking(ctx context.Context, bookingID, customerID int64) (*models.Booking, error) {
	var booking *models.Booking
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBookingTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.CustomerID != customerID {
			return ErrForbidden
		}
		if b.Status == models.StatusCompleted {
			return ErrAlreadyCompleted
		}
		if b.AcceptedAt == nil || b.Status != models.StatusInProgress {
			return ErrInvalidTransition
		}

		now := time.Now()
		update := `UPDATE bookings SET status = ?, completed_at = ?, updated_at = ?
                   WHERE id = ? AND status = ?`
		result, err := tx.ExecContext(ctx, update,
			models.StatusCompleted, now, now, bookingID, models.StatusInProgress)
		if err != nil {
			return fmt.Errorf("failed to complete booking: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return ErrInvalidTransition
		}

		if err := applyBalanceChange(ctx, tx, b.ProviderID, b.PriceCents); err != nil {
			return err
		}
		if err := insertWalletEntry(ctx, tx, b.ProviderID, bookingID, models.EntryBookingPayout, b.PriceCents); err != nil {
			return err
		}

		msg := fmt.Sprintf("Booking for %q completed, %s paid out", b.ServiceName, formatCents(b.PriceCents))
		if err := insertNotification(ctx, tx, b.ProviderID, bookingID, msg, false); err != nil {
			return err
		}

		b.Status = models.StatusCompleted
		b.CompletedAt = &now
		b.UpdatedAt = now
		booking = b
		return nil
	})
	return booking, err
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetCustomerBookings returns the customer's bookings, newest first.
func (db *DB) GetCustomerBookings(ctx context.Context, customerID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
              JOIN services s ON b.service_id = s.id
              WHERE b.customer_id = ? ORDER BY b.created_at DESC`
	return db.queryBookings(ctx, query, customerID)
}

// GetProviderBookings returns bookings against the provider's services,
// optionally filtered by status.
func (db *DB) GetProviderBookings(ctx context.Context, providerID int64, status string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
              JOIN services s ON b.service_id = s.id
              WHERE s.provider_id = ?`
	args := []interface{}{providerID}
	if status != "" {
		query += ` AND b.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY b.created_at DESC`
	return db.queryBookings(ctx, query, args...)
}

// GetBookingsByDateRange returns bookings scheduled in [start, end], for
// reporting and exports.
func (db *DB) GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
              JOIN services s ON b.service_id = s.id
              WHERE date(b.scheduled_at) >= ? AND date(b.scheduled_at) <= ?
              ORDER BY b.scheduled_at ASC`
	return db.queryBookings(ctx, query,
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
