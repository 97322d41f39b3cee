package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"joblet/internal/models"
)

func insertNotification(ctx context.Context, tx *sql.Tx, recipientID, bookingID int64, message string, actionRequired bool) error {
	query := `INSERT INTO notifications (recipient_id, booking_id, message, action_required, read, created_at)
              VALUES (?, ?, ?, ?, 0, ?)`
	if _, err := tx.ExecContext(ctx, query, recipientID, bookingID, message, actionRequired, time.Now()); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// clearActionRequired downgrades the booking's pending action prompts for the
// recipient once the action has been taken.
func clearActionRequired(ctx context.Context, tx *sql.Tx, bookingID, recipientID int64) error {
	query := `UPDATE notifications SET action_required = 0
              WHERE booking_id = ? AND recipient_id = ? AND action_required = 1`
	if _, err := tx.ExecContext(ctx, query, bookingID, recipientID); err != nil {
		return fmt.Errorf("failed to clear action flag: %w", err)
	}
	return nil
}

// GetNotifications returns the recipient's notifications, newest first.
// With unreadOnly set, read ones are filtered out.
func (db *DB) GetNotifications(ctx context.Context, recipientID int64, unreadOnly bool) ([]*models.Notification, error) {
	query := `SELECT id, recipient_id, booking_id, message, action_required, read, created_at
              FROM notifications WHERE recipient_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var bookingID sql.NullInt64
		if err := rows.Scan(&n.ID, &n.RecipientID, &bookingID, &n.Message, &n.ActionRequired, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.BookingID = bookingID.Int64
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// GetUnreadCount returns how many unread notifications the recipient has.
func (db *DB) GetUnreadCount(ctx context.Context, recipientID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND read = 0`,
		recipientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead marks the notification read. Marking someone else's
// notification is ErrForbidden, a missing one is ErrNotFound.
func (db *DB) MarkNotificationRead(ctx context.Context, notificationID, recipientID int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND recipient_id = ?`,
		notificationID, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var owner int64
		err := db.QueryRowContext(ctx,
			`SELECT recipient_id FROM notifications WHERE id = ?`, notificationID).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check notification owner: %w", err)
		}
		if owner != recipientID {
			return ErrForbidden
		}
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification of the recipient.
func (db *DB) MarkAllNotificationsRead(ctx context.Context, recipientID int64) error {
	if _, err := db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE recipient_id = ? AND read = 0`,
		recipientID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
