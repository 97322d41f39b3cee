package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"joblet/internal/models"
)

// GetChatByBooking returns the chat bound to the booking, ErrNotFound if the
// booking never reached in_progress.
func (db *DB) GetChatByBooking(ctx context.Context, bookingID int64) (*models.Chat, error) {
	chat := &models.Chat{}
	err := db.QueryRowContext(ctx,
		`SELECT id, booking_id, created_at FROM chats WHERE booking_id = ?`,
		bookingID).Scan(&chat.ID, &chat.BookingID, &chat.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return chat, nil
}

// CreateMessage inserts the message together with its notification for the
// recipient in one transaction.
func (db *DB) CreateMessage(ctx context.Context, message *models.Message) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO messages (chat_id, sender_id, recipient_id, content, is_read, created_at)
             VALUES (?, ?, ?, ?, 0, ?)`,
			message.ChatID, message.SenderID, message.RecipientID, message.Content, now)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id in tx: %w", err)
		}

		var bookingID int64
		if err := tx.QueryRowContext(ctx,
			`SELECT booking_id FROM chats WHERE id = ?`, message.ChatID).Scan(&bookingID); err != nil {
			return fmt.Errorf("failed to resolve chat booking: %w", err)
		}
		if err := insertNotification(ctx, tx, message.RecipientID, bookingID, "New message in booking chat", false); err != nil {
			return err
		}

		message.ID = id
		message.IsRead = false
		message.CreatedAt = now
		return nil
	})
}

// GetMessages returns the chat history, oldest first.
func (db *DB) GetMessages(ctx context.Context, chatID int64, limit, offset int) ([]*models.Message, error) {
	query := `SELECT id, chat_id, sender_id, recipient_id, content, is_read, created_at
              FROM messages WHERE chat_id = ? ORDER BY created_at ASC, id ASC`
	args := []interface{}{chatID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.RecipientID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkMessagesRead marks every message addressed to the reader in the chat.
func (db *DB) MarkMessagesRead(ctx context.Context, chatID, readerID int64) error {
	if _, err := db.ExecContext(ctx,
		`UPDATE messages SET is_read = 1 WHERE chat_id = ? AND recipient_id = ? AND is_read = 0`,
		chatID, readerID); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

// GetUnreadMessageCount counts unread messages addressed to the reader across
// all of their chats.
func (db *DB) GetUnreadMessageCount(ctx context.Context, readerID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE recipient_id = ? AND is_read = 0`,
		readerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
