package models

import "time"

// Chat is the single conversation bound to a booking. It is created the first
// time the booking reaches in_progress and never recreated.
type Chat struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"booking_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID          int64     `json:"id"`
	ChatID      int64     `json:"chat_id"`
	SenderID    int64     `json:"sender_id"`
	RecipientID int64     `json:"recipient_id"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

type Notification struct {
	ID             int64     `json:"id"`
	RecipientID    int64     `json:"recipient_id"`
	BookingID      int64     `json:"booking_id,omitempty"`
	Message        string    `json:"message"`
	Read           bool      `json:"read"`
	ActionRequired bool      `json:"action_required"`
	CreatedAt      time.Time `json:"created_at"`
}
