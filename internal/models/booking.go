package models

import "time"

type Booking struct {
	ID          int64      `json:"id"`
	Reference   string     `json:"reference"`
	ServiceID   int64      `json:"service_id"`
	CustomerID  int64      `json:"customer_id"`
	ProviderID  int64      `json:"provider_id"`
	ServiceName string     `json:"service_name,omitempty"`
	PriceCents  int64      `json:"price_cents"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Details     string     `json:"details,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// Party reports whether the account is one of the booking's two sides.
func (b *Booking) Party(accountID int64) bool {
	return accountID == b.CustomerID || accountID == b.ProviderID
}

// OtherParty returns the counterpart of the given account in the booking.
func (b *Booking) OtherParty(accountID int64) int64 {
	if accountID == b.CustomerID {
		return b.ProviderID
	}
	return b.CustomerID
}
