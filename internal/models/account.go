package models

import "time"

type Account struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone,omitempty"`
	Location      string    `json:"location,omitempty"`
	BalanceCents  int64     `json:"balance_cents"`
	IsProvider    bool      `json:"is_provider"`
	IsAdmin       bool      `json:"is_admin"`
	IsBlacklisted bool      `json:"is_blacklisted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Provider is set only for accounts that offer services.
	Provider *ProviderProfile `json:"provider,omitempty"`
}

type ProviderProfile struct {
	AccountID    int64     `json:"account_id"`
	About        string    `json:"about,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// WalletEntry is an append-only ledger record for a single balance mutation.
// Amount is signed: negative for debits, positive for credits.
type WalletEntry struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account_id"`
	BookingID   int64     `json:"booking_id,omitempty"`
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProviderStats aggregates booking outcomes for a provider's services.
type ProviderStats struct {
	ProviderID       int64            `json:"provider_id"`
	TotalServices    int64            `json:"total_services"`
	TotalBookings    int64            `json:"total_bookings"`
	BookingsByStatus map[string]int64 `json:"bookings_by_status"`
	CompletedPercent float64          `json:"completed_percent"`
	EarnedCents      int64            `json:"earned_cents"`
}
