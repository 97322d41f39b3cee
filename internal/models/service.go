package models

import "time"

type Service struct {
	ID              int64     `json:"id"`
	ProviderID      int64     `json:"provider_id"`
	ProviderName    string    `json:"provider_name,omitempty"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	PriceCents      int64     `json:"price_cents"`
	DurationMinutes int64     `json:"duration_minutes"`
	IsActive        bool      `json:"is_active"`
	Approval        string    `json:"approval"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ServicePatch carries a partial edit. Nil fields keep their current value.
type ServicePatch struct {
	Title           *string
	Description     *string
	PriceCents      *int64
	DurationMinutes *int64
	IsActive        *bool
}

// Empty reports whether the patch changes nothing.
func (p ServicePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.PriceCents == nil &&
		p.DurationMinutes == nil && p.IsActive == nil
}

// Bookable reports whether the service may be shown to and booked by customers.
func (s *Service) Bookable() bool {
	return s.IsActive && s.Approval == ApprovalApproved
}

// CatalogQuery describes filtering and ordering for catalog listings.
type CatalogQuery struct {
	Search string `json:"search,omitempty"`
	Sort   string `json:"sort,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
