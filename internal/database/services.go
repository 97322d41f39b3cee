package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"joblet/internal/models"
)

const serviceColumns = `s.id, s.provider_id, a.full_name, s.title, s.description, s.price_cents,
	                 s.duration_minutes, s.is_active, s.approval, s.created_at, s.updated_at`

func scanService(scanner interface{ Scan(...interface{}) error }) (*models.Service, error) {
	s := &models.Service{}
	err := scanner.Scan(
		&s.ID, &s.ProviderID, &s.ProviderName, &s.Title, &s.Description, &s.PriceCents,
		&s.DurationMinutes, &s.IsActive, &s.Approval, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) CreateService(ctx context.Context, service *models.Service) error {
	query := `INSERT INTO services (
				provider_id, title, description, price_cents, duration_minutes,
				is_active, approval, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	approval := service.Approval
	if approval == "" {
		approval = models.ApprovalPending
	}
	result, err := db.ExecContext(ctx, query,
		service.ProviderID,
		service.Title,
		service.Description,
		service.PriceCents,
		service.DurationMinutes,
		service.IsActive,
		approval,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	service.ID = id
	service.Approval = approval
	service.CreatedAt = now
	service.UpdatedAt = now
	return nil
}

// GetService returns the service regardless of visibility. Intended for
// owners, admins and internal lookups.
func (db *DB) GetService(ctx context.Context, id int64) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services s
              JOIN accounts a ON s.provider_id = a.id WHERE s.id = ?`
	s, err := scanService(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return s, nil
}

// GetBookableService returns the service only if it is visible to customers:
// active and approved. Anything else reads as not found so unapproved
// listings do not leak.
func (db *DB) GetBookableService(ctx context.Context, id int64) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services s
              JOIN accounts a ON s.provider_id = a.id
              WHERE s.id = ? AND s.is_active = 1 AND s.approval = ?`
	s, err := scanService(db.QueryRowContext(ctx, query, id, models.ApprovalApproved))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookable service: %w", err)
	}
	return s, nil
}

// ListBookableServices returns the catalog-gated listing.
func (db *DB) ListBookableServices(ctx context.Context, q models.CatalogQuery) ([]*models.Service, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + serviceColumns + ` FROM services s
              JOIN accounts a ON s.provider_id = a.id
              WHERE s.is_active = 1 AND s.approval = ?`)
	args := []interface{}{models.ApprovalApproved}

	if search := strings.TrimSpace(q.Search); search != "" {
		sb.WriteString(` AND (s.title LIKE ? OR s.description LIKE ?)`)
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	switch q.Sort {
	case models.SortPriceAsc:
		sb.WriteString(` ORDER BY s.price_cents ASC, s.id ASC`)
	case models.SortPriceDesc:
		sb.WriteString(` ORDER BY s.price_cents DESC, s.id ASC`)
	default:
		sb.WriteString(` ORDER BY s.created_at DESC, s.id DESC`)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = models.DefaultCatalogPageSize
	}
	if limit > models.MaxCatalogPageSize {
		limit = models.MaxCatalogPageSize
	}
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookable services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (db *DB) ListServicesByProvider(ctx context.Context, providerID int64) ([]*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services s
              JOIN accounts a ON s.provider_id = a.id
              WHERE s.provider_id = ? ORDER BY s.created_at DESC`
	rows, err := db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// ListPendingServices returns the moderation queue, oldest first.
func (db *DB) ListPendingServices(ctx context.Context) ([]*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services s
              JOIN accounts a ON s.provider_id = a.id
              WHERE s.approval = ? ORDER BY s.created_at ASC`
	rows, err := db.QueryContext(ctx, query, models.ApprovalPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// UpdateService edits a provider-owned listing. Any edit sends the listing
// back to moderation.
func (db *DB) UpdateService(ctx context.Context, id, providerID int64, patch models.ServicePatch) error {
	sets := []string{"approval = ?", "updated_at = ?"}
	args := []interface{}{models.ApprovalPending, time.Now()}

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.PriceCents != nil {
		sets = append(sets, "price_cents = ?")
		args = append(args, *patch.PriceCents)
	}
	if patch.DurationMinutes != nil {
		sets = append(sets, "duration_minutes = ?")
		args = append(args, *patch.DurationMinutes)
	}
	if patch.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *patch.IsActive)
	}

	query := fmt.Sprintf(`UPDATE services SET %s WHERE id = ? AND provider_id = ?`,
		strings.Join(sets, ", "))
	args = append(args, id, providerID)

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) SetServiceActive(ctx context.Context, id, providerID int64, active bool) error {
	query := `UPDATE services SET is_active = ?, updated_at = ? WHERE id = ? AND provider_id = ?`
	result, err := db.ExecContext(ctx, query, active, time.Now(), id, providerID)
	if err != nil {
		return fmt.Errorf("failed to set service active: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SetServiceApproval is the admin moderation decision.
func (db *DB) SetServiceApproval(ctx context.Context, id int64, approval string) error {
	query := `UPDATE services SET approval = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, approval, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set service approval: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
