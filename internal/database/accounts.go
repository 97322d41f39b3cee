package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"joblet/internal/models"
)

func (db *DB) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `INSERT INTO accounts (
				email, full_name, phone, location, balance_cents,
				is_provider, is_admin, is_blacklisted, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		account.Email,
		account.FullName,
		account.Phone,
		account.Location,
		account.BalanceCents,
		account.IsProvider,
		account.IsAdmin,
		account.IsBlacklisted,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now

	if account.Provider != nil {
		account.Provider.AccountID = id
		if err := db.upsertProviderProfile(ctx, account.Provider); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) upsertProviderProfile(ctx context.Context, profile *models.ProviderProfile) error {
	query := `INSERT INTO providers (account_id, about, contact_email, created_at)
              VALUES (?, ?, ?, ?)
              ON CONFLICT(account_id) DO UPDATE SET
                about = excluded.about,
                contact_email = excluded.contact_email`
	_, err := db.ExecContext(ctx, query, profile.AccountID, profile.About, profile.ContactEmail, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert provider profile: %w", err)
	}
	return nil
}

const accountColumns = `id, email, full_name, phone, location, balance_cents,
	                 is_provider, is_admin, is_blacklisted, created_at, updated_at`

func (db *DB) queryAccount(ctx context.Context, query string, args ...interface{}) (*models.Account, error) {
	var a models.Account
	var phone, location sql.NullString
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.Email, &a.FullName, &phone, &location, &a.BalanceCents,
		&a.IsProvider, &a.IsAdmin, &a.IsBlacklisted, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	a.Phone = phone.String
	a.Location = location.String

	if a.IsProvider {
		profile, err := db.getProviderProfile(ctx, a.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		a.Provider = profile
	}
	return &a, nil
}

func (db *DB) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	return db.queryAccount(ctx, query, id)
}

func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`
	return db.queryAccount(ctx, query, email)
}

func (db *DB) getProviderProfile(ctx context.Context, accountID int64) (*models.ProviderProfile, error) {
	var p models.ProviderProfile
	var about, contactEmail sql.NullString
	query := `SELECT account_id, about, contact_email, created_at FROM providers WHERE account_id = ?`
	err := db.QueryRowContext(ctx, query, accountID).Scan(&p.AccountID, &about, &contactEmail, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider profile: %w", err)
	}
	p.About = about.String
	p.ContactEmail = contactEmail.String
	return &p, nil
}

// SetAccountBlacklisted bans or unbans an account.
func (db *DB) SetAccountBlacklisted(ctx context.Context, id int64, blacklisted bool) error {
	query := `UPDATE accounts SET is_blacklisted = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, blacklisted, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update blacklist flag: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustBalance applies an administrative wallet correction. Debits follow the
// same non-negative guard as booking debits.
func (db *DB) AdjustBalance(ctx context.Context, accountID, amountCents int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := applyBalanceChange(ctx, tx, accountID, amountCents); err != nil {
			return err
		}
		return insertWalletEntry(ctx, tx, accountID, 0, models.EntryAdminAdjust, amountCents)
	})
}

// GetWalletEntries returns the account's ledger, newest first.
func (db *DB) GetWalletEntries(ctx context.Context, accountID int64) ([]*models.WalletEntry, error) {
	query := `SELECT id, account_id, COALESCE(booking_id, 0), kind, amount_cents, created_at
              FROM wallet_entries WHERE account_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.WalletEntry
	for rows.Next() {
		e := &models.WalletEntry{}
		if err := rows.Scan(&e.ID, &e.AccountID, &e.BookingID, &e.Kind, &e.AmountCents, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// applyBalanceChange mutates the balance inside tx. Negative amounts are
// guarded so the balance can never go below zero; a failed guard reports
// ErrInsufficientFunds, a missing account reports ErrNotFound.
func applyBalanceChange(ctx context.Context, tx *sql.Tx, accountID, amountCents int64) error {
	query := `UPDATE accounts SET balance_cents = balance_cents + ?, updated_at = ?
              WHERE id = ? AND balance_cents + ? >= 0`
	result, err := tx.ExecContext(ctx, query, amountCents, time.Now(), accountID, amountCents)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id = ?`, accountID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to check account: %w", err)
		}
		return ErrInsufficientFunds
	}
	return nil
}

func insertWalletEntry(ctx context.Context, tx *sql.Tx, accountID, bookingID int64, kind string, amountCents int64) error {
	var booking interface{}
	if bookingID != 0 {
		booking = bookingID
	}
	query := `INSERT INTO wallet_entries (account_id, booking_id, kind, amount_cents, created_at)
              VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, accountID, booking, kind, amountCents, time.Now()); err != nil {
		return fmt.Errorf("failed to insert wallet entry: %w", err)
	}
	return nil
}

func (db *DB) GetProviderStats(ctx context.Context, providerID int64) (*models.ProviderStats, error) {
	stats := &models.ProviderStats{
		ProviderID:       providerID,
		BookingsByStatus: make(map[string]int64),
	}

	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM services WHERE provider_id = ?`, providerID).Scan(&stats.TotalServices)
	if err != nil {
		return nil, fmt.Errorf("failed to count services: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT b.status, COUNT(*) FROM bookings b
         JOIN services s ON b.service_id = s.id
         WHERE s.provider_id = ? GROUP BY b.status`, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan booking counts: %w", err)
		}
		stats.BookingsByStatus[status] = count
		stats.TotalBookings += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.TotalBookings > 0 {
		completed := stats.BookingsByStatus[models.StatusCompleted]
		stats.CompletedPercent = float64(completed) / float64(stats.TotalBookings) * 100
	}

	err = db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM wallet_entries WHERE account_id = ? AND kind = ?`,
		providerID, models.EntryBookingPayout).Scan(&stats.EarnedCents)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payouts: %w", err)
	}

	return stats, nil
}
