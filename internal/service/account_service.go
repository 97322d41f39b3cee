package service

import (
	"context"
	"errors"
	"strings"

	"joblet/internal/database"
	"joblet/internal/domain"
	"joblet/internal/metrics"
	"joblet/internal/models"

	"github.com/rs/zerolog"
)

var ErrInvalidAccount = errors.New("email and full name are required")

type AccountService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewAccountService(repo domain.Repository, logger *zerolog.Logger) *AccountService {
	return &AccountService{repo: repo, logger: logger}
}

func (s *AccountService) Register(ctx context.Context, account *models.Account) error {
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	if account.Email == "" || strings.TrimSpace(account.FullName) == "" {
		return ErrInvalidAccount
	}
	return s.repo.CreateAccount(ctx, account)
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *AccountService) GetWallet(ctx context.Context, accountID int64) (*models.Account, []*models.WalletEntry, error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.repo.GetWalletEntries(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	return account, entries, nil
}

// AdjustBalance is the admin top-up and correction path. A negative amount
// that would overdraw the wallet fails with ErrInsufficientFunds.
func (s *AccountService) AdjustBalance(ctx context.Context, adminID, accountID, amountCents int64) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.repo.AdjustBalance(ctx, accountID, amountCents); err != nil {
		return err
	}
	metrics.AddWalletCents(models.EntryAdminAdjust, amountCents)
	s.logger.Info().Int64("admin_id", adminID).Int64("account_id", accountID).Int64("amount_cents", amountCents).Msg("balance adjusted")
	return nil
}

func (s *AccountService) SetBlacklisted(ctx context.Context, adminID, accountID int64, blacklisted bool) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.repo.SetAccountBlacklisted(ctx, accountID, blacklisted); err != nil {
		return err
	}
	s.logger.Info().Int64("admin_id", adminID).Int64("account_id", accountID).Bool("blacklisted", blacklisted).Msg("blacklist updated")
	return nil
}

func (s *AccountService) ProviderStats(ctx context.Context, providerID int64) (*models.ProviderStats, error) {
	account, err := s.repo.GetAccount(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !account.IsProvider {
		return nil, database.ErrNotFound
	}
	return s.repo.GetProviderStats(ctx, providerID)
}

func (s *AccountService) requireAdmin(ctx context.Context, adminID int64) error {
	admin, err := s.repo.GetAccount(ctx, adminID)
	if err != nil {
		return err
	}
	if !admin.IsAdmin {
		return database.ErrForbidden
	}
	return nil
}
