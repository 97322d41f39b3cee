package database

import (
	"context"
	"testing"

	"joblet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProvider(t *testing.T, db *DB, email string) *models.Account {
	t.Helper()
	provider := &models.Account{Email: email, FullName: "Provider", IsProvider: true}
	require.NoError(t, db.CreateAccount(context.Background(), provider))
	return provider
}

func seedService(t *testing.T, db *DB, providerID int64, title string, priceCents int64, active bool, approval string) *models.Service {
	t.Helper()
	service := &models.Service{
		ProviderID: providerID,
		Title:      title,
		PriceCents: priceCents,
		IsActive:   active,
		Approval:   approval,
	}
	require.NoError(t, db.CreateService(context.Background(), service))
	return service
}

func TestCatalogGateHidesNonBookable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	provider := seedProvider(t, db, "p@test.io")
	visible := seedService(t, db, provider.ID, "Visible", 1000, true, models.ApprovalApproved)
	seedService(t, db, provider.ID, "Inactive", 1000, false, models.ApprovalApproved)
	seedService(t, db, provider.ID, "Unapproved", 1000, true, models.ApprovalPending)
	seedService(t, db, provider.ID, "Rejected", 1000, true, models.ApprovalRejected)

	services, err := db.ListBookableServices(ctx, models.CatalogQuery{})
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, visible.ID, services[0].ID)

	// Direct lookups through the gate behave the same.
	_, err = db.GetBookableService(ctx, visible.ID)
	assert.NoError(t, err)
	for _, s := range services {
		assert.True(t, s.Bookable())
	}

	hidden, err := db.ListServicesByProvider(ctx, provider.ID)
	require.NoError(t, err)
	assert.Len(t, hidden, 4) // owner sees everything
}

func TestCatalogSearchAndSort(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	provider := seedProvider(t, db, "p@test.io")
	seedService(t, db, provider.ID, "Apartment cleaning", 3000, true, models.ApprovalApproved)
	seedService(t, db, provider.ID, "Window cleaning", 1500, true, models.ApprovalApproved)
	seedService(t, db, provider.ID, "Plumbing", 5000, true, models.ApprovalApproved)

	found, err := db.ListBookableServices(ctx, models.CatalogQuery{Search: "cleaning"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	asc, err := db.ListBookableServices(ctx, models.CatalogQuery{Sort: models.SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, int64(1500), asc[0].PriceCents)
	assert.Equal(t, int64(5000), asc[2].PriceCents)

	desc, err := db.ListBookableServices(ctx, models.CatalogQuery{Sort: models.SortPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), desc[0].PriceCents)

	paged, err := db.ListBookableServices(ctx, models.CatalogQuery{Sort: models.SortPriceAsc, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, int64(5000), paged[0].PriceCents)
}

func TestUpdateServiceResetsApproval(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	provider := seedProvider(t, db, "p@test.io")
	service := seedService(t, db, provider.ID, "Repair", 2000, true, models.ApprovalApproved)

	price := int64(2500)
	require.NoError(t, db.UpdateService(ctx, service.ID, provider.ID, models.ServicePatch{PriceCents: &price}))

	// Edited listing leaves the public catalog until re-moderated.
	_, err := db.GetBookableService(ctx, service.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	pending, err := db.ListPendingServices(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, service.ID, pending[0].ID)
}

func TestUpdateServicePatchKeepsOtherFields(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	provider := seedProvider(t, db, "p@test.io")
	service := seedService(t, db, provider.ID, "Cleaning", 2000, true, models.ApprovalApproved)

	price := int64(2500)
	require.NoError(t, db.UpdateService(ctx, service.ID, provider.ID, models.ServicePatch{PriceCents: &price}))

	got, err := db.GetService(ctx, service.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cleaning", got.Title)
	assert.True(t, got.IsActive)
	assert.Equal(t, int64(2500), got.PriceCents)
	assert.Equal(t, models.ApprovalPending, got.Approval)
}

func TestUpdateServiceOwnershipGuard(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	provider := seedProvider(t, db, "p@test.io")
	other := seedProvider(t, db, "other@test.io")
	service := seedService(t, db, provider.ID, "Repair", 2000, true, models.ApprovalApproved)

	price := int64(1)
	assert.ErrorIs(t, db.UpdateService(ctx, service.ID, other.ID, models.ServicePatch{PriceCents: &price}), ErrNotFound)
	assert.ErrorIs(t, db.SetServiceActive(ctx, service.ID, other.ID, false), ErrNotFound)
}

func TestSetServiceApproval(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	provider := seedProvider(t, db, "p@test.io")
	service := seedService(t, db, provider.ID, "Repair", 2000, true, models.ApprovalPending)

	require.NoError(t, db.SetServiceApproval(ctx, service.ID, models.ApprovalApproved))
	got, err := db.GetBookableService(ctx, service.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, got.Approval)

	require.NoError(t, db.SetServiceApproval(ctx, service.ID, models.ApprovalRejected))
	_, err = db.GetBookableService(ctx, service.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, db.SetServiceApproval(ctx, 999, models.ApprovalApproved), ErrNotFound)
}
