package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"joblet/internal/config"
	"joblet/internal/database"
	"joblet/internal/export"
	"joblet/internal/models"
	"joblet/internal/repository"
	"joblet/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *database.DB) {
	t.Helper()
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		Auth: config.APIAuthConfig{
			Enabled:   true,
			JWTSecret: testJWTSecret,
			APIKeys: []config.APIClientKey{
				{Key: "svc-key", Name: "partner", Permissions: []string{"read:catalog"}},
				{Key: "ledger-key", Name: "ledger", Permissions: []string{"read:export"}},
			},
		},
	}

	cache := repository.NewMemoryCacheRepository()
	svcs := Services{
		Bookings:      service.NewBookingService(db, nil, nil, 30, &logger),
		Catalog:       service.NewCatalogService(db, cache, 5*time.Minute, &logger),
		Chats:         service.NewChatService(db, cache, nil, 20, 60, &logger),
		Notifications: service.NewNotificationService(db, &logger),
		Accounts:      service.NewAccountService(db, &logger),
		Exporter:      export.NewExporter(db, t.TempDir(), &logger),
	}

	server := NewHTTPServer(cfg, db, svcs, logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

type apiFixture struct {
	customer *models.Account
	provider *models.Account
	admin    *models.Account
	service  *models.Service
}

func seedAPI(t *testing.T, db *database.DB) apiFixture {
	t.Helper()
	ctx := context.Background()

	customer := &models.Account{Email: "customer@test.io", FullName: "Customer", BalanceCents: 10000}
	require.NoError(t, db.CreateAccount(ctx, customer))

	provider := &models.Account{Email: "provider@test.io", FullName: "Provider", IsProvider: true}
	require.NoError(t, db.CreateAccount(ctx, provider))

	admin := &models.Account{Email: "admin@test.io", FullName: "Admin", IsAdmin: true}
	require.NoError(t, db.CreateAccount(ctx, admin))

	svc := &models.Service{
		ProviderID: provider.ID,
		Title:      "Apartment cleaning",
		PriceCents: 6000,
		IsActive:   true,
		Approval:   models.ApprovalApproved,
	}
	require.NoError(t, db.CreateService(ctx, svc))

	return apiFixture{customer: customer, provider: provider, admin: admin, service: svc}
}

func doJSON(t *testing.T, method, url string, account *models.Account, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if account != nil {
		token, err := IssueToken(testJWTSecret, account.ID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestListServicesPublicWithAPIKey(t *testing.T) {
	ts, db := newTestServer(t)
	seedAPI(t, db)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/services", nil)
	require.NoError(t, err)
	req.Header.Set("x-api-key", "svc-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string][]models.Service](t, resp)
	assert.Len(t, body["services"], 1)
}

func TestAPIKeyCannotTouchBookings(t *testing.T) {
	ts, db := newTestServer(t)
	seedAPI(t, db)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/bookings", nil)
	require.NoError(t, err)
	req.Header.Set("x-api-key", "svc-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequestMissingToken(t *testing.T) {
	ts, db := newTestServer(t)
	seedAPI(t, db)

	resp, err := http.Get(ts.URL + "/api/v1/bookings")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	ts, db := newTestServer(t)
	f := seedAPI(t, db)

	scheduledAt := time.Now().Add(48 * time.Hour).Format(time.RFC3339)

	// Customer books the service.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", f.customer, map[string]any{
		"service_id":   f.service.ID,
		"scheduled_at": scheduledAt,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	booking := decodeBody[models.Booking](t, resp)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Equal(t, int64(6000), booking.PriceCents)

	// Provider accepts.
	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/bookings/%d/accept", ts.URL, booking.ID), f.provider, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	accepted := decodeBody[models.Booking](t, resp)
	assert.Equal(t, models.StatusInProgress, accepted.Status)

	// Customer chats.
	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/bookings/%d/chat", ts.URL, booking.ID), f.customer, map[string]string{
		"content": "see you tomorrow",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/bookings/%d/chat", ts.URL, booking.ID), f.provider, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decodeBody[map[string][]models.Message](t, resp)
	require.Len(t, history["messages"], 1)
	assert.Equal(t, "see you tomorrow", history["messages"][0].Content)

	// Customer confirms completion.
	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/bookings/%d/complete", ts.URL, booking.ID), f.customer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	completed := decodeBody[models.Booking](t, resp)
	assert.Equal(t, models.StatusCompleted, completed.Status)

	// Repeating the confirmation stays a 200.
	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/bookings/%d/complete", ts.URL, booking.ID), f.customer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	repeated := decodeBody[map[string]any](t, resp)
	assert.Contains(t, repeated, "info")

	// Provider wallet got the payout.
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/wallet", f.provider, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	wallet := decodeBody[map[string]json.RawMessage](t, resp)
	var balance int64
	require.NoError(t, json.Unmarshal(wallet["balance_cents"], &balance))
	assert.Equal(t, int64(6000), balance)
}

func TestBookingInsufficientFundsHTTP(t *testing.T) {
	ts, db := newTestServer(t)
	f := seedAPI(t, db)

	broke := &models.Account{Email: "broke@test.io", FullName: "Broke", BalanceCents: 100}
	require.NoError(t, db.CreateAccount(context.Background(), broke))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", broke, map[string]any{
		"service_id":   f.service.ID,
		"scheduled_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}

func TestAcceptByWrongProvider(t *testing.T) {
	ts, db := newTestServer(t)
	f := seedAPI(t, db)

	other := &models.Account{Email: "other@test.io", FullName: "Other", IsProvider: true}
	require.NoError(t, db.CreateAccount(context.Background(), other))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", f.customer, map[string]any{
		"service_id":   f.service.ID,
		"scheduled_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	booking := decodeBody[models.Booking](t, resp)

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/bookings/%d/accept", ts.URL, booking.ID), other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRejectRefundsOverHTTP(t *testing.T) {
	ts, db := newTestServer(t)
	f := seedAPI(t, db)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", f.customer, map[string]any{
		"service_id":   f.service.ID,
		"scheduled_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	booking := decodeBody[models.Booking](t, resp)

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/bookings/%d/reject", ts.URL, booking.ID), f.provider, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/wallet", f.customer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	wallet := decodeBody[map[string]json.RawMessage](t, resp)
	var balance int64
	require.NoError(t, json.Unmarshal(wallet["balance_cents"], &balance))
	assert.Equal(t, int64(10000), balance)
}

func TestCreateServiceRequiresProvider(t *testing.T) {
	ts, db := newTestServer(t)
	f := seedAPI(t, db)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/services", f.customer, map[string]any{
		"title":       "not a provider",
		"price_cents": 1000,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServiceModerationFlow(t *testing.T) {
	ts, db := newTestServer(t)
	f := seedAPI(t, db)

	// Provider creates a listing; it starts unmoderated.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/services", f.provider, map[string]any{
		"title":       "Window cleaning",
		"price_cents": 3500,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[models.Service](t, resp)
	assert.Equal(t, models.ApprovalPending, created.Approval)
	assert.True(t, created.IsActive)

	// Not visible in the catalog yet.
	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/services/%d", ts.URL, created.ID), f.customer, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Moderation queue requires admin.
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/admin/services/pending", f.provider, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/admin/services/pending", f.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := decodeBody[map[string][]models.Service](t, resp)
	require.Len(t, pending["services"], 1)

	// Admin approves; the listing becomes bookable.
	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/admin/services/%d/approve", ts.URL, created.ID), f.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/services/%d", ts.URL, created.ID), f.customer, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServicePatchKeepsUnsentFields(t *testing.T) {
	ts, db := newTestServer(t)
	f := seedAPI(t, db)

	resp := doJSON(t, http.MethodPatch, fmt.Sprintf("%s/api/v1/services/%d", ts.URL, f.service.ID), f.provider, map[string]any{
		"price_cents": 7000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The edit went back to moderation; re-approve and check nothing else moved.
	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/admin/services/%d/approve", ts.URL, f.service.ID), f.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/services/%d", ts.URL, f.service.ID), f.customer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[models.Service](t, resp)
	assert.Equal(t, "Apartment cleaning", got.Title)
	assert.Equal(t, int64(7000), got.PriceCents)
	assert.True(t, got.IsActive)
}

func TestAdminViewsAnyBooking(t *testing.T) {
	ts, db := newTestServer(t)
	f := seedAPI(t, db)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", f.customer, map[string]any{
		"service_id":   f.service.ID,
		"scheduled_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	booking := decodeBody[models.Booking](t, resp)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/bookings/%d", ts.URL, booking.ID), f.admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExportWithAPIKey(t *testing.T) {
	ts, db := newTestServer(t)
	seedAPI(t, db)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/admin/export", nil)
	require.NoError(t, err)
	req.Header.Set("x-api-key", "ledger-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A catalog-only key does not reach the export.
	req2, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/admin/export", nil)
	require.NoError(t, err)
	req2.Header.Set("x-api-key", "svc-key")
	resp2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp2.StatusCode)
}

func TestNotificationsOverHTTP(t *testing.T) {
	ts, db := newTestServer(t)
	f := seedAPI(t, db)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", f.customer, map[string]any{
		"service_id":   f.service.ID,
		"scheduled_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/notifications", f.provider, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int                   `json:"unread_count"`
	}](t, resp)
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, 1, body.UnreadCount)
	assert.True(t, body.Notifications[0].ActionRequired)

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/notifications/%d/read", ts.URL, body.Notifications[0].ID), f.provider, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/notifications", f.provider, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	after := decodeBody[struct {
		UnreadCount int `json:"unread_count"`
	}](t, resp)
	assert.Equal(t, 0, after.UnreadCount)
}

func TestBannedAccountIsLockedOut(t *testing.T) {
	ts, db := newTestServer(t)
	f := seedAPI(t, db)

	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/admin/users/%d/ban", ts.URL, f.customer.ID), f.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/bookings", f.customer, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminAdjustBalance(t *testing.T) {
	ts, db := newTestServer(t)
	f := seedAPI(t, db)

	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/admin/users/%d/adjust-balance", ts.URL, f.provider.ID), f.admin, map[string]any{
		"amount_cents": 2500,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/wallet", f.provider, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	wallet := decodeBody[map[string]json.RawMessage](t, resp)
	var balance int64
	require.NoError(t, json.Unmarshal(wallet["balance_cents"], &balance))
	assert.Equal(t, int64(2500), balance)
}

func TestProviderStatsOverHTTP(t *testing.T) {
	ts, db := newTestServer(t)
	f := seedAPI(t, db)

	resp := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/providers/%d/stats", ts.URL, f.provider.ID), f.customer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decodeBody[models.ProviderStats](t, resp)
	assert.Equal(t, f.provider.ID, stats.ProviderID)
	assert.Equal(t, int64(1), stats.TotalServices)
}

func TestChatOnPendingBookingIsClosed(t *testing.T) {
	ts, db := newTestServer(t)
	f := seedAPI(t, db)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/bookings", f.customer, map[string]any{
		"service_id":   f.service.ID,
		"scheduled_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	booking := decodeBody[models.Booking](t, resp)

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/bookings/%d/chat", ts.URL, booking.ID), f.customer, map[string]string{
		"content": "hello?",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
