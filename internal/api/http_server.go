package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"joblet/internal/config"
	"joblet/internal/database"
	"joblet/internal/domain"
	"joblet/internal/export"
	"joblet/internal/metrics"
	"joblet/internal/models"
	"joblet/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking platform over a JSON HTTP API.
type HTTPServer struct {
	cfg           config.APIConfig
	bookings      domain.BookingService
	catalog       domain.CatalogService
	chats         domain.ChatService
	notifications domain.NotificationService
	accounts      domain.AccountService
	exporter      *export.Exporter
	auth          *HTTPAuth
	server        *http.Server
	logger        zerolog.Logger
}

type Services struct {
	Bookings      domain.BookingService
	Catalog       domain.CatalogService
	Chats         domain.ChatService
	Notifications domain.NotificationService
	Accounts      domain.AccountService
	Exporter      *export.Exporter
}

func NewHTTPServer(cfg config.APIConfig, repo domain.Repository, svcs Services, logger zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:           cfg,
		bookings:      svcs.Bookings,
		catalog:       svcs.Catalog,
		chats:         svcs.Chats,
		notifications: svcs.Notifications,
		accounts:      svcs.Accounts,
		exporter:      svcs.Exporter,
		logger:        logger.With().Str("component", "http").Logger(),
	}
	srv.auth = NewHTTPAuth(cfg, repo)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/services", srv.handleListServices)
	mux.HandleFunc("POST /api/v1/services", srv.handleCreateService)
	mux.HandleFunc("GET /api/v1/services/{id}", srv.handleGetService)
	mux.HandleFunc("PATCH /api/v1/services/{id}", srv.handleUpdateService)

	mux.HandleFunc("GET /api/v1/bookings", srv.handleListBookings)
	mux.HandleFunc("POST /api/v1/bookings", srv.handleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings/{id}", srv.handleGetBooking)
	mux.HandleFunc("POST /api/v1/bookings/{id}/accept", srv.handleAcceptBooking)
	mux.HandleFunc("POST /api/v1/bookings/{id}/reject", srv.handleRejectBooking)
	mux.HandleFunc("POST /api/v1/bookings/{id}/complete", srv.handleCompleteBooking)
	mux.HandleFunc("GET /api/v1/bookings/{id}/chat", srv.handleChatHistory)
	mux.HandleFunc("POST /api/v1/bookings/{id}/chat", srv.handleChatSend)

	mux.HandleFunc("GET /api/v1/wallet", srv.handleWallet)
	mux.HandleFunc("GET /api/v1/notifications", srv.handleNotifications)
	mux.HandleFunc("POST /api/v1/notifications/{id}/read", srv.handleNotificationRead)
	mux.HandleFunc("POST /api/v1/notifications/read-all", srv.handleNotificationsReadAll)
	mux.HandleFunc("GET /api/v1/providers/{id}/stats", srv.handleProviderStats)

	mux.HandleFunc("GET /api/v1/admin/services/pending", srv.requireAdmin(srv.handlePendingServices))
	mux.HandleFunc("POST /api/v1/admin/services/{id}/approve", srv.requireAdmin(srv.handleModerate(true)))
	mux.HandleFunc("POST /api/v1/admin/services/{id}/reject", srv.requireAdmin(srv.handleModerate(false)))
	mux.HandleFunc("POST /api/v1/admin/users/{id}/ban", srv.requireAdmin(srv.handleBanUser))
	mux.HandleFunc("POST /api/v1/admin/users/{id}/adjust-balance", srv.requireAdmin(srv.handleAdjustBalance))
	mux.HandleFunc("GET /api/v1/admin/export", srv.requireExportAccess(srv.handleExport))

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// requireAdmin guards admin handlers behind the account's admin flag.
func (s *HTTPServer) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := AccountFromContext(r.Context())
		if !ok || !account.IsAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}

// requireExportAccess admits admins and API-key clients. The auth middleware
// only lets a key reach this path with the export permission, so the client's
// presence in the context is the check.
func (s *HTTPServer) requireExportAccess(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := APIClientFromContext(r.Context()); ok {
			next(w, r)
			return
		}
		s.requireAdmin(next)(w, r)
	}
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

// account pulls the authenticated account or fails the request.
func (s *HTTPServer) account(w http.ResponseWriter, r *http.Request) (*models.Account, bool) {
	account, found := AccountFromContext(r.Context())
	if !found {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return account, true
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

// writeDomainError maps service and database errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, database.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, "insufficient funds")
	case errors.Is(err, database.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid booking state")
	case errors.Is(err, database.ErrChatInactive):
		writeError(w, http.StatusConflict, "chat is closed")
	case errors.Is(err, database.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	case errors.Is(err, service.ErrPastDate),
		errors.Is(err, service.ErrDateTooFar),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidAccount):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
