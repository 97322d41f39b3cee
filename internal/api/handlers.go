package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"joblet/internal/database"
	"joblet/internal/models"
)

func (s *HTTPServer) handleListServices(w http.ResponseWriter, r *http.Request) {
	q := models.CatalogQuery{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Sort:   strings.TrimSpace(r.URL.Query().Get("sort")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		q.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		q.Offset, _ = strconv.Atoi(v)
	}

	services, err := s.catalog.ListServices(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (s *HTTPServer) handleGetService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	svc, err := s.catalog.GetService(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

type serviceRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int64  `json:"duration_minutes"`
}

// servicePatchRequest mirrors models.ServicePatch: absent fields stay as is.
type servicePatchRequest struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	PriceCents      *int64  `json:"price_cents,omitempty"`
	DurationMinutes *int64  `json:"duration_minutes,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

func (s *HTTPServer) handleCreateService(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}
	if !account.IsProvider {
		writeError(w, http.StatusForbidden, "provider account required")
		return
	}

	var body serviceRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	// New listings are live immediately; only moderation gates visibility.
	svc := &models.Service{
		ProviderID:      account.ID,
		Title:           strings.TrimSpace(body.Title),
		Description:     strings.TrimSpace(body.Description),
		PriceCents:      body.PriceCents,
		DurationMinutes: body.DurationMinutes,
		IsActive:        true,
	}
	if err := s.catalog.CreateService(r.Context(), svc); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (s *HTTPServer) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body servicePatchRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := models.ServicePatch{
		Description:     body.Description,
		PriceCents:      body.PriceCents,
		DurationMinutes: body.DurationMinutes,
		IsActive:        body.IsActive,
	}
	if body.Title != nil {
		title := strings.TrimSpace(*body.Title)
		if title == "" {
			writeError(w, http.StatusBadRequest, "title cannot be blank")
			return
		}
		patch.Title = &title
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	// A body carrying only is_active toggles visibility without re-moderation.
	if body.IsActive != nil && patch.Title == nil && patch.Description == nil &&
		patch.PriceCents == nil && patch.DurationMinutes == nil {
		if err := s.catalog.SetServiceActive(r.Context(), id, account.ID, *body.IsActive); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_active": *body.IsActive})
		return
	}

	if err := s.catalog.UpdateService(r.Context(), id, account.ID, patch); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "approval": models.ApprovalPending})
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	bookings, err := s.bookings.ListBookings(r.Context(), account, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}

	var body struct {
		ServiceID   int64  `json:"service_id"`
		ScheduledAt string `json:"scheduled_at"`
		Details     string `json:"details"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.ServiceID <= 0 {
		writeError(w, http.StatusBadRequest, "service_id is required")
		return
	}
	scheduledAt, err := time.Parse(time.RFC3339, body.ScheduledAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scheduled_at; expected RFC3339")
		return
	}

	booking, err := s.bookings.RequestBooking(r.Context(), account.ID, body.ServiceID, scheduledAt, body.Details)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	booking, err := s.bookings.GetBooking(r.Context(), id, account)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleAcceptBooking(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	booking, err := s.bookings.AcceptBooking(r.Context(), id, account.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleRejectBooking(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	booking, err := s.bookings.RejectBooking(r.Context(), id, account.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleCompleteBooking(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.bookings.CompleteBooking(r.Context(), id, account.ID)
	if errors.Is(err, database.ErrAlreadyCompleted) {
		// Repeated confirmation is a no-op, not a conflict.
		current, getErr := s.bookings.GetBooking(r.Context(), id, account)
		if getErr != nil {
			writeDomainError(w, getErr)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"booking": current, "info": "booking already completed"})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	messages, err := s.chats.GetHistory(r.Context(), id, account.ID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// Fetching the history marks the reader's side as read.
	if err := s.chats.MarkRead(r.Context(), id, account.ID); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", id).Msg("mark chat read")
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *HTTPServer) handleChatSend(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	message, err := s.chats.SendMessage(r.Context(), id, account.ID, body.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (s *HTTPServer) handleWallet(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}
	acc, entries, err := s.accounts.GetWallet(r.Context(), account.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"balance_cents": acc.BalanceCents,
		"entries":       entries,
	})
}

func (s *HTTPServer) handleNotifications(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "1"

	notifications, err := s.notifications.List(r.Context(), account.ID, unreadOnly)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	unread, err := s.notifications.UnreadCount(r.Context(), account.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

func (s *HTTPServer) handleNotificationRead(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.notifications.MarkRead(r.Context(), id, account.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleNotificationsReadAll(w http.ResponseWriter, r *http.Request) {
	account, ok := s.account(w, r)
	if !ok {
		return
	}
	if err := s.notifications.MarkAllRead(r.Context(), account.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleProviderStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.account(w, r); !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := s.accounts.ProviderStats(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handlePendingServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.catalog.ListPendingServices(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (s *HTTPServer) handleModerate(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.catalog.ModerateService(r.Context(), id, approve); err != nil {
			writeDomainError(w, err)
			return
		}
		outcome := models.ApprovalRejected
		if approve {
			outcome = models.ApprovalApproved
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "approval": outcome})
	}
}

func (s *HTTPServer) handleBanUser(w http.ResponseWriter, r *http.Request) {
	account, _ := AccountFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.accounts.SetBlacklisted(r.Context(), account.ID, id, true); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	account, _ := AccountFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		AmountCents int64 `json:"amount_cents"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.AmountCents == 0 {
		writeError(w, http.StatusBadRequest, "amount_cents is required")
		return
	}

	if err := s.accounts.AdjustBalance(r.Context(), account.ID, id, body.AmountCents); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	start, err := parseDateParam(r, "start", time.Now().AddDate(0, -1, 0))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDateParam(r, "end", time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, err := s.exporter.BookingReport(r.Context(), start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

func parseDateParam(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s; expected YYYY-MM-DD", name)
	}
	return t, nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}
