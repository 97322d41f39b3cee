package google

import (
	"testing"
	"time"

	"joblet/internal/models"
)

func TestBookingRowValues(t *testing.T) {
	scheduledAt := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	createdAt := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	updatedAt := time.Date(2026, 3, 11, 11, 0, 0, 0, time.UTC)

	booking := &models.Booking{
		ID:          123,
		Reference:   "ref-abc",
		ServiceName: "Pipe repair",
		CustomerID:  456,
		ProviderID:  789,
		PriceCents:  6050,
		ScheduledAt: scheduledAt,
		Status:      models.StatusInProgress,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}

	values := bookingRowValues(booking)

	expected := []interface{}{
		int64(123),
		"ref-abc",
		"Pipe repair",
		int64(456),
		int64(789),
		"60.50",
		"2026-03-15 14:30",
		models.StatusInProgress,
		"2026-03-10 10:00:00",
		"2026-03-11 11:00:00",
	}

	if len(values) != len(expected) {
		t.Fatalf("expected %d columns, got %d", len(expected), len(values))
	}
	for i := range expected {
		if values[i] != expected[i] {
			t.Errorf("column %d: expected %v, got %v", i, expected[i], values[i])
		}
	}
}

func TestRowCache(t *testing.T) {
	s := &SheetsService{rowCache: make(map[int64]int)}

	if _, ok := s.getCachedRow(1); ok {
		t.Fatalf("expected empty cache")
	}

	s.setCachedRow(1, 5)
	row, ok := s.getCachedRow(1)
	if !ok || row != 5 {
		t.Fatalf("expected cached row 5, got %d (ok=%v)", row, ok)
	}

	s.ClearCache()
	if _, ok := s.getCachedRow(1); ok {
		t.Fatalf("expected cache cleared")
	}
}
