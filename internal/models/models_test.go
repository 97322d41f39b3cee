package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingParty(t *testing.T) {
	b := &Booking{CustomerID: 1, ProviderID: 2}

	assert.True(t, b.Party(1))
	assert.True(t, b.Party(2))
	assert.False(t, b.Party(3))

	assert.Equal(t, int64(2), b.OtherParty(1))
	assert.Equal(t, int64(1), b.OtherParty(2))
}

func TestServiceBookable(t *testing.T) {
	tests := []struct {
		name     string
		service  Service
		bookable bool
	}{
		{"active approved", Service{IsActive: true, Approval: ApprovalApproved}, true},
		{"inactive", Service{IsActive: false, Approval: ApprovalApproved}, false},
		{"pending moderation", Service{IsActive: true, Approval: ApprovalPending}, false},
		{"rejected", Service{IsActive: true, Approval: ApprovalRejected}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.bookable, tt.service.Bookable())
		})
	}
}

func TestTerminalStatus(t *testing.T) {
	assert.True(t, TerminalStatus(StatusCompleted))
	assert.True(t, TerminalStatus(StatusCancelled))
	assert.False(t, TerminalStatus(StatusPending))
	assert.False(t, TerminalStatus(StatusInProgress))
}
