package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReservationTransitions(t *testing.T) {
	cases := []struct {
		from  ReservationStatus
		event ReservationEvent
		to    ReservationStatus
		ok    bool
	}{
		{ReservationPending, EventApprove, ReservationPayment, true},
		{ReservationPending, EventReject, ReservationRejected, true},
		{ReservationPending, EventCancel, ReservationCancelled, true},
		{ReservationPending, EventComplete, "", false},
		{ReservationPayment, EventComplete, ReservationCompleted, true},
		{ReservationPayment, EventConfirmPayment, ReservationCompleted, true},
		{ReservationPayment, EventApprove, "", false},
		{ReservationPayment, EventCancel, "", false},
		{ReservationCompleted, EventCancel, "", false},
		{ReservationCancelled, EventApprove, "", false},
		{ReservationRejected, EventCancel, "", false},
	}
	for _, tc := range cases {
		to, ok := tc.from.Next(tc.event)
		assert.Equal(t, tc.ok, ok, "%s + %s", tc.from, tc.event)
		if tc.ok {
			assert.Equal(t, tc.to, to, "%s + %s", tc.from, tc.event)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	assert.False(t, ReservationPending.Terminal())
	assert.False(t, ReservationPayment.Terminal())
	assert.True(t, ReservationCompleted.Terminal())
	assert.True(t, ReservationCancelled.Terminal())
	assert.True(t, ReservationRejected.Terminal())
}

func TestOccupies(t *testing.T) {
	assert.True(t, ReservationPending.Occupies())
	assert.True(t, ReservationPayment.Occupies())
	assert.True(t, ReservationCompleted.Occupies())
	assert.False(t, ReservationCancelled.Occupies())
	assert.False(t, ReservationRejected.Occupies())
}

func TestParseReservationStatus(t *testing.T) {
	st, err := ParseReservationStatus("Pending")
	assert.NoError(t, err)
	assert.Equal(t, ReservationPending, st)

	for _, raw := range []string{"pending", "PAYMENT", "done", ""} {
		_, err := ParseReservationStatus(raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}

func TestParsePaymentStatusAndMethod(t *testing.T) {
	st, err := ParsePaymentStatus("confirmed")
	assert.NoError(t, err)
	assert.Equal(t, PaymentConfirmed, st)
	_, err = ParsePaymentStatus("Confirmed")
	assert.Error(t, err)

	m, err := ParsePaymentMethod("Bank Transfer")
	assert.NoError(t, err)
	assert.Equal(t, MethodBankTransfer, m)
	for _, raw := range []string{"cash", "qris", "Venmo", ""} {
		_, err := ParsePaymentMethod(raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}
