package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlyren/onlyren-api/internal/model"
)

var (
	requester = Actor{ID: 10, Role: model.RoleUser}
	landlord  = Actor{ID: 20, Role: model.RoleRenter}
	admin     = Actor{ID: 1, Role: model.RoleAdmin}
	stranger  = Actor{ID: 99, Role: model.RoleUser}
)

func newTestReservationService() (*ReservationService, *memStore) {
	m := newMemStore()
	return NewReservationService(fakeRooms{m}, fakeReservations{m}), m
}

func studioRoom(m *memStore) model.Room {
	return m.addRoom(model.Room{
		OwnerID:      landlord.ID,
		Name:         "Studio A",
		Type:         "Studio",
		Location:     "Jakarta",
		Address:      "Jl. Sudirman 1",
		Capacity:     10,
		PricePerHour: 50000,
		IsAvailable:  true,
	})
}

func booking(roomID uint64) BookingInput {
	return BookingInput{
		RoomID:    roomID,
		StartDate: "2030-09-01",
		EndDate:   "2030-09-01",
		StartTime: "09:00",
		EndTime:   "12:00",
		Guests:    4,
	}
}

func TestCreateReservation(t *testing.T) {
	svc, m := newTestReservationService()
	room := studioRoom(m)

	res, pay, err := svc.Create(context.Background(), requester, booking(room.ID))
	require.NoError(t, err)

	assert.Equal(t, model.ReservationPending, res.Status)
	assert.Equal(t, 3, res.Duration)
	assert.Equal(t, int64(150000), res.TotalAmount)
	assert.Equal(t, requester.ID, res.UserID)

	assert.Equal(t, model.PaymentPending, pay.Status)
	assert.Equal(t, res.TotalAmount, pay.Amount)
	assert.Equal(t, res.ID, pay.ReservationID)
	assert.True(t, strings.HasPrefix(pay.TransactionID, "txn_"))
}

func TestCreateReservationFloorsPartialHours(t *testing.T) {
	svc, m := newTestReservationService()
	room := studioRoom(m)

	in := booking(room.ID)
	in.StartTime = "09:00"
	in.EndTime = "11:30"
	res, _, err := svc.Create(context.Background(), requester, in)
	require.NoError(t, err)

	// 2.5 hours bills as 2 whole hours.
	assert.Equal(t, 2, res.Duration)
	assert.Equal(t, int64(100000), res.TotalAmount)
}

func TestCreateReservationValidation(t *testing.T) {
	svc, m := newTestReservationService()
	room := studioRoom(m)

	cases := []struct {
		name   string
		mutate func(*BookingInput)
	}{
		{"bad start date", func(in *BookingInput) { in.StartDate = "01-09-2030" }},
		{"start date in the past", func(in *BookingInput) {
			in.StartDate = "2020-01-01"
			in.EndDate = "2020-01-01"
		}},
		{"end date before start", func(in *BookingInput) { in.EndDate = "2030-08-31" }},
		{"bad time format", func(in *BookingInput) { in.StartTime = "9am" }},
		{"end time not after start", func(in *BookingInput) { in.EndTime = "09:00" }},
		{"window under one hour", func(in *BookingInput) { in.EndTime = "09:45" }},
		{"zero guests", func(in *BookingInput) { in.Guests = 0 }},
		{"guests over capacity", func(in *BookingInput) { in.Guests = 11 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := booking(room.ID)
			tc.mutate(&in)
			_, _, err := svc.Create(context.Background(), requester, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateReservationRoomChecks(t *testing.T) {
	svc, m := newTestReservationService()

	_, _, err := svc.Create(context.Background(), requester, booking(404))
	assert.ErrorIs(t, err, ErrNotFound)

	closed := m.addRoom(model.Room{OwnerID: landlord.ID, Capacity: 5, PricePerHour: 1000, IsAvailable: false})
	_, _, err = svc.Create(context.Background(), requester, booking(closed.ID))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateReservationOverlap(t *testing.T) {
	svc, m := newTestReservationService()
	room := studioRoom(m)

	_, _, err := svc.Create(context.Background(), requester, booking(room.ID))
	require.NoError(t, err)

	// Same window collides.
	_, _, err = svc.Create(context.Background(), stranger, booking(room.ID))
	assert.ErrorIs(t, err, ErrConflict)

	// Back-to-back is fine: the first ends at 12:00, this starts at 12:00.
	next := booking(room.ID)
	next.StartTime = "12:00"
	next.EndTime = "14:00"
	_, _, err = svc.Create(context.Background(), stranger, next)
	assert.NoError(t, err)

	// A cancelled reservation frees the slot.
	m2 := newMemStore()
	svc2 := NewReservationService(fakeRooms{m2}, fakeReservations{m2})
	room2 := studioRoom(m2)
	held, _, err := svc2.Create(context.Background(), requester, booking(room2.ID))
	require.NoError(t, err)
	_, err = svc2.Transition(context.Background(), requester, held.ID, model.EventCancel)
	require.NoError(t, err)
	_, _, err = svc2.Create(context.Background(), stranger, booking(room2.ID))
	assert.NoError(t, err)
}

func TestTransitionLifecycle(t *testing.T) {
	svc, m := newTestReservationService()
	room := studioRoom(m)
	ctx := context.Background()

	res, _, err := svc.Create(ctx, requester, booking(room.ID))
	require.NoError(t, err)

	// The room owner approves; the reservation awaits payment.
	res, err = svc.Transition(ctx, landlord, res.ID, model.EventApprove)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPayment, res.Status)

	// The owner closes the booking (cash on site).
	res, err = svc.Transition(ctx, landlord, res.ID, model.EventComplete)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCompleted, res.Status)

	// Completed is terminal.
	_, err = svc.Transition(ctx, landlord, res.ID, model.EventCancel)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestTransitionRejectCancelsPayment(t *testing.T) {
	svc, m := newTestReservationService()
	room := studioRoom(m)
	ctx := context.Background()

	res, pay, err := svc.Create(ctx, requester, booking(room.ID))
	require.NoError(t, err)

	res, err = svc.Transition(ctx, landlord, res.ID, model.EventReject)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationRejected, res.Status)
	assert.Equal(t, model.PaymentCancelled, m.payments[pay.ID].Status)
}

func TestTransitionAuthorization(t *testing.T) {
	svc, m := newTestReservationService()
	room := studioRoom(m)
	otherLandlord := Actor{ID: 77, Role: model.RoleRenter}
	ctx := context.Background()

	res, _, err := svc.Create(ctx, requester, booking(room.ID))
	require.NoError(t, err)

	// Strangers cannot cancel someone else's booking.
	_, err = svc.Transition(ctx, stranger, res.ID, model.EventCancel)
	assert.ErrorIs(t, err, ErrForbidden)

	// A renter who does not own the room cannot approve.
	_, err = svc.Transition(ctx, otherLandlord, res.ID, model.EventApprove)
	assert.ErrorIs(t, err, ErrForbidden)

	// The requester cannot approve their own booking.
	_, err = svc.Transition(ctx, requester, res.ID, model.EventApprove)
	assert.ErrorIs(t, err, ErrForbidden)

	// Admins can.
	out, err := svc.Transition(ctx, admin, res.ID, model.EventApprove)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPayment, out.Status)
}

func TestUpdateReservation(t *testing.T) {
	svc, m := newTestReservationService()
	room := studioRoom(m)
	ctx := context.Background()

	res, pay, err := svc.Create(ctx, requester, booking(room.ID))
	require.NoError(t, err)

	in := booking(room.ID)
	in.StartTime = "13:00"
	in.EndTime = "17:00"
	updated, err := svc.Update(ctx, requester, res.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Duration)
	assert.Equal(t, int64(200000), updated.TotalAmount)
	assert.Equal(t, updated.TotalAmount, m.payments[pay.ID].Amount)

	// Only the requester may reschedule.
	_, err = svc.Update(ctx, stranger, res.ID, in)
	assert.ErrorIs(t, err, ErrForbidden)

	// Approved reservations cannot be rescheduled.
	_, err = svc.Transition(ctx, landlord, res.ID, model.EventApprove)
	require.NoError(t, err)
	_, err = svc.Update(ctx, requester, res.ID, in)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDeleteReservation(t *testing.T) {
	svc, m := newTestReservationService()
	room := studioRoom(m)
	ctx := context.Background()

	res, _, err := svc.Create(ctx, requester, booking(room.ID))
	require.NoError(t, err)

	// Live bookings cannot be deleted.
	err = svc.Delete(ctx, requester, res.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Transition(ctx, requester, res.ID, model.EventCancel)
	require.NoError(t, err)

	err = svc.Delete(ctx, stranger, res.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(ctx, requester, res.ID))
	assert.Empty(t, m.reservations)
	assert.Empty(t, m.payments)
}

func TestGetReservationAuthorization(t *testing.T) {
	svc, m := newTestReservationService()
	room := studioRoom(m)
	ctx := context.Background()

	res, _, err := svc.Create(ctx, requester, booking(room.ID))
	require.NoError(t, err)

	for _, actor := range []Actor{requester, landlord, admin} {
		detail, err := svc.Get(ctx, actor, res.ID)
		require.NoError(t, err)
		assert.Equal(t, room.Name, detail.RoomName)
		require.NotNil(t, detail.Payment)
		assert.Equal(t, string(model.PaymentPending), detail.Payment.Status)
	}

	_, err = svc.Get(ctx, stranger, res.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(ctx, requester, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckAvailability(t *testing.T) {
	svc, m := newTestReservationService()
	room := studioRoom(m)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, requester, booking(room.ID))
	require.NoError(t, err)

	free, err := svc.CheckAvailability(ctx, room.ID, "2030-09-01", "2030-09-01", "10:00", "11:00")
	require.NoError(t, err)
	assert.False(t, free)

	free, err = svc.CheckAvailability(ctx, room.ID, "2030-09-02", "2030-09-02", "10:00", "11:00")
	require.NoError(t, err)
	assert.True(t, free)

	_, err = svc.CheckAvailability(ctx, room.ID, "bad", "2030-09-02", "10:00", "11:00")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CheckAvailability(ctx, 404, "2030-09-02", "2030-09-02", "10:00", "11:00")
	assert.ErrorIs(t, err, ErrNotFound)
}
