package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlyren/onlyren-api/internal/model"
	"github.com/onlyren/onlyren-api/internal/queue"
)

type capturedEvents struct {
	events []queue.ReservationCompletedEvent
}

func (ce *capturedEvents) publish(ctx context.Context, ev queue.ReservationCompletedEvent) error {
	ce.events = append(ce.events, ev)
	return nil
}

func newTestPaymentService(m *memStore, pub CompletedPublisher) *PaymentService {
	return NewPaymentService(fakePayments{m}, fakeReservations{m}, pub)
}

// approvedBooking seeds a room plus a reservation in the
// awaiting-payment state with a pending payment.
func approvedBooking(m *memStore) (model.Reservation, model.Payment) {
	room := studioRoom(m)
	return m.seed(model.Reservation{
		UserID:      requester.ID,
		RoomID:      room.ID,
		StartDate:   "2030-09-01",
		EndDate:     "2030-09-01",
		StartTime:   "09:00",
		EndTime:     "12:00",
		Duration:    3,
		Guests:      4,
		TotalAmount: 150000,
		Status:      model.ReservationPayment,
	}, model.PaymentPending)
}

func TestProcessPayment(t *testing.T) {
	m := newMemStore()
	svc := newTestPaymentService(m, nil)
	res, _ := approvedBooking(m)
	ctx := context.Background()

	pay, err := svc.Process(ctx, requester, res.ID, "QRIS", nil)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, pay.Status)
	require.NotNil(t, pay.Method)
	assert.Equal(t, model.MethodQRIS, *pay.Method)
	assert.NotNil(t, pay.PaymentDate)

	// Paying twice is rejected.
	_, err = svc.Process(ctx, requester, res.ID, "QRIS", nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestProcessPaymentGuards(t *testing.T) {
	m := newMemStore()
	svc := newTestPaymentService(m, nil)
	ctx := context.Background()

	res, _ := approvedBooking(m)

	_, err := svc.Process(ctx, requester, res.ID, "Venmo", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Process(ctx, stranger, res.ID, "Cash", nil)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Process(ctx, requester, 404, "Cash", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	// A cancelled reservation cannot be paid.
	room := m.rooms[res.RoomID]
	cancelled, _ := m.seed(model.Reservation{
		UserID: requester.ID, RoomID: room.ID,
		StartDate: "2030-10-01", EndDate: "2030-10-01",
		StartTime: "09:00", EndTime: "10:00",
		Duration: 1, Guests: 1, TotalAmount: 50000,
		Status: model.ReservationCancelled,
	}, model.PaymentPending)
	_, err = svc.Process(ctx, requester, cancelled.ID, "Cash", nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestProcessPaymentOnPendingReservation(t *testing.T) {
	m := newMemStore()
	svc := newTestPaymentService(m, nil)
	ctx := context.Background()

	room := studioRoom(m)
	res, _ := m.seed(model.Reservation{
		UserID: requester.ID, RoomID: room.ID,
		StartDate: "2030-10-01", EndDate: "2030-10-01",
		StartTime: "09:00", EndTime: "11:00",
		Duration: 2, Guests: 2, TotalAmount: 100000,
		Status: model.ReservationPending,
	}, model.PaymentPending)

	// Paying up front moves the booking to the awaiting-confirmation
	// state without waiting for the owner's approval.
	pay, err := svc.Process(ctx, requester, res.ID, "QRIS", nil)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, pay.Status)
	assert.Equal(t, model.ReservationPayment, m.reservations[res.ID].Status)
}

func TestConfirmPayment(t *testing.T) {
	m := newMemStore()
	captured := &capturedEvents{}
	svc := newTestPaymentService(m, captured.publish)
	ctx := context.Background()

	res, _ := approvedBooking(m)
	paid, err := svc.Process(ctx, requester, res.ID, "Bank Transfer", nil)
	require.NoError(t, err)

	out, err := svc.Confirm(ctx, landlord, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentConfirmed, out.Status)
	assert.Equal(t, model.ReservationCompleted, m.reservations[res.ID].Status)

	require.Len(t, captured.events, 1)
	ev := captured.events[0]
	assert.Equal(t, res.ID, ev.ReservationID)
	assert.Equal(t, requester.ID, ev.UserID)
	assert.Equal(t, "Studio A", ev.RoomName)
	assert.Equal(t, int64(150000), ev.TotalAmount)

	// Confirming again is rejected, not repeated.
	_, err = svc.Confirm(ctx, landlord, paid.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	require.Len(t, captured.events, 1)
}

func TestConfirmPaymentGuards(t *testing.T) {
	m := newMemStore()
	svc := newTestPaymentService(m, nil)
	ctx := context.Background()

	res, pay := approvedBooking(m)

	// Pending payments cannot be confirmed.
	_, err := svc.Confirm(ctx, landlord, pay.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	paid, err := svc.Process(ctx, requester, res.ID, "Cash", nil)
	require.NoError(t, err)

	// The requester cannot confirm their own payment.
	_, err = svc.Confirm(ctx, requester, paid.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// Neither can a renter who does not own the room.
	otherLandlord := Actor{ID: 77, Role: model.RoleRenter}
	_, err = svc.Confirm(ctx, otherLandlord, paid.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// Admins can.
	out, err := svc.Confirm(ctx, admin, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentConfirmed, out.Status)
}

func TestReceipt(t *testing.T) {
	m := newMemStore()
	svc := newTestPaymentService(m, nil)
	ctx := context.Background()

	res, pay := approvedBooking(m)

	// No receipt before money moved.
	_, err := svc.Receipt(ctx, requester, pay.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	paid, err := svc.Process(ctx, requester, res.ID, "QRIS", nil)
	require.NoError(t, err)

	detail, err := svc.Receipt(ctx, requester, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, "Studio A", detail.RoomName)
	assert.Equal(t, model.PaymentPaid, detail.Status)

	// Strangers cannot read receipts.
	_, err = svc.Receipt(ctx, stranger, paid.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// The room owner can.
	_, err = svc.Receipt(ctx, landlord, paid.ID)
	assert.NoError(t, err)
}

func TestDeletePayment(t *testing.T) {
	m := newMemStore()
	svc := newTestPaymentService(m, nil)
	ctx := context.Background()

	_, pay := approvedBooking(m)

	// Live payments cannot be deleted.
	err := svc.Delete(ctx, requester, pay.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	p := m.payments[pay.ID]
	p.Status = model.PaymentCancelled
	m.payments[pay.ID] = p

	err = svc.Delete(ctx, stranger, pay.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(ctx, requester, pay.ID))
	assert.NotContains(t, m.payments, pay.ID)
}

func TestPaymentMethods(t *testing.T) {
	svc := newTestPaymentService(newMemStore(), nil)
	assert.Equal(t, []model.PaymentMethod{
		model.MethodCash, model.MethodQRIS, model.MethodBankTransfer,
	}, svc.Methods())
}
