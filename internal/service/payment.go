package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/onlyren/onlyren-api/internal/model"
	"github.com/onlyren/onlyren-api/internal/queue"
	"github.com/onlyren/onlyren-api/internal/repository"
)

// PaymentStore is the persistence surface for payments. Confirm moves
// the payment and its reservation in one transaction.
type PaymentStore interface {
	GetByID(ctx context.Context, id uint64) (model.Payment, error)
	GetByReservation(ctx context.Context, reservationID uint64) (model.Payment, error)
	GetDetail(ctx context.Context, id uint64) (repository.PaymentDetail, error)
	MarkPaid(ctx context.Context, id uint64, method model.PaymentMethod, notes *string, at time.Time) error
	Confirm(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
}

// CompletedPublisher sends a completion event to the broker. Publishing
// is best-effort; a nil publisher disables it.
type CompletedPublisher func(ctx context.Context, ev queue.ReservationCompletedEvent) error

// PaymentService implements the payment half of the booking lifecycle: a
// requester submits payment once the renter approves, the renter (or an
// admin) confirms receipt, and confirmation completes the reservation.
type PaymentService struct {
	payments     PaymentStore
	reservations ReservationStore
	publish      CompletedPublisher
}

// NewPaymentService wires a PaymentService over its stores. publish may
// be nil when no broker is configured.
func NewPaymentService(payments PaymentStore, reservations ReservationStore, publish CompletedPublisher) *PaymentService {
	return &PaymentService{payments: payments, reservations: reservations, publish: publish}
}

// Process records the requester's payment submission for a reservation.
// Paying a Pending reservation moves it to the awaiting-confirmation
// Payment state in the same transaction; paying an already-approved one
// leaves the status where it is. The payment itself must still be
// pending, so paying twice fails with ErrInvalidState.
func (s *PaymentService) Process(ctx context.Context, actor Actor, reservationID uint64, methodRaw string, notes *string) (model.Payment, error) {
	var zero model.Payment
	method, err := model.ParsePaymentMethod(methodRaw)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return zero, mapStoreErr(err)
	}
	if !actor.Admin() && res.UserID != actor.ID {
		return zero, fmt.Errorf("%w: reservation belongs to another user", ErrForbidden)
	}
	if res.Status != model.ReservationPending && res.Status != model.ReservationPayment {
		return zero, fmt.Errorf("%w: a %s reservation cannot be paid", ErrInvalidState, res.Status)
	}

	pay, err := s.payments.GetByReservation(ctx, reservationID)
	if err != nil {
		return zero, mapStoreErr(err)
	}
	if pay.Status != model.PaymentPending {
		return zero, fmt.Errorf("%w: payment was already submitted", ErrInvalidState)
	}

	now := time.Now().UTC()
	if err := s.payments.MarkPaid(ctx, pay.ID, method, notes, now); err != nil {
		return zero, mapStoreErr(err)
	}
	pay.Method = &method
	pay.Notes = notes
	pay.Status = model.PaymentPaid
	pay.PaymentDate = &now
	return pay, nil
}

// Confirm records the renter's acknowledgement of a paid booking: the
// payment moves to confirmed and the reservation completes, atomically.
// Confirming a payment that is not in the paid state fails with
// ErrInvalidState, so a double confirm is rejected rather than repeated.
func (s *PaymentService) Confirm(ctx context.Context, actor Actor, paymentID uint64) (model.Payment, error) {
	var zero model.Payment
	pay, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return zero, mapStoreErr(err)
	}
	if !actor.Admin() {
		owner, err := s.reservations.RoomOwner(ctx, pay.ReservationID)
		if err != nil {
			return zero, mapStoreErr(err)
		}
		if !actor.Renter() || owner != actor.ID {
			return zero, fmt.Errorf("%w: payment is not on your room", ErrForbidden)
		}
	}
	if pay.Status != model.PaymentPaid {
		return zero, fmt.Errorf("%w: payment is %s, expected paid", ErrInvalidState, pay.Status)
	}

	if err := s.payments.Confirm(ctx, pay.ID); err != nil {
		return zero, mapStoreErr(err)
	}
	pay.Status = model.PaymentConfirmed

	if s.publish != nil {
		s.publishCompleted(ctx, pay)
	}
	return pay, nil
}

// publishCompleted fires the completion event. Failures are logged and
// swallowed; the confirmation itself has already committed.
func (s *PaymentService) publishCompleted(ctx context.Context, pay model.Payment) {
	detail, err := s.reservations.GetDetail(ctx, pay.ReservationID)
	if err != nil {
		log.Printf("payment: load reservation %d for event failed: %v", pay.ReservationID, err)
		return
	}
	ev := queue.ReservationCompletedEvent{
		ReservationID: detail.ID,
		UserID:        detail.UserID,
		RoomID:        detail.RoomID,
		RoomName:      detail.RoomName,
		StartDate:     detail.StartDate,
		EndDate:       detail.EndDate,
		StartTime:     detail.StartTime,
		EndTime:       detail.EndTime,
		TotalAmount:   detail.TotalAmount,
		TransactionID: pay.TransactionID,
		CompletedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publish(ctx, ev); err != nil {
		log.Printf("payment: publish completion event for reservation %d failed: %v", detail.ID, err)
	}
}

// Get returns a payment with reservation context after checking the
// actor may view it: the requester, the renter owning the room, or an
// admin.
func (s *PaymentService) Get(ctx context.Context, actor Actor, paymentID uint64) (repository.PaymentDetail, error) {
	var zero repository.PaymentDetail
	detail, err := s.payments.GetDetail(ctx, paymentID)
	if err != nil {
		return zero, mapStoreErr(err)
	}
	if actor.Admin() || detail.UserID == actor.ID {
		return detail, nil
	}
	if actor.Renter() {
		owner, err := s.reservations.RoomOwner(ctx, detail.ReservationID)
		if err != nil {
			return zero, mapStoreErr(err)
		}
		if owner == actor.ID {
			return detail, nil
		}
	}
	return zero, fmt.Errorf("%w: payment belongs to another user", ErrForbidden)
}

// Receipt returns the detail for a settled payment. Receipts exist only
// once money moved: pending or cancelled payments have none.
func (s *PaymentService) Receipt(ctx context.Context, actor Actor, paymentID uint64) (repository.PaymentDetail, error) {
	detail, err := s.Get(ctx, actor, paymentID)
	if err != nil {
		return detail, err
	}
	if detail.Status != model.PaymentPaid && detail.Status != model.PaymentConfirmed {
		return repository.PaymentDetail{}, fmt.Errorf("%w: no receipt for a %s payment", ErrInvalidState, detail.Status)
	}
	return detail, nil
}

// Delete removes a cancelled payment record. Live payments are never
// deleted; they are part of an active booking's audit trail.
func (s *PaymentService) Delete(ctx context.Context, actor Actor, paymentID uint64) error {
	pay, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return mapStoreErr(err)
	}
	if !actor.Admin() {
		res, err := s.reservations.GetByID(ctx, pay.ReservationID)
		if err != nil {
			return mapStoreErr(err)
		}
		if res.UserID != actor.ID {
			return fmt.Errorf("%w: payment belongs to another user", ErrForbidden)
		}
	}
	if pay.Status != model.PaymentCancelled {
		return fmt.Errorf("%w: only cancelled payments can be deleted", ErrInvalidState)
	}
	return mapStoreErr(s.payments.Delete(ctx, paymentID))
}

// Methods lists the accepted payment channels for the client picker.
func (s *PaymentService) Methods() []model.PaymentMethod {
	return []model.PaymentMethod{model.MethodCash, model.MethodQRIS, model.MethodBankTransfer}
}
