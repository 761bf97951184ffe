package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onlyren/onlyren-api/internal/model"
	"github.com/onlyren/onlyren-api/internal/repository"
)

// RoomStore is the slice of room persistence the reservation rules need.
type RoomStore interface {
	GetByID(ctx context.Context, id uint64) (model.Room, error)
}

// ReservationStore is the persistence surface for reservations. The
// MySQL implementation runs each multi-row method in one transaction and
// re-checks the overlap predicate under a room row lock.
type ReservationStore interface {
	CreateWithPayment(ctx context.Context, res *model.Reservation, pay *model.Payment) error
	GetByID(ctx context.Context, id uint64) (model.Reservation, error)
	GetDetail(ctx context.Context, id uint64) (*repository.ReservationDetail, error)
	HasConflict(ctx context.Context, roomID uint64, startDate, endDate, startTime, endTime string, excludeID uint64) (bool, error)
	UpdatePending(ctx context.Context, res *model.Reservation) error
	UpdateStatus(ctx context.Context, id uint64, to model.ReservationStatus, cascadePayment *model.PaymentStatus) error
	Delete(ctx context.Context, id uint64) error
	RoomOwner(ctx context.Context, reservationID uint64) (uint64, error)
}

// ReservationService enforces the booking rules: window validation,
// capacity and availability checks, derived pricing, the status state
// machine and per-resource authorization.
type ReservationService struct {
	rooms        RoomStore
	reservations ReservationStore
}

// NewReservationService wires a ReservationService over its stores.
func NewReservationService(rooms RoomStore, reservations ReservationStore) *ReservationService {
	return &ReservationService{rooms: rooms, reservations: reservations}
}

// BookingInput carries the client-supplied fields of a booking request.
type BookingInput struct {
	RoomID    uint64
	StartDate string
	EndDate   string
	StartTime string
	EndTime   string
	Guests    int
	Notes     *string
}

// Window is the validated form of a booking window plus its derived
// duration in whole hours.
type Window struct {
	StartDate string
	EndDate   string
	StartTime string
	EndTime   string
	Duration  int
}

// ValidateWindow parses and checks a booking window. The daily time span
// must cover at least one whole hour; partial trailing hours are not
// billed and not kept, so the duration is the floor of the span.
func ValidateWindow(startDate, endDate, startTime, endTime string) (Window, error) {
	sd, err := time.Parse(model.DateLayout, startDate)
	if err != nil {
		return Window{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrValidation)
	}
	ed, err := time.Parse(model.DateLayout, endDate)
	if err != nil {
		return Window{}, fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrValidation)
	}
	if ed.Before(sd) {
		return Window{}, fmt.Errorf("%w: end_date is before start_date", ErrValidation)
	}
	st, err := time.Parse(model.TimeLayout, startTime)
	if err != nil {
		return Window{}, fmt.Errorf("%w: start_time must be HH:MM", ErrValidation)
	}
	et, err := time.Parse(model.TimeLayout, endTime)
	if err != nil {
		return Window{}, fmt.Errorf("%w: end_time must be HH:MM", ErrValidation)
	}
	if !et.After(st) {
		return Window{}, fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	}
	dur := int(et.Sub(st).Hours())
	if dur < 1 {
		return Window{}, fmt.Errorf("%w: booking window is shorter than one hour", ErrValidation)
	}
	return Window{
		StartDate: sd.Format(model.DateLayout),
		EndDate:   ed.Format(model.DateLayout),
		StartTime: st.Format(model.TimeLayout),
		EndTime:   et.Format(model.TimeLayout),
		Duration:  dur,
	}, nil
}

// Create validates a booking request and creates the reservation together
// with its pending payment. The created reservation starts in Pending;
// the room stays bookable by others only for non-overlapping windows.
func (s *ReservationService) Create(ctx context.Context, actor Actor, in BookingInput) (model.Reservation, model.Payment, error) {
	var zeroRes model.Reservation
	var zeroPay model.Payment

	w, err := ValidateWindow(in.StartDate, in.EndDate, in.StartTime, in.EndTime)
	if err != nil {
		return zeroRes, zeroPay, err
	}
	// ISO dates compare lexicographically.
	if w.StartDate < time.Now().Format(model.DateLayout) {
		return zeroRes, zeroPay, fmt.Errorf("%w: start_date is in the past", ErrValidation)
	}
	if in.Guests < 1 {
		return zeroRes, zeroPay, fmt.Errorf("%w: guests must be at least 1", ErrValidation)
	}

	room, err := s.rooms.GetByID(ctx, in.RoomID)
	if err != nil {
		return zeroRes, zeroPay, mapStoreErr(err)
	}
	if !room.IsAvailable {
		return zeroRes, zeroPay, fmt.Errorf("%w: room is not accepting bookings", ErrConflict)
	}
	if in.Guests > room.Capacity {
		return zeroRes, zeroPay, fmt.Errorf("%w: guests exceed room capacity of %d", ErrValidation, room.Capacity)
	}

	// Fast pre-check; the store repeats it under a row lock inside the
	// insert transaction, so a race here still fails with ErrConflict.
	conflict, err := s.reservations.HasConflict(ctx, in.RoomID, w.StartDate, w.EndDate, w.StartTime, w.EndTime, 0)
	if err != nil {
		return zeroRes, zeroPay, err
	}
	if conflict {
		return zeroRes, zeroPay, fmt.Errorf("%w: room is already reserved for this window", ErrConflict)
	}

	res := model.Reservation{
		UserID:      actor.ID,
		RoomID:      in.RoomID,
		StartDate:   w.StartDate,
		EndDate:     w.EndDate,
		StartTime:   w.StartTime,
		EndTime:     w.EndTime,
		Duration:    w.Duration,
		Guests:      in.Guests,
		TotalAmount: room.PricePerHour * int64(w.Duration),
		Notes:       in.Notes,
		Status:      model.ReservationPending,
	}
	pay := model.Payment{
		TransactionID: "txn_" + uuid.NewString(),
		Amount:        res.TotalAmount,
		Status:        model.PaymentPending,
	}
	if err := s.reservations.CreateWithPayment(ctx, &res, &pay); err != nil {
		if err == repository.ErrConflict {
			return zeroRes, zeroPay, fmt.Errorf("%w: room is already reserved for this window", ErrConflict)
		}
		return zeroRes, zeroPay, mapStoreErr(err)
	}
	return res, pay, nil
}

// canRead reports whether the actor may view a reservation: its
// requester, the renter owning the room, or an admin.
func (s *ReservationService) canRead(ctx context.Context, actor Actor, res model.Reservation) (bool, error) {
	if actor.Admin() || res.UserID == actor.ID {
		return true, nil
	}
	if actor.Renter() {
		owner, err := s.reservations.RoomOwner(ctx, res.ID)
		if err != nil {
			return false, mapStoreErr(err)
		}
		return owner == actor.ID, nil
	}
	return false, nil
}

// Get returns a reservation with room and payment context after an
// authorization check.
func (s *ReservationService) Get(ctx context.Context, actor Actor, id uint64) (*repository.ReservationDetail, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	ok, err := s.canRead(ctx, actor, res)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: reservation belongs to another user", ErrForbidden)
	}
	detail, err := s.reservations.GetDetail(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return detail, nil
}

// Transition applies one state-machine event to a reservation. Who may
// fire which event:
//
//	cancel           requester or admin
//	approve/reject   renter owning the room, or admin
//	complete         renter owning the room, or admin
//
// Reject and cancel also cancel the sibling payment in the same
// transaction. Illegal (state, event) pairs fail with ErrInvalidState.
func (s *ReservationService) Transition(ctx context.Context, actor Actor, id uint64, ev model.ReservationEvent) (model.Reservation, error) {
	var zero model.Reservation
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return zero, mapStoreErr(err)
	}

	switch ev {
	case model.EventCancel:
		if !actor.Admin() && res.UserID != actor.ID {
			return zero, fmt.Errorf("%w: only the requester may cancel", ErrForbidden)
		}
	case model.EventApprove, model.EventReject, model.EventComplete:
		if !actor.Admin() {
			owner, err := s.reservations.RoomOwner(ctx, id)
			if err != nil {
				return zero, mapStoreErr(err)
			}
			if !actor.Renter() || owner != actor.ID {
				return zero, fmt.Errorf("%w: reservation is not on your room", ErrForbidden)
			}
		}
	default:
		return zero, fmt.Errorf("%w: unknown event %q", ErrValidation, ev)
	}

	next, ok := res.Status.Next(ev)
	if !ok {
		return zero, fmt.Errorf("%w: cannot %s a %s reservation", ErrInvalidState, ev, res.Status)
	}

	var cascade *model.PaymentStatus
	if ev == model.EventReject || ev == model.EventCancel {
		c := model.PaymentCancelled
		cascade = &c
	}
	if err := s.reservations.UpdateStatus(ctx, id, next, cascade); err != nil {
		return zero, mapStoreErr(err)
	}
	res.Status = next
	return res, nil
}

// Update reschedules a pending reservation. Only the requester (or an
// admin) may do it, and only while the reservation is still Pending.
// Duration and amounts are recomputed and the payment amount synced.
func (s *ReservationService) Update(ctx context.Context, actor Actor, id uint64, in BookingInput) (model.Reservation, error) {
	var zero model.Reservation
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return zero, mapStoreErr(err)
	}
	if !actor.Admin() && res.UserID != actor.ID {
		return zero, fmt.Errorf("%w: reservation belongs to another user", ErrForbidden)
	}
	if res.Status != model.ReservationPending {
		return zero, fmt.Errorf("%w: only pending reservations can be rescheduled", ErrInvalidState)
	}

	w, err := ValidateWindow(in.StartDate, in.EndDate, in.StartTime, in.EndTime)
	if err != nil {
		return zero, err
	}
	if w.StartDate < time.Now().Format(model.DateLayout) {
		return zero, fmt.Errorf("%w: start_date is in the past", ErrValidation)
	}
	if in.Guests < 1 {
		return zero, fmt.Errorf("%w: guests must be at least 1", ErrValidation)
	}
	room, err := s.rooms.GetByID(ctx, res.RoomID)
	if err != nil {
		return zero, mapStoreErr(err)
	}
	if in.Guests > room.Capacity {
		return zero, fmt.Errorf("%w: guests exceed room capacity of %d", ErrValidation, room.Capacity)
	}

	res.StartDate = w.StartDate
	res.EndDate = w.EndDate
	res.StartTime = w.StartTime
	res.EndTime = w.EndTime
	res.Duration = w.Duration
	res.Guests = in.Guests
	res.TotalAmount = room.PricePerHour * int64(w.Duration)
	res.Notes = in.Notes
	if err := s.reservations.UpdatePending(ctx, &res); err != nil {
		if err == repository.ErrConflict {
			return zero, fmt.Errorf("%w: room is already reserved for this window", ErrConflict)
		}
		return zero, mapStoreErr(err)
	}
	return res, nil
}

// Delete removes a reservation record. Only cancelled or rejected
// reservations can be deleted; live bookings must go through the state
// machine first.
func (s *ReservationService) Delete(ctx context.Context, actor Actor, id uint64) error {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return mapStoreErr(err)
	}
	if !actor.Admin() && res.UserID != actor.ID {
		return fmt.Errorf("%w: reservation belongs to another user", ErrForbidden)
	}
	if res.Status.Occupies() {
		return fmt.Errorf("%w: only cancelled or rejected reservations can be deleted", ErrInvalidState)
	}
	return mapStoreErr(s.reservations.Delete(ctx, id))
}

// CheckAvailability reports whether a room is free for the given window.
// Used by the public availability endpoint; validates the window first so
// malformed input is a 422 rather than a silent "available".
func (s *ReservationService) CheckAvailability(ctx context.Context, roomID uint64, startDate, endDate, startTime, endTime string) (bool, error) {
	w, err := ValidateWindow(startDate, endDate, startTime, endTime)
	if err != nil {
		return false, err
	}
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return false, mapStoreErr(err)
	}
	conflict, err := s.reservations.HasConflict(ctx, roomID, w.StartDate, w.EndDate, w.StartTime, w.EndTime, 0)
	if err != nil {
		return false, err
	}
	return !conflict, nil
}
