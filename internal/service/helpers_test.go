package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/onlyren/onlyren-api/internal/model"
	"github.com/onlyren/onlyren-api/internal/repository"
)

// memStore holds in-memory tables shared by the fake stores below. The
// fakes mirror the MySQL behavior the services rely on: missing rows
// surface as sql.ErrNoRows, the overlap predicate compares dates
// inclusively and times strictly, and CreateWithPayment re-checks the
// predicate before inserting.
type memStore struct {
	rooms        map[uint64]model.Room
	reservations map[uint64]model.Reservation
	payments     map[uint64]model.Payment // keyed by payment ID
	nextID       uint64
}

func newMemStore() *memStore {
	return &memStore{
		rooms:        make(map[uint64]model.Room),
		reservations: make(map[uint64]model.Reservation),
		payments:     make(map[uint64]model.Payment),
		nextID:       1,
	}
}

func (m *memStore) id() uint64 {
	v := m.nextID
	m.nextID++
	return v
}

func (m *memStore) addRoom(rm model.Room) model.Room {
	if rm.ID == 0 {
		rm.ID = m.id()
	}
	m.rooms[rm.ID] = rm
	return rm
}

// seed inserts a reservation and its payment directly, bypassing checks.
func (m *memStore) seed(res model.Reservation, payStatus model.PaymentStatus) (model.Reservation, model.Payment) {
	res.ID = m.id()
	m.reservations[res.ID] = res
	pay := model.Payment{
		ID:            m.id(),
		ReservationID: res.ID,
		TransactionID: "txn_test",
		Amount:        res.TotalAmount,
		Status:        payStatus,
	}
	m.payments[pay.ID] = pay
	return res, pay
}

func (m *memStore) overlaps(roomID uint64, startDate, endDate, startTime, endTime string, excludeID uint64) bool {
	for _, r := range m.reservations {
		if r.RoomID != roomID || r.ID == excludeID || !r.Status.Occupies() {
			continue
		}
		if r.StartDate <= endDate && r.EndDate >= startDate &&
			r.StartTime < endTime && r.EndTime > startTime {
			return true
		}
	}
	return false
}

func (m *memStore) getReservation(id uint64) (model.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return model.Reservation{}, sql.ErrNoRows
	}
	return r, nil
}

func (m *memStore) paymentOf(reservationID uint64) (model.Payment, bool) {
	for _, p := range m.payments {
		if p.ReservationID == reservationID {
			return p, true
		}
	}
	return model.Payment{}, false
}

// fakeRooms implements RoomStore.
type fakeRooms struct{ m *memStore }

func (f fakeRooms) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	rm, ok := f.m.rooms[id]
	if !ok {
		return model.Room{}, sql.ErrNoRows
	}
	return rm, nil
}

// fakeReservations implements ReservationStore.
type fakeReservations struct{ m *memStore }

func (f fakeReservations) HasConflict(ctx context.Context, roomID uint64, startDate, endDate, startTime, endTime string, excludeID uint64) (bool, error) {
	return f.m.overlaps(roomID, startDate, endDate, startTime, endTime, excludeID), nil
}

func (f fakeReservations) CreateWithPayment(ctx context.Context, res *model.Reservation, pay *model.Payment) error {
	if _, ok := f.m.rooms[res.RoomID]; !ok {
		return sql.ErrNoRows
	}
	if f.m.overlaps(res.RoomID, res.StartDate, res.EndDate, res.StartTime, res.EndTime, 0) {
		return repository.ErrConflict
	}
	res.ID = f.m.id()
	f.m.reservations[res.ID] = *res
	pay.ID = f.m.id()
	pay.ReservationID = res.ID
	f.m.payments[pay.ID] = *pay
	return nil
}

func (f fakeReservations) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	return f.m.getReservation(id)
}

func (f fakeReservations) GetDetail(ctx context.Context, id uint64) (*repository.ReservationDetail, error) {
	r, err := f.m.getReservation(id)
	if err != nil {
		return nil, err
	}
	rm := f.m.rooms[r.RoomID]
	d := &repository.ReservationDetail{
		ID: r.ID, UserID: r.UserID, RoomID: r.RoomID,
		RoomName: rm.Name, RoomAddress: rm.Address, RoomImages: rm.Images,
		StartDate: r.StartDate, EndDate: r.EndDate,
		StartTime: r.StartTime, EndTime: r.EndTime,
		Duration: r.Duration, Guests: r.Guests, TotalAmount: r.TotalAmount,
		Notes: r.Notes, Status: string(r.Status), CreatedAt: r.CreatedAt,
	}
	if p, ok := f.m.paymentOf(r.ID); ok {
		var method *string
		if p.Method != nil {
			s := string(*p.Method)
			method = &s
		}
		d.Payment = &repository.PaymentSummary{
			ID: p.ID, TransactionID: p.TransactionID, Amount: p.Amount,
			Method: method, Status: string(p.Status), PaymentDate: p.PaymentDate,
		}
	}
	return d, nil
}

func (f fakeReservations) UpdatePending(ctx context.Context, res *model.Reservation) error {
	if _, err := f.m.getReservation(res.ID); err != nil {
		return err
	}
	if f.m.overlaps(res.RoomID, res.StartDate, res.EndDate, res.StartTime, res.EndTime, res.ID) {
		return repository.ErrConflict
	}
	f.m.reservations[res.ID] = *res
	if p, ok := f.m.paymentOf(res.ID); ok {
		p.Amount = res.TotalAmount
		f.m.payments[p.ID] = p
	}
	return nil
}

func (f fakeReservations) UpdateStatus(ctx context.Context, id uint64, to model.ReservationStatus, cascadePayment *model.PaymentStatus) error {
	r, err := f.m.getReservation(id)
	if err != nil {
		return err
	}
	r.Status = to
	f.m.reservations[id] = r
	if cascadePayment != nil {
		if p, ok := f.m.paymentOf(id); ok {
			p.Status = *cascadePayment
			f.m.payments[p.ID] = p
		}
	}
	return nil
}

func (f fakeReservations) Delete(ctx context.Context, id uint64) error {
	if _, err := f.m.getReservation(id); err != nil {
		return err
	}
	delete(f.m.reservations, id)
	if p, ok := f.m.paymentOf(id); ok {
		delete(f.m.payments, p.ID)
	}
	return nil
}

func (f fakeReservations) RoomOwner(ctx context.Context, reservationID uint64) (uint64, error) {
	r, err := f.m.getReservation(reservationID)
	if err != nil {
		return 0, err
	}
	rm, ok := f.m.rooms[r.RoomID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	return rm.OwnerID, nil
}

// fakePayments implements PaymentStore.
type fakePayments struct{ m *memStore }

func (f fakePayments) GetByID(ctx context.Context, id uint64) (model.Payment, error) {
	p, ok := f.m.payments[id]
	if !ok {
		return model.Payment{}, sql.ErrNoRows
	}
	return p, nil
}

func (f fakePayments) GetByReservation(ctx context.Context, reservationID uint64) (model.Payment, error) {
	if p, ok := f.m.paymentOf(reservationID); ok {
		return p, nil
	}
	return model.Payment{}, sql.ErrNoRows
}

func (f fakePayments) GetDetail(ctx context.Context, id uint64) (repository.PaymentDetail, error) {
	p, ok := f.m.payments[id]
	if !ok {
		return repository.PaymentDetail{}, sql.ErrNoRows
	}
	r := f.m.reservations[p.ReservationID]
	rm := f.m.rooms[r.RoomID]
	return repository.PaymentDetail{
		Payment:           p,
		ReservationStatus: string(r.Status),
		RoomID:            rm.ID,
		RoomName:          rm.Name,
		UserID:            r.UserID,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
	}, nil
}

func (f fakePayments) MarkPaid(ctx context.Context, id uint64, method model.PaymentMethod, notes *string, at time.Time) error {
	p, ok := f.m.payments[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Method = &method
	p.Notes = notes
	p.Status = model.PaymentPaid
	p.PaymentDate = &at
	f.m.payments[id] = p
	if r, err := f.m.getReservation(p.ReservationID); err == nil {
		r.Status = model.ReservationPayment
		f.m.reservations[r.ID] = r
	}
	return nil
}

func (f fakePayments) Confirm(ctx context.Context, id uint64) error {
	p, ok := f.m.payments[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = model.PaymentConfirmed
	f.m.payments[id] = p
	r, err := f.m.getReservation(p.ReservationID)
	if err != nil {
		return err
	}
	r.Status = model.ReservationCompleted
	f.m.reservations[r.ID] = r
	return nil
}

func (f fakePayments) Delete(ctx context.Context, id uint64) error {
	if _, ok := f.m.payments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.m.payments, id)
	return nil
}
