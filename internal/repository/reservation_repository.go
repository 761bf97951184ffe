package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/onlyren/onlyren-api/internal/model"
)

// ReservationRepo provides persistence for reservations and their sibling
// payments. A reservation and its payment are created and cancelled
// together; every multi-row write here runs inside one transaction.
//
// Dates are stored in DATE columns and daily windows in TIME columns.
// All comparisons happen in SQL so the conflict predicate is evaluated by
// the database, inside the same transaction as the insert.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for starting transactions elsewhere.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// reservationCols formats DATE/TIME columns back into the wire layouts so
// rows scan directly into the string fields of model.Reservation.
const reservationCols = `id, user_id, room_id,
	DATE_FORMAT(start_date,'%Y-%m-%d'), DATE_FORMAT(end_date,'%Y-%m-%d'),
	TIME_FORMAT(start_time,'%H:%i'), TIME_FORMAT(end_time,'%H:%i'),
	duration, guests, total_amount, notes, status, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var res model.Reservation
	var notes sql.NullString
	var status string
	err := row.Scan(&res.ID, &res.UserID, &res.RoomID,
		&res.StartDate, &res.EndDate, &res.StartTime, &res.EndTime,
		&res.Duration, &res.Guests, &res.TotalAmount, &notes, &status,
		&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return res, err
	}
	if notes.Valid {
		n := notes.String
		res.Notes = &n
	}
	st, err := model.ParseReservationStatus(status)
	if err != nil {
		return res, err
	}
	res.Status = st
	return res, nil
}

// conflictWhere is the overlap predicate shared by the standalone check
// and the in-transaction re-check. Date ranges overlap inclusively; time
// ranges use strict inequality so a booking ending at 10:00 does not
// collide with one starting at 10:00. Cancelled and rejected reservations
// do not occupy the room.
const conflictWhere = `room_id=? AND status NOT IN ('Cancelled','Rejected')
	AND start_date <= ? AND end_date >= ?
	AND start_time < ? AND end_time > ?`

// HasConflict reports whether any occupying reservation overlaps the given
// window on the room. excludeID skips one reservation (used when
// rescheduling). This is the lock-free pre-check; CreateWithPayment
// repeats it inside the insert transaction.
func (r *ReservationRepo) HasConflict(ctx context.Context, roomID uint64, startDate, endDate, startTime, endTime string, excludeID uint64) (bool, error) {
	q := "SELECT COUNT(*) FROM reservations WHERE " + conflictWhere
	args := []any{roomID, endDate, startDate, endTime, startTime}
	if excludeID > 0 {
		q += " AND id != ?"
		args = append(args, excludeID)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func conflictExistsTx(ctx context.Context, tx *sql.Tx, res *model.Reservation, excludeID uint64) (bool, error) {
	q := "SELECT COUNT(*) FROM reservations WHERE " + conflictWhere
	args := []any{res.RoomID, res.EndDate, res.StartDate, res.EndTime, res.StartTime}
	if excludeID > 0 {
		q += " AND id != ?"
		args = append(args, excludeID)
	}
	var n int
	if err := tx.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// lockRoomTx takes a row lock on the room so that two transactions booking
// the same room serialize on the conflict re-check. Returns sql.ErrNoRows
// when the room does not exist.
func lockRoomTx(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	var id uint64
	return tx.QueryRowContext(ctx,
		"SELECT id FROM rooms WHERE id=? FOR UPDATE", roomID).Scan(&id)
}

// CreateWithPayment inserts a reservation and its payment as one atomic
// unit. The overlap predicate is re-evaluated under a room row lock inside
// the same transaction; a concurrent booking of an overlapping window on
// the same room therefore fails with ErrConflict instead of slipping
// through between check and insert. On success both IDs are populated.
func (r *ReservationRepo) CreateWithPayment(ctx context.Context, res *model.Reservation, pay *model.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockRoomTx(ctx, tx, res.RoomID); err != nil {
		return err
	}
	conflict, err := conflictExistsTx(ctx, tx, res, 0)
	if err != nil {
		return err
	}
	if conflict {
		return ErrConflict
	}

	out, err := tx.ExecContext(ctx, `INSERT INTO reservations
		(user_id, room_id, start_date, end_date, start_time, end_time,
		 duration, guests, total_amount, notes, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		res.UserID, res.RoomID, res.StartDate, res.EndDate, res.StartTime,
		res.EndTime, res.Duration, res.Guests, res.TotalAmount, res.Notes,
		string(res.Status))
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	pay.ReservationID = res.ID
	out, err = tx.ExecContext(ctx, `INSERT INTO payments
		(reservation_id, transaction_id, amount, status)
		VALUES (?,?,?,?)`,
		pay.ReservationID, pay.TransactionID, pay.Amount, string(pay.Status))
	if err != nil {
		return err
	}
	pid, err := out.LastInsertId()
	if err != nil {
		return err
	}
	pay.ID = uint64(pid)

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns a single reservation. Missing rows yield sql.ErrNoRows.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	return scanReservation(r.db.QueryRowContext(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE id=? LIMIT 1", id))
}

// UpdatePending rewrites the window, guest count, notes and derived
// amounts of a reservation and syncs the payment amount, atomically. The
// overlap predicate is re-checked under the room lock, excluding the
// reservation itself.
func (r *ReservationRepo) UpdatePending(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockRoomTx(ctx, tx, res.RoomID); err != nil {
		return err
	}
	conflict, err := conflictExistsTx(ctx, tx, res, res.ID)
	if err != nil {
		return err
	}
	if conflict {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `UPDATE reservations SET
		start_date=?, end_date=?, start_time=?, end_time=?,
		duration=?, guests=?, total_amount=?, notes=?
		WHERE id=?`,
		res.StartDate, res.EndDate, res.StartTime, res.EndTime,
		res.Duration, res.Guests, res.TotalAmount, res.Notes, res.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE payments SET amount=? WHERE reservation_id=?",
		res.TotalAmount, res.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateStatus moves a reservation to a new status. When cascadePayment is
// non-nil the sibling payment moves in the same transaction, so a reject
// or cancel never leaves a live payment behind.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, to model.ReservationStatus, cascadePayment *model.PaymentStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	out, err := tx.ExecContext(ctx,
		"UPDATE reservations SET status=? WHERE id=?", string(to), id)
	if err != nil {
		return err
	}
	if n, _ := out.RowsAffected(); n == 0 {
		// distinguish "missing" from "no-op update"
		var exists uint64
		if err := tx.QueryRowContext(ctx,
			"SELECT id FROM reservations WHERE id=?", id).Scan(&exists); err != nil {
			return err
		}
	}
	if cascadePayment != nil {
		if _, err := tx.ExecContext(ctx,
			"UPDATE payments SET status=? WHERE reservation_id=?",
			string(*cascadePayment), id); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes a reservation and its payment. Callers must have
// verified the reservation is in a terminal cancelled/rejected state.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM payments WHERE reservation_id=?", id); err != nil {
		return err
	}
	out, err := tx.ExecContext(ctx, "DELETE FROM reservations WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := out.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReservationDetail is the listing/response shape: the reservation row
// joined with the room it books and its payment.
type ReservationDetail struct {
	ID          uint64          `json:"id"`
	UserID      uint64          `json:"user_id"`
	RoomID      uint64          `json:"room_id"`
	RoomName    string          `json:"room_name"`
	RoomAddress string          `json:"room_address"`
	RoomImages  []string        `json:"room_images"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	Duration    int             `json:"duration"`
	Guests      int             `json:"guests"`
	TotalAmount int64           `json:"total_amount"`
	Notes       *string         `json:"notes,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	Payment     *PaymentSummary `json:"payment,omitempty"`
}

// PaymentSummary is the payment shape embedded in reservation details.
type PaymentSummary struct {
	ID            uint64     `json:"id"`
	TransactionID string     `json:"transaction_id"`
	Amount        int64      `json:"amount"`
	Method        *string    `json:"method"`
	Status        string     `json:"status"`
	PaymentDate   *time.Time `json:"payment_date"`
}

// ReservationFilter narrows List results. Zero values mean "no filter".
// UserID scopes to a requester, OwnerID to the renter owning the rooms.
type ReservationFilter struct {
	UserID    uint64
	OwnerID   uint64
	RoomID    uint64
	Status    string
	DateFrom  string // start_date >= DateFrom
	DateTo    string // end_date <= DateTo
	Page      int
	PerPage   int
	SortBy    string
	SortDesc  bool
}

var sortableReservationCols = map[string]bool{
	"created_at": true, "start_date": true, "total_amount": true, "status": true,
}

// List returns reservation details matching the filter plus the total
// count. Payments are attached with a second IN query, the same pattern
// the rest of the repository uses for child rows.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]ReservationDetail, int, error) {
	conds := []string{"1=1"}
	args := []any{}
	if f.UserID > 0 {
		conds = append(conds, "r.user_id=?")
		args = append(args, f.UserID)
	}
	if f.OwnerID > 0 {
		conds = append(conds, "rm.owner_id=?")
		args = append(args, f.OwnerID)
	}
	if f.RoomID > 0 {
		conds = append(conds, "r.room_id=?")
		args = append(args, f.RoomID)
	}
	if f.Status != "" {
		conds = append(conds, "r.status=?")
		args = append(args, f.Status)
	}
	if f.DateFrom != "" {
		conds = append(conds, "r.start_date >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		conds = append(conds, "r.end_date <= ?")
		args = append(args, f.DateTo)
	}
	where := " WHERE " + strings.Join(conds, " AND ")
	join := " FROM reservations r JOIN rooms rm ON rm.id = r.room_id"

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+join+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortBy := f.SortBy
	if !sortableReservationCols[sortBy] {
		sortBy = "created_at"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 15
	}
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	rows, err := r.db.QueryContext(ctx, `SELECT r.id, r.user_id, r.room_id,
		rm.name, rm.address, rm.images,
		DATE_FORMAT(r.start_date,'%Y-%m-%d'), DATE_FORMAT(r.end_date,'%Y-%m-%d'),
		TIME_FORMAT(r.start_time,'%H:%i'), TIME_FORMAT(r.end_time,'%H:%i'),
		r.duration, r.guests, r.total_amount, r.notes, r.status, r.created_at`+
		join+where+" ORDER BY r."+sortBy+" "+dir+" LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	details := make([]ReservationDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d ReservationDetail
		var images, notes sql.NullString
		if err := rows.Scan(&d.ID, &d.UserID, &d.RoomID,
			&d.RoomName, &d.RoomAddress, &images,
			&d.StartDate, &d.EndDate, &d.StartTime, &d.EndTime,
			&d.Duration, &d.Guests, &d.TotalAmount, &notes, &d.Status,
			&d.CreatedAt); err != nil {
			return nil, 0, err
		}
		d.RoomImages = decodeJSONList(images)
		if notes.Valid {
			n := notes.String
			d.Notes = &n
		}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(details) == 0 {
		return details, total, nil
	}

	ids := make([]any, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	prows, err := r.db.QueryContext(ctx, `SELECT reservation_id, id,
		transaction_id, amount, method, status, payment_date
		FROM payments WHERE reservation_id IN (`+strings.Join(placeholders, ",")+`)`,
		ids...)
	if err != nil {
		return nil, 0, err
	}
	defer prows.Close()
	for prows.Next() {
		var resID uint64
		var p PaymentSummary
		var method sql.NullString
		var paid sql.NullTime
		if err := prows.Scan(&resID, &p.ID, &p.TransactionID, &p.Amount,
			&method, &p.Status, &paid); err != nil {
			return nil, 0, err
		}
		if method.Valid {
			m := method.String
			p.Method = &m
		}
		if paid.Valid {
			t := paid.Time
			p.PaymentDate = &t
		}
		if idx, ok := index[resID]; ok {
			pp := p
			details[idx].Payment = &pp
		}
	}
	return details, total, prows.Err()
}

// GetDetail returns a single reservation joined with room and payment.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (*ReservationDetail, error) {
	var d ReservationDetail
	var images, notes sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT r.id, r.user_id, r.room_id,
		rm.name, rm.address, rm.images,
		DATE_FORMAT(r.start_date,'%Y-%m-%d'), DATE_FORMAT(r.end_date,'%Y-%m-%d'),
		TIME_FORMAT(r.start_time,'%H:%i'), TIME_FORMAT(r.end_time,'%H:%i'),
		r.duration, r.guests, r.total_amount, r.notes, r.status, r.created_at
		FROM reservations r JOIN rooms rm ON rm.id = r.room_id
		WHERE r.id=?`, id).Scan(&d.ID, &d.UserID, &d.RoomID,
		&d.RoomName, &d.RoomAddress, &images,
		&d.StartDate, &d.EndDate, &d.StartTime, &d.EndTime,
		&d.Duration, &d.Guests, &d.TotalAmount, &notes, &d.Status, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.RoomImages = decodeJSONList(images)
	if notes.Valid {
		n := notes.String
		d.Notes = &n
	}
	var p PaymentSummary
	var method sql.NullString
	var paid sql.NullTime
	err = r.db.QueryRowContext(ctx, `SELECT id, transaction_id, amount,
		method, status, payment_date FROM payments WHERE reservation_id=?`,
		id).Scan(&p.ID, &p.TransactionID, &p.Amount, &method, &p.Status, &paid)
	if err == nil {
		if method.Valid {
			m := method.String
			p.Method = &m
		}
		if paid.Valid {
			t := paid.Time
			p.PaymentDate = &t
		}
		d.Payment = &p
	} else if err != sql.ErrNoRows {
		return nil, err
	}
	return &d, nil
}

// ReservationStats aggregates counts and revenue for the statistics
// endpoint, scoped the same way List is.
type ReservationStats struct {
	Total     int   `json:"total_reservations"`
	Pending   int   `json:"pending_reservations"`
	Awaiting  int   `json:"awaiting_confirmation"`
	Completed int   `json:"completed_reservations"`
	Cancelled int   `json:"cancelled_reservations"`
	Rejected  int   `json:"rejected_reservations"`
	Revenue   int64 `json:"total_revenue"`
}

// Statistics computes reservation counts by status plus revenue from
// reservations that reached the Payment or Completed state.
func (r *ReservationRepo) Statistics(ctx context.Context, userID, ownerID uint64) (ReservationStats, error) {
	conds := []string{"1=1"}
	args := []any{}
	if userID > 0 {
		conds = append(conds, "r.user_id=?")
		args = append(args, userID)
	}
	if ownerID > 0 {
		conds = append(conds, "rm.owner_id=?")
		args = append(args, ownerID)
	}
	where := strings.Join(conds, " AND ")
	var s ReservationStats
	err := r.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(r.status='Pending'),0),
		COALESCE(SUM(r.status='Payment'),0),
		COALESCE(SUM(r.status='Completed'),0),
		COALESCE(SUM(r.status='Cancelled'),0),
		COALESCE(SUM(r.status='Rejected'),0),
		COALESCE(SUM(CASE WHEN r.status IN ('Payment','Completed') THEN r.total_amount ELSE 0 END),0)
		FROM reservations r JOIN rooms rm ON rm.id = r.room_id
		WHERE `+where, args...).Scan(&s.Total, &s.Pending, &s.Awaiting,
		&s.Completed, &s.Cancelled, &s.Rejected, &s.Revenue)
	return s, err
}

// RoomOwner returns the owner of the room a reservation books, used by
// authorization guards for renter actions.
func (r *ReservationRepo) RoomOwner(ctx context.Context, reservationID uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, `SELECT rm.owner_id
		FROM reservations r JOIN rooms rm ON rm.id = r.room_id
		WHERE r.id=?`, reservationID).Scan(&ownerID)
	return ownerID, err
}
