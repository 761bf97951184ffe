package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/onlyren/onlyren-api/internal/model"
)

// PaymentRepo provides persistence for payments. Status moves that also
// advance the parent reservation happen in one transaction so the two
// rows can never disagree.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `id, reservation_id, transaction_id, amount, method,
	status, payment_date, notes, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (model.Payment, error) {
	var p model.Payment
	var method, notes sql.NullString
	var paid sql.NullTime
	var status string
	err := row.Scan(&p.ID, &p.ReservationID, &p.TransactionID, &p.Amount,
		&method, &status, &paid, &notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if method.Valid {
		m, err := model.ParsePaymentMethod(method.String)
		if err != nil {
			return p, err
		}
		p.Method = &m
	}
	if paid.Valid {
		t := paid.Time
		p.PaymentDate = &t
	}
	if notes.Valid {
		n := notes.String
		p.Notes = &n
	}
	st, err := model.ParsePaymentStatus(status)
	if err != nil {
		return p, err
	}
	p.Status = st
	return p, nil
}

// GetByID returns a single payment. Missing rows yield sql.ErrNoRows.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (model.Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE id=? LIMIT 1", id))
}

// GetByReservation returns the payment belonging to a reservation.
func (r *PaymentRepo) GetByReservation(ctx context.Context, reservationID uint64) (model.Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE reservation_id=? LIMIT 1",
		reservationID))
}

// PaymentFilter narrows List results. Zero values mean "no filter".
// UserID scopes to the reservation owner, OwnerID to the renter whose
// room the reservation books.
type PaymentFilter struct {
	UserID  uint64
	OwnerID uint64
	Status  string
	Method  string
	Page    int
	PerPage int
}

// PaymentDetail joins a payment with its reservation context for listings
// and receipts.
type PaymentDetail struct {
	model.Payment
	ReservationStatus string `json:"reservation_status"`
	RoomID            uint64 `json:"room_id"`
	RoomName          string `json:"room_name"`
	UserID            uint64 `json:"user_id"`
	UserName          string `json:"user_name"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
}

const paymentDetailQuery = `SELECT p.id, p.reservation_id, p.transaction_id,
	p.amount, p.method, p.status, p.payment_date, p.notes, p.created_at,
	p.updated_at, r.status, rm.id, rm.name, u.id, u.name,
	DATE_FORMAT(r.start_date,'%Y-%m-%d'), DATE_FORMAT(r.end_date,'%Y-%m-%d')
	FROM payments p
	JOIN reservations r ON r.id = p.reservation_id
	JOIN rooms rm ON rm.id = r.room_id
	JOIN users u ON u.id = r.user_id`

func scanPaymentDetail(row interface{ Scan(...any) error }) (PaymentDetail, error) {
	var d PaymentDetail
	var method, notes sql.NullString
	var paid sql.NullTime
	var pStatus string
	err := row.Scan(&d.ID, &d.ReservationID, &d.TransactionID, &d.Amount,
		&method, &pStatus, &paid, &notes, &d.CreatedAt, &d.UpdatedAt,
		&d.ReservationStatus, &d.RoomID, &d.RoomName, &d.UserID, &d.UserName,
		&d.StartDate, &d.EndDate)
	if err != nil {
		return d, err
	}
	if method.Valid {
		m, err := model.ParsePaymentMethod(method.String)
		if err != nil {
			return d, err
		}
		d.Method = &m
	}
	if paid.Valid {
		t := paid.Time
		d.PaymentDate = &t
	}
	if notes.Valid {
		n := notes.String
		d.Notes = &n
	}
	st, err := model.ParsePaymentStatus(pStatus)
	if err != nil {
		return d, err
	}
	d.Status = st
	return d, nil
}

// List returns payment details matching the filter plus the total count.
func (r *PaymentRepo) List(ctx context.Context, f PaymentFilter) ([]PaymentDetail, int, error) {
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
	if f.Status != "" {
		conds = append(conds, "p.status=?")
		args = append(args, f.Status)
	}
	if f.Method != "" {
		conds = append(conds, "p.method=?")
		args = append(args, f.Method)
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	countQ := `SELECT COUNT(*) FROM payments p
		JOIN reservations r ON r.id = p.reservation_id
		JOIN rooms rm ON rm.id = r.room_id` + where
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 15
	}
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	rows, err := r.db.QueryContext(ctx,
		paymentDetailQuery+where+" ORDER BY p.created_at DESC LIMIT ? OFFSET ?",
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	details := make([]PaymentDetail, 0)
	for rows.Next() {
		d, err := scanPaymentDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		details = append(details, d)
	}
	return details, total, rows.Err()
}

// GetDetail returns a single payment joined with its reservation context.
func (r *PaymentRepo) GetDetail(ctx context.Context, id uint64) (PaymentDetail, error) {
	return scanPaymentDetail(r.db.QueryRowContext(ctx,
		paymentDetailQuery+" WHERE p.id=? LIMIT 1", id))
}

// MarkPaid records a payment submission: method, optional notes and the
// payment timestamp, moving the payment to paid and its reservation to
// the awaiting-confirmation Payment state, atomically.
func (r *PaymentRepo) MarkPaid(ctx context.Context, id uint64, method model.PaymentMethod, notes *string, at time.Time) error {
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

	var reservationID uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT reservation_id FROM payments WHERE id=? FOR UPDATE", id).
		Scan(&reservationID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE payments SET
		method=?, notes=?, status=?, payment_date=? WHERE id=?`,
		string(method), notes, string(model.PaymentPaid), at, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE reservations SET status=? WHERE id=?",
		string(model.ReservationPayment), reservationID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Confirm moves the payment to confirmed and completes the parent
// reservation, atomically.
func (r *PaymentRepo) Confirm(ctx context.Context, id uint64) error {
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

	var reservationID uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT reservation_id FROM payments WHERE id=? FOR UPDATE", id).
		Scan(&reservationID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE payments SET status=? WHERE id=?",
		string(model.PaymentConfirmed), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE reservations SET status=? WHERE id=?",
		string(model.ReservationCompleted), reservationID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateStatus sets the payment status without touching the reservation.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, id uint64, to model.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE payments SET status=? WHERE id=?", string(to), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists uint64
		if err := r.db.QueryRowContext(ctx,
			"SELECT id FROM payments WHERE id=?", id).Scan(&exists); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a payment row. Callers must have verified the payment is
// cancelled; live payments are never deleted.
func (r *PaymentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM payments WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// PaymentStats aggregates counts and settled revenue for the statistics
// endpoint.
type PaymentStats struct {
	Total     int   `json:"total_payments"`
	Pending   int   `json:"pending_payments"`
	Paid      int   `json:"paid_payments"`
	Confirmed int   `json:"confirmed_payments"`
	Cancelled int   `json:"cancelled_payments"`
	Revenue   int64 `json:"total_revenue"`
}

// Statistics computes payment counts by status plus revenue from paid and
// confirmed payments, scoped like List.
func (r *PaymentRepo) Statistics(ctx context.Context, userID, ownerID uint64) (PaymentStats, error) {
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
	var s PaymentStats
	err := r.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(p.status='pending'),0),
		COALESCE(SUM(p.status='paid'),0),
		COALESCE(SUM(p.status='confirmed'),0),
		COALESCE(SUM(p.status='cancelled'),0),
		COALESCE(SUM(CASE WHEN p.status IN ('paid','confirmed') THEN p.amount ELSE 0 END),0)
		FROM payments p
		JOIN reservations r ON r.id = p.reservation_id
		JOIN rooms rm ON rm.id = r.room_id
		WHERE `+where, args...).Scan(&s.Total, &s.Pending, &s.Paid,
		&s.Confirmed, &s.Cancelled, &s.Revenue)
	return s, err
}
