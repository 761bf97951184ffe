package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/onlyren/onlyren-api/internal/model"
)

// RoomRepo provides CRUD and search over the `rooms` table. Amenities and
// images are stored as JSON arrays and decoded into string slices on the
// way out.
type RoomRepo struct{ db *sql.DB }

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle for starting transactions.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomCols = `id, owner_id, name, description, type, location, address,
	capacity, price_per_hour, amenities, images, rating, review_count,
	is_available, is_featured, created_at, updated_at`

func scanRoom(row interface{ Scan(...any) error }) (model.Room, error) {
	var rm model.Room
	var desc sql.NullString
	var amenities, images sql.NullString
	var rating sql.NullFloat64
	err := row.Scan(&rm.ID, &rm.OwnerID, &rm.Name, &desc, &rm.Type, &rm.Location,
		&rm.Address, &rm.Capacity, &rm.PricePerHour, &amenities, &images,
		&rating, &rm.ReviewCount, &rm.IsAvailable, &rm.IsFeatured,
		&rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return rm, err
	}
	if desc.Valid {
		d := desc.String
		rm.Description = &d
	}
	if rating.Valid {
		v := rating.Float64
		rm.Rating = &v
	}
	rm.Amenities = decodeJSONList(amenities)
	rm.Images = decodeJSONList(images)
	return rm, nil
}

func decodeJSONList(ns sql.NullString) []string {
	out := []string{}
	if ns.Valid && ns.String != "" {
		_ = json.Unmarshal([]byte(ns.String), &out)
	}
	return out
}

func encodeJSONList(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

// Create inserts a room owned by the given renter and populates the
// generated ID on the model.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO rooms
		(owner_id, name, description, type, location, address, capacity,
		 price_per_hour, amenities, images, is_available, is_featured)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		rm.OwnerID, rm.Name, rm.Description, rm.Type, rm.Location, rm.Address,
		rm.Capacity, rm.PricePerHour, encodeJSONList(rm.Amenities),
		encodeJSONList(rm.Images), rm.IsAvailable, rm.IsFeatured)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	return nil
}

// GetByID returns a single room. Missing rows yield sql.ErrNoRows.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx,
		"SELECT "+roomCols+" FROM rooms WHERE id=? LIMIT 1", id))
}

// Update rewrites the mutable fields of a room after verifying ownership.
// Admins pass ownerID 0 to bypass the ownership check.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room, ownerID uint64) error {
	if err := r.checkOwner(ctx, rm.ID, ownerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE rooms SET
		name=?, description=?, type=?, location=?, address=?, capacity=?,
		price_per_hour=?, amenities=?, images=?, is_available=?, is_featured=?
		WHERE id=?`,
		rm.Name, rm.Description, rm.Type, rm.Location, rm.Address, rm.Capacity,
		rm.PricePerHour, encodeJSONList(rm.Amenities), encodeJSONList(rm.Images),
		rm.IsAvailable, rm.IsFeatured, rm.ID)
	return err
}

// Delete removes a room after verifying ownership. Rooms that still carry
// reservations in an occupying state cannot be deleted; this returns
// ErrConflict instead.
func (r *RoomRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	if err := r.checkOwner(ctx, id, ownerID); err != nil {
		return err
	}
	var active int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE room_id=? AND status NOT IN (?,?)`,
		id, string(model.ReservationCancelled), string(model.ReservationRejected)).Scan(&active)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id=?", id)
	return err
}

func (r *RoomRepo) checkOwner(ctx context.Context, roomID, ownerID uint64) error {
	var actual uint64
	if err := r.db.QueryRowContext(ctx,
		"SELECT owner_id FROM rooms WHERE id=?", roomID).Scan(&actual); err != nil {
		return err
	}
	if ownerID != 0 && actual != ownerID {
		return ErrForbidden
	}
	return nil
}

// RoomFilter narrows Search results. Zero values mean "no filter".
type RoomFilter struct {
	Search    string // matches name, description or location
	Type      string
	Location  string
	Capacity  int   // minimum capacity
	MinPrice  int64 // price_per_hour lower bound
	MaxPrice  int64 // price_per_hour upper bound
	OwnerID   uint64
	Available bool // when true, only is_available rooms
	Featured  bool // when true, only is_featured rooms
	Page      int
	PerPage   int
	SortBy    string // whitelisted column, default created_at
	SortDesc  bool
}

// sortableRoomCols whitelists ORDER BY targets so client input never
// reaches the SQL text.
var sortableRoomCols = map[string]bool{
	"created_at": true, "price_per_hour": true, "rating": true,
	"capacity": true, "name": true,
}

// Search returns a page of rooms matching the filter plus the total match
// count for pagination meta.
func (r *RoomRepo) Search(ctx context.Context, f RoomFilter) ([]model.Room, int, error) {
	conds := []string{"1=1"}
	args := []any{}
	if f.Search != "" {
		conds = append(conds, "(name LIKE ? OR description LIKE ? OR location LIKE ?)")
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat, pat)
	}
	if f.Type != "" {
		conds = append(conds, "type=?")
		args = append(args, f.Type)
	}
	if f.Location != "" {
		conds = append(conds, "location LIKE ?")
		args = append(args, "%"+f.Location+"%")
	}
	if f.Capacity > 0 {
		conds = append(conds, "capacity >= ?")
		args = append(args, f.Capacity)
	}
	if f.MinPrice > 0 {
		conds = append(conds, "price_per_hour >= ?")
		args = append(args, f.MinPrice)
	}
	if f.MaxPrice > 0 {
		conds = append(conds, "price_per_hour <= ?")
		args = append(args, f.MaxPrice)
	}
	if f.OwnerID > 0 {
		conds = append(conds, "owner_id=?")
		args = append(args, f.OwnerID)
	}
	if f.Available {
		conds = append(conds, "is_available=1")
	}
	if f.Featured {
		conds = append(conds, "is_featured=1")
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortBy := f.SortBy
	if !sortableRoomCols[sortBy] {
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
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+roomCols+" FROM rooms"+where+" ORDER BY "+sortBy+" "+dir+" LIMIT ? OFFSET ?",
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	rooms := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, 0, err
		}
		rooms = append(rooms, rm)
	}
	return rooms, total, rows.Err()
}
