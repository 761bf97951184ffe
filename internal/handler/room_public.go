package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onlyren/onlyren-api/internal/model"
	"github.com/onlyren/onlyren-api/internal/repository"
	"github.com/onlyren/onlyren-api/internal/service"
)

// RoomHandler serves the public catalog endpoints and the renter's
// listing management.
type RoomHandler struct {
	Rooms        *repository.RoomRepo
	Reservations *service.ReservationService
}

func NewRoomHandler(rooms *repository.RoomRepo, reservations *service.ReservationService) *RoomHandler {
	return &RoomHandler{Rooms: rooms, Reservations: reservations}
}

// roomResp is the wire shape of a room.
type roomResp struct {
	ID           uint64   `json:"id"`
	OwnerID      uint64   `json:"owner_id"`
	Name         string   `json:"name"`
	Description  *string  `json:"description,omitempty"`
	Type         string   `json:"type"`
	Location     string   `json:"location"`
	Address      string   `json:"address"`
	Capacity     int      `json:"capacity"`
	PricePerHour int64    `json:"price_per_hour"`
	Amenities    []string `json:"amenities"`
	Images       []string `json:"images"`
	Rating       *float64 `json:"rating"`
	ReviewCount  int      `json:"review_count"`
	IsAvailable  bool     `json:"is_available"`
	IsFeatured   bool     `json:"is_featured"`
}

func toRoomResp(rm model.Room) roomResp {
	return roomResp{
		ID: rm.ID, OwnerID: rm.OwnerID, Name: rm.Name, Description: rm.Description,
		Type: rm.Type, Location: rm.Location, Address: rm.Address,
		Capacity: rm.Capacity, PricePerHour: rm.PricePerHour,
		Amenities: rm.Amenities, Images: rm.Images,
		Rating: rm.Rating, ReviewCount: rm.ReviewCount,
		IsAvailable: rm.IsAvailable, IsFeatured: rm.IsFeatured,
	}
}

func toRoomResps(rooms []model.Room) []roomResp {
	out := make([]roomResp, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, toRoomResp(rm))
	}
	return out
}

// queryInt parses an integer query parameter, returning def when absent
// or malformed.
func queryInt(c echo.Context, name string, def int) int {
	if s := c.QueryParam(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func queryInt64(c echo.Context, name string) int64 {
	if s := c.QueryParam(name); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func roomFilterFrom(c echo.Context) repository.RoomFilter {
	sort := c.QueryParam("sort_by")
	desc := strings.EqualFold(c.QueryParam("sort_dir"), "desc")
	return repository.RoomFilter{
		Search:   c.QueryParam("search"),
		Type:     c.QueryParam("type"),
		Location: c.QueryParam("location"),
		Capacity: queryInt(c, "capacity", 0),
		MinPrice: queryInt64(c, "min_price"),
		MaxPrice: queryInt64(c, "max_price"),
		Page:     queryInt(c, "page", 1),
		PerPage:  queryInt(c, "per_page", 15),
		SortBy:   sort,
		SortDesc: desc,
	}
}

// List returns the public room catalog with filters and pagination.
// Only rooms accepting bookings are shown.
func (h *RoomHandler) List(c echo.Context) error {
	f := roomFilterFrom(c)
	f.Available = true

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rooms, total, err := h.Rooms.Search(ctx, f)
	if err != nil {
		return failErr(c, err)
	}
	return respondPaged(c, "rooms", toRoomResps(rooms), f.Page, f.PerPage, total)
}

// Featured returns the promoted rooms for the landing page.
func (h *RoomHandler) Featured(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rooms, _, err := h.Rooms.Search(ctx, repository.RoomFilter{
		Available: true,
		Featured:  true,
		Page:      1,
		PerPage:   queryInt(c, "limit", 8),
		SortBy:    "rating",
		SortDesc:  true,
	})
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "featured rooms", toRoomResps(rooms))
}

// Get returns one room by id.
func (h *RoomHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid room id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rm, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return failErr(c, service.ErrNotFound)
		}
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "room", toRoomResp(rm))
}

// Availability reports whether a room is free for a window given as
// start_date, end_date, start_time and end_time query parameters.
func (h *RoomHandler) Availability(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid room id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	available, err := h.Reservations.CheckAvailability(ctx, id,
		c.QueryParam("start_date"), c.QueryParam("end_date"),
		c.QueryParam("start_time"), c.QueryParam("end_time"))
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "availability", echo.Map{"available": available})
}
