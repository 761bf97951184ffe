package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onlyren/onlyren-api/internal/model"
	"github.com/onlyren/onlyren-api/internal/repository"
	"github.com/onlyren/onlyren-api/internal/service"
)

// ReservationHandler serves booking endpoints for requesters, renters
// and admins. Lifecycle rules live in the service; this layer only
// parses requests and scopes listings by role.
type ReservationHandler struct {
	Svc  *service.ReservationService
	Repo *repository.ReservationRepo
}

func NewReservationHandler(svc *service.ReservationService, repo *repository.ReservationRepo) *ReservationHandler {
	return &ReservationHandler{Svc: svc, Repo: repo}
}

// ----- DTOs -----

type reservationReq struct {
	RoomID    uint64  `json:"room_id"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Guests    int     `json:"guests"`
	Notes     *string `json:"notes"`
}

type reservationResp struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	RoomID      uint64    `json:"room_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Duration    int       `json:"duration"`
	Guests      int       `json:"guests"`
	TotalAmount int64     `json:"total_amount"`
	Notes       *string   `json:"notes,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toReservationResp(r model.Reservation) reservationResp {
	return reservationResp{
		ID: r.ID, UserID: r.UserID, RoomID: r.RoomID,
		StartDate: r.StartDate, EndDate: r.EndDate,
		StartTime: r.StartTime, EndTime: r.EndTime,
		Duration: r.Duration, Guests: r.Guests, TotalAmount: r.TotalAmount,
		Notes: r.Notes, Status: string(r.Status), CreatedAt: r.CreatedAt,
	}
}

func reservationFilterFrom(c echo.Context) repository.ReservationFilter {
	return repository.ReservationFilter{
		RoomID:   uint64(queryInt(c, "room_id", 0)),
		Status:   c.QueryParam("status"),
		DateFrom: c.QueryParam("date_from"),
		DateTo:   c.QueryParam("date_to"),
		Page:     queryInt(c, "page", 1),
		PerPage:  queryInt(c, "per_page", 15),
		SortBy:   c.QueryParam("sort_by"),
		SortDesc: strings.EqualFold(c.QueryParam("sort_dir"), "desc"),
	}
}

// Create books a room: the reservation and its pending payment are
// created together, and an overlapping window on the same room is a 409.
func (h *ReservationHandler) Create(c echo.Context) error {
	actor := actorFrom(c)
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.RoomID == 0 {
		return fail(c, http.StatusUnprocessableEntity, "room_id is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, pay, err := h.Svc.Create(ctx, actor, service.BookingInput{
		RoomID:    req.RoomID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Guests:    req.Guests,
		Notes:     req.Notes,
	})
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusCreated, "reservation created", echo.Map{
		"reservation": toReservationResp(res),
		"payment":     toPaymentResp(pay),
	})
}

// List returns the caller's reservations: requesters see their own
// bookings, admins see everything.
func (h *ReservationHandler) List(c echo.Context) error {
	actor := actorFrom(c)
	f := reservationFilterFrom(c)
	if !actor.Admin() {
		f.UserID = actor.ID
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	details, total, err := h.Repo.List(ctx, f)
	if err != nil {
		return failErr(c, err)
	}
	return respondPaged(c, "reservations", details, f.Page, f.PerPage, total)
}

// Get returns one reservation with room and payment context.
func (h *ReservationHandler) Get(c echo.Context) error {
	actor := actorFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid reservation id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Svc.Get(ctx, actor, id)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "reservation", detail)
}

// Update reschedules a pending reservation and re-derives its price.
func (h *ReservationHandler) Update(c echo.Context) error {
	actor := actorFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid reservation id")
	}
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.Update(ctx, actor, id, service.BookingInput{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Guests:    req.Guests,
		Notes:     req.Notes,
	})
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "reservation updated", toReservationResp(res))
}

// Cancel withdraws the caller's own booking; its payment is cancelled in
// the same transaction.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	actor := actorFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid reservation id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Transition(ctx, actor, id, model.EventCancel)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "reservation cancelled", toReservationResp(res))
}

// Delete removes a cancelled or rejected reservation record.
func (h *ReservationHandler) Delete(c echo.Context) error {
	actor := actorFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid reservation id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.Delete(ctx, actor, id); err != nil {
		return failErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Statistics aggregates the caller's bookings: users over their own
// reservations, renters over reservations on their rooms, admins over
// everything.
func (h *ReservationHandler) Statistics(c echo.Context) error {
	actor := actorFrom(c)
	var userID, ownerID uint64
	switch {
	case actor.Admin():
	case actor.Renter():
		ownerID = actor.ID
	default:
		userID = actor.ID
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Repo.Statistics(ctx, userID, ownerID)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "reservation statistics", stats)
}
