package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onlyren/onlyren-api/internal/model"
	"github.com/onlyren/onlyren-api/internal/repository"
	"github.com/onlyren/onlyren-api/internal/service"
)

// AdminHandler serves the administration surface: platform dashboard and
// user management.
type AdminHandler struct {
	Users        *repository.UserRepo
	Rooms        *repository.RoomRepo
	Reservations *repository.ReservationRepo
	Payments     *repository.PaymentRepo
}

func NewAdminHandler(u *repository.UserRepo, rm *repository.RoomRepo, res *repository.ReservationRepo, p *repository.PaymentRepo) *AdminHandler {
	return &AdminHandler{Users: u, Rooms: rm, Reservations: res, Payments: p}
}

// Dashboard aggregates platform-wide counts and revenue.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	resStats, err := h.Reservations.Statistics(ctx, 0, 0)
	if err != nil {
		return failErr(c, err)
	}
	payStats, err := h.Payments.Statistics(ctx, 0, 0)
	if err != nil {
		return failErr(c, err)
	}
	_, totalRooms, err := h.Rooms.Search(ctx, repository.RoomFilter{Page: 1, PerPage: 1})
	if err != nil {
		return failErr(c, err)
	}
	_, totalUsers, err := h.Users.List(ctx, "", 1, 1)
	if err != nil {
		return failErr(c, err)
	}

	return respond(c, http.StatusOK, "dashboard", echo.Map{
		"users":        totalUsers,
		"rooms":        totalRooms,
		"reservations": resStats,
		"payments":     payStats,
	})
}

// ListUsers returns a page of accounts, optionally filtered by role.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	role := c.QueryParam("role")
	if role != "" {
		if role != model.RoleUser && role != model.RoleRenter && role != model.RoleAdmin {
			return fail(c, http.StatusUnprocessableEntity, "unknown role filter")
		}
	}
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 15)
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, total, err := h.Users.List(ctx, role, page, perPage)
	if err != nil {
		return failErr(c, err)
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return respondPaged(c, "users", out, page, perPage, total)
}

// GetUser returns a single account.
func (h *AdminHandler) GetUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return failErr(c, service.ErrNotFound)
		}
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "user", toUserPart(u))
}

type setActiveReq struct {
	IsActive bool `json:"is_active"`
}

// SetUserActive suspends or restores an account. Suspended accounts can
// no longer log in or refresh sessions.
func (h *AdminHandler) SetUserActive(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	var req setActiveReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return failErr(c, service.ErrNotFound)
		}
		return failErr(c, err)
	}
	if err := h.Users.SetActive(ctx, id, req.IsActive); err != nil {
		return failErr(c, err)
	}
	msg := "user suspended"
	if req.IsActive {
		msg = "user restored"
	}
	return respond(c, http.StatusOK, msg, echo.Map{"id": id, "is_active": req.IsActive})
}

// DeleteUser removes an account. Accounts with reservation history
// cannot be removed; suspend them instead.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	actor := actorFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	if id == actor.ID {
		return fail(c, http.StatusUnprocessableEntity, "cannot delete your own account")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return failErr(c, service.ErrNotFound)
		case repository.ErrConflict:
			return fail(c, http.StatusConflict, "user has reservation history; suspend instead")
		}
		return failErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
