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

// roomReq carries the renter-supplied fields of a listing.
type roomReq struct {
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	Type         string   `json:"type"`
	Location     string   `json:"location"`
	Address      string   `json:"address"`
	Capacity     int      `json:"capacity"`
	PricePerHour int64    `json:"price_per_hour"`
	Amenities    []string `json:"amenities"`
	Images       []string `json:"images"`
	IsAvailable  *bool    `json:"is_available"`
}

func (r *roomReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	r.Type = strings.TrimSpace(r.Type)
	r.Location = strings.TrimSpace(r.Location)
	r.Address = strings.TrimSpace(r.Address)
	switch {
	case r.Name == "":
		return "name is required"
	case r.Type == "":
		return "type is required"
	case r.Location == "":
		return "location is required"
	case r.Address == "":
		return "address is required"
	case r.Capacity < 1:
		return "capacity must be at least 1"
	case r.PricePerHour < 1:
		return "price_per_hour must be positive"
	}
	return ""
}

// Mine lists the authenticated renter's rooms, including ones currently
// not accepting bookings.
func (h *RoomHandler) Mine(c echo.Context) error {
	actor := actorFrom(c)
	f := roomFilterFrom(c)
	f.OwnerID = actor.ID

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rooms, total, err := h.Rooms.Search(ctx, f)
	if err != nil {
		return failErr(c, err)
	}
	return respondPaged(c, "my rooms", toRoomResps(rooms), f.Page, f.PerPage, total)
}

// Create adds a listing owned by the authenticated renter.
func (h *RoomHandler) Create(c echo.Context) error {
	actor := actorFrom(c)
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return fail(c, http.StatusUnprocessableEntity, msg)
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	rm := model.Room{
		OwnerID:      actor.ID,
		Name:         req.Name,
		Description:  req.Description,
		Type:         req.Type,
		Location:     req.Location,
		Address:      req.Address,
		Capacity:     req.Capacity,
		PricePerHour: req.PricePerHour,
		Amenities:    req.Amenities,
		Images:       req.Images,
		IsAvailable:  available,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.Create(ctx, &rm); err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusCreated, "room created", toRoomResp(rm))
}

// Update rewrites a listing. Renters may only touch their own rooms;
// admins may touch any.
func (h *RoomHandler) Update(c echo.Context) error {
	actor := actorFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid room id")
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return fail(c, http.StatusUnprocessableEntity, msg)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	current, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return failErr(c, service.ErrNotFound)
		}
		return failErr(c, err)
	}
	available := current.IsAvailable
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	rm := model.Room{
		ID:           id,
		Name:         req.Name,
		Description:  req.Description,
		Type:         req.Type,
		Location:     req.Location,
		Address:      req.Address,
		Capacity:     req.Capacity,
		PricePerHour: req.PricePerHour,
		Amenities:    req.Amenities,
		Images:       req.Images,
		IsAvailable:  available,
		IsFeatured:   current.IsFeatured, // only admins promote listings
	}

	ownerID := actor.ID
	if actor.Admin() {
		ownerID = 0
	}
	if err := h.Rooms.Update(ctx, &rm, ownerID); err != nil {
		if err == repository.ErrForbidden {
			return fail(c, http.StatusForbidden, "room belongs to another renter")
		}
		return failErr(c, err)
	}
	updated, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "room updated", toRoomResp(updated))
}

// Delete removes a listing. Rooms with live reservations cannot be
// removed until those bookings finish or are cancelled.
func (h *RoomHandler) Delete(c echo.Context) error {
	actor := actorFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid room id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ownerID := actor.ID
	if actor.Admin() {
		ownerID = 0
	}
	if err := h.Rooms.Delete(ctx, id, ownerID); err != nil {
		switch err {
		case repository.ErrForbidden:
			return fail(c, http.StatusForbidden, "room belongs to another renter")
		case repository.ErrConflict:
			return fail(c, http.StatusConflict, "room still has active reservations")
		}
		return failErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
