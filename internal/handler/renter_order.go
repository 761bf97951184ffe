package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onlyren/onlyren-api/internal/model"
)

// Orders lists incoming reservations on the renter's rooms. Admins see
// every order.
func (h *ReservationHandler) Orders(c echo.Context) error {
	actor := actorFrom(c)
	f := reservationFilterFrom(c)
	if !actor.Admin() {
		f.OwnerID = actor.ID
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	details, total, err := h.Repo.List(ctx, f)
	if err != nil {
		return failErr(c, err)
	}
	return respondPaged(c, "orders", details, f.Page, f.PerPage, total)
}

func (h *ReservationHandler) transitionOrder(c echo.Context, ev model.ReservationEvent, message string) error {
	actor := actorFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid reservation id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Transition(ctx, actor, id, ev)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, message, toReservationResp(res))
}

// Approve accepts a pending request; the reservation moves to the
// awaiting-payment state.
func (h *ReservationHandler) Approve(c echo.Context) error {
	return h.transitionOrder(c, model.EventApprove, "reservation approved")
}

// Reject declines a pending request and cancels its payment.
func (h *ReservationHandler) Reject(c echo.Context) error {
	return h.transitionOrder(c, model.EventReject, "reservation rejected")
}

// Complete closes an approved booking without going through payment
// confirmation, e.g. for cash settled on site.
func (h *ReservationHandler) Complete(c echo.Context) error {
	return h.transitionOrder(c, model.EventComplete, "reservation completed")
}
