package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onlyren/onlyren-api/internal/model"
	"github.com/onlyren/onlyren-api/internal/repository"
	"github.com/onlyren/onlyren-api/internal/service"
	"github.com/onlyren/onlyren-api/internal/utils"
)

// PaymentHandler serves payment submission, confirmation, receipts and
// listings.
type PaymentHandler struct {
	Svc  *service.PaymentService
	Repo *repository.PaymentRepo
}

func NewPaymentHandler(svc *service.PaymentService, repo *repository.PaymentRepo) *PaymentHandler {
	return &PaymentHandler{Svc: svc, Repo: repo}
}

// ----- DTOs -----

type processPaymentReq struct {
	Method string  `json:"method"` // Cash | QRIS | Bank Transfer
	Notes  *string `json:"notes"`
}

type paymentResp struct {
	ID            uint64     `json:"id"`
	ReservationID uint64     `json:"reservation_id"`
	TransactionID string     `json:"transaction_id"`
	Amount        int64      `json:"amount"`
	Method        *string    `json:"method"`
	Status        string     `json:"status"`
	PaymentDate   *time.Time `json:"payment_date"`
	Notes         *string    `json:"notes,omitempty"`
}

func toPaymentResp(p model.Payment) paymentResp {
	var method *string
	if p.Method != nil {
		m := string(*p.Method)
		method = &m
	}
	return paymentResp{
		ID: p.ID, ReservationID: p.ReservationID, TransactionID: p.TransactionID,
		Amount: p.Amount, Method: method, Status: string(p.Status),
		PaymentDate: p.PaymentDate, Notes: p.Notes,
	}
}

// Process submits payment for an approved reservation. For QRIS the
// response carries a base64 PNG QR code the client renders for the
// payment app to scan.
func (h *PaymentHandler) Process(c echo.Context) error {
	actor := actorFrom(c)
	reservationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid reservation id")
	}
	var req processPaymentReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	pay, err := h.Svc.Process(ctx, actor, reservationID, req.Method, req.Notes)
	if err != nil {
		return failErr(c, err)
	}

	data := echo.Map{"payment": toPaymentResp(pay)}
	if pay.Method != nil && *pay.Method == model.MethodQRIS {
		qr, err := utils.QRISCodePNG(pay.TransactionID, pay.Amount)
		if err != nil {
			// payment is recorded; the client can re-request the code
			log.Printf("payment: render QR for %s failed: %v", pay.TransactionID, err)
		} else {
			data["qr_code"] = qr
		}
	}
	return respond(c, http.StatusOK, "payment submitted", data)
}

// Confirm acknowledges a paid booking; the reservation completes in the
// same transaction.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	actor := actorFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid payment id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	pay, err := h.Svc.Confirm(ctx, actor, id)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "payment confirmed", toPaymentResp(pay))
}

// Get returns one payment with reservation context.
func (h *PaymentHandler) Get(c echo.Context) error {
	actor := actorFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid payment id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Svc.Get(ctx, actor, id)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "payment", detail)
}

// Receipt returns the receipt of a settled payment.
func (h *PaymentHandler) Receipt(c echo.Context) error {
	actor := actorFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid payment id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Svc.Receipt(ctx, actor, id)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "receipt", detail)
}

// List returns payments visible to the caller: requesters their own,
// renters those on their rooms, admins everything.
func (h *PaymentHandler) List(c echo.Context) error {
	actor := actorFrom(c)
	f := repository.PaymentFilter{
		Status:  c.QueryParam("status"),
		Method:  c.QueryParam("method"),
		Page:    queryInt(c, "page", 1),
		PerPage: queryInt(c, "per_page", 15),
	}
	switch {
	case actor.Admin():
	case actor.Renter():
		f.OwnerID = actor.ID
	default:
		f.UserID = actor.ID
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	details, total, err := h.Repo.List(ctx, f)
	if err != nil {
		return failErr(c, err)
	}
	return respondPaged(c, "payments", details, f.Page, f.PerPage, total)
}

// Methods lists the accepted payment channels.
func (h *PaymentHandler) Methods(c echo.Context) error {
	return respond(c, http.StatusOK, "payment methods", h.Svc.Methods())
}

// Statistics aggregates payments for the caller's scope.
func (h *PaymentHandler) Statistics(c echo.Context) error {
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
	return respond(c, http.StatusOK, "payment statistics", stats)
}

// Delete removes a cancelled payment record.
func (h *PaymentHandler) Delete(c echo.Context) error {
	actor := actorFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid payment id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.Delete(ctx, actor, id); err != nil {
		return failErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
