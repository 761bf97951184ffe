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

// MessageHandler serves direct messages between users and renters.
type MessageHandler struct {
	Messages *repository.MessageRepo
	Users    *repository.UserRepo
}

func NewMessageHandler(messages *repository.MessageRepo, users *repository.UserRepo) *MessageHandler {
	return &MessageHandler{Messages: messages, Users: users}
}

type sendMessageReq struct {
	ReceiverID uint64 `json:"receiver_id"`
	Content    string `json:"content"`
}

type messageResp struct {
	ID         uint64     `json:"id"`
	SenderID   uint64     `json:"sender_id"`
	ReceiverID uint64     `json:"receiver_id"`
	Content    string     `json:"content"`
	ReadAt     *time.Time `json:"read_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toMessageResp(m model.Message) messageResp {
	return messageResp{
		ID: m.ID, SenderID: m.SenderID, ReceiverID: m.ReceiverID,
		Content: m.Content, ReadAt: m.ReadAt, CreatedAt: m.CreatedAt,
	}
}

// Send delivers a message to another user.
func (h *MessageHandler) Send(c echo.Context) error {
	actor := actorFrom(c)
	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.ReceiverID == 0 || req.Content == "" {
		return fail(c, http.StatusUnprocessableEntity, "receiver_id and content are required")
	}
	if req.ReceiverID == actor.ID {
		return fail(c, http.StatusUnprocessableEntity, "cannot message yourself")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, req.ReceiverID); err != nil {
		if err == sql.ErrNoRows {
			return failErr(c, service.ErrNotFound)
		}
		return failErr(c, err)
	}

	m := model.Message{SenderID: actor.ID, ReceiverID: req.ReceiverID, Content: req.Content}
	if err := h.Messages.Create(ctx, &m); err != nil {
		return failErr(c, err)
	}
	m.CreatedAt = time.Now().UTC()
	return respond(c, http.StatusCreated, "message sent", toMessageResp(m))
}

// Conversations lists the caller's chat partners with the latest message
// and unread count per partner.
func (h *MessageHandler) Conversations(c echo.Context) error {
	actor := actorFrom(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	convs, err := h.Messages.ListConversations(ctx, actor.ID)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "conversations", convs)
}

// Thread returns the full conversation with one partner, oldest first,
// and marks their messages as read.
func (h *MessageHandler) Thread(c echo.Context) error {
	actor := actorFrom(c)
	partnerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msgs, err := h.Messages.Thread(ctx, actor.ID, partnerID)
	if err != nil {
		return failErr(c, err)
	}
	out := make([]messageResp, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResp(m))
	}
	return respond(c, http.StatusOK, "messages", out)
}
