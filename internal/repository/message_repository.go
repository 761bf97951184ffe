package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/onlyren/onlyren-api/internal/model"
)

// MessageRepo persists direct messages between users and renters.
type MessageRepo struct{ db *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// Create inserts a message and populates its ID.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (sender_id, receiver_id, content) VALUES (?,?,?)",
		m.SenderID, m.ReceiverID, m.Content)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Conversation summarizes one chat partner: the latest message exchanged
// and how many of their messages the viewer has not read yet.
type Conversation struct {
	PartnerID   uint64    `json:"partner_id"`
	PartnerName string    `json:"partner_name"`
	LastMessage string    `json:"last_message"`
	LastAt      time.Time `json:"last_at"`
	Unread      int       `json:"unread"`
}

// ListConversations returns one row per chat partner of the viewer,
// newest conversation first.
func (r *MessageRepo) ListConversations(ctx context.Context, viewerID uint64) ([]Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		partner.id, partner.name, m.content, m.created_at,
		(SELECT COUNT(*) FROM messages
		 WHERE sender_id = partner.id AND receiver_id = ? AND read_at IS NULL)
		FROM messages m
		JOIN users partner ON partner.id =
			IF(m.sender_id = ?, m.receiver_id, m.sender_id)
		WHERE m.id IN (
			SELECT MAX(id) FROM messages
			WHERE sender_id = ? OR receiver_id = ?
			GROUP BY IF(sender_id = ?, receiver_id, sender_id)
		)
		ORDER BY m.created_at DESC`,
		viewerID, viewerID, viewerID, viewerID, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	convs := make([]Conversation, 0)
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.PartnerID, &c.PartnerName, &c.LastMessage,
			&c.LastAt, &c.Unread); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// Thread returns the full conversation between the viewer and a partner,
// oldest first, and marks the partner's messages as read.
func (r *MessageRepo) Thread(ctx context.Context, viewerID, partnerID uint64) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, sender_id, receiver_id, content, read_at, created_at
		FROM messages
		WHERE (sender_id=? AND receiver_id=?) OR (sender_id=? AND receiver_id=?)
		ORDER BY created_at ASC`,
		viewerID, partnerID, partnerID, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	msgs := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content,
			&readAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			t := readAt.Time
			m.ReadAt = &t
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `UPDATE messages SET read_at=NOW()
		WHERE sender_id=? AND receiver_id=? AND read_at IS NULL`,
		partnerID, viewerID)
	return msgs, err
}
