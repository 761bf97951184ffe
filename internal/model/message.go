package model

import "time"

// Message is a direct message between two users, typically a guest asking
// a renter about a room. Threads are derived from (sender, receiver)
// pairs; there is no separate conversation table.
type Message struct {
	ID         uint64     // messages.id
	SenderID   uint64     // messages.sender_id
	ReceiverID uint64     // messages.receiver_id
	Content    string     // messages.content
	ReadAt     *time.Time // messages.read_at (nullable)
	CreatedAt  time.Time  // messages.created_at
}
