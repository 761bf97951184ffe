// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// ReservationCompletedEvent is published when a payment is confirmed and
// its reservation completes. It carries enough context for downstream
// consumers to log or notify without querying the primary database.
type ReservationCompletedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	RoomID        uint64 `json:"room_id"`
	RoomName      string `json:"room_name"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	TotalAmount   int64  `json:"total_amount"`
	TransactionID string `json:"transaction_id"`
	CompletedAt   string `json:"completed_at"`
}
