package model

import "time"

// Payment is the monetary record tied one-to-one to a reservation. It is
// created in the same transaction as its reservation with status pending
// and no method; the method is chosen later when the user pays.
// Amount always equals the reservation's TotalAmount.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation (unique, one-to-one).
//  TransactionID – generated external identifier ("txn_<uuid>").
//  Amount        – integer currency units, equals reservation total.
//  Method        – payment channel, nil until the user pays.
//  Status        – payment state, see PaymentStatus.
//  PaymentDate   – when the payment was made, nil until paid.
//  Notes         – optional free text supplied with the payment.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Payment struct {
	ID            uint64         // payments.id
	ReservationID uint64         // payments.reservation_id
	TransactionID string         // payments.transaction_id
	Amount        int64          // payments.amount
	Method        *PaymentMethod // payments.method (nullable)
	Status        PaymentStatus  // payments.status
	PaymentDate   *time.Time     // payments.payment_date (nullable)
	Notes         *string        // payments.notes (nullable)
	CreatedAt     time.Time      // payments.created_at
	UpdatedAt     time.Time      // payments.updated_at
}
