package model

import "fmt"

// ReservationStatus is the closed set of states a reservation can be in.
// The zero value is not valid; reservations are always created as
// ReservationPending. Completed, Cancelled and Rejected are terminal.
//
// The source of truth for which moves are legal is the transition table
// below; callers ask Next() rather than comparing strings.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "Pending"
	ReservationPayment   ReservationStatus = "Payment" // paid, awaiting renter confirmation
	ReservationCompleted ReservationStatus = "Completed"
	ReservationCancelled ReservationStatus = "Cancelled"
	ReservationRejected  ReservationStatus = "Rejected"
)

// ReservationEvent names a transition on the reservation state machine.
type ReservationEvent string

const (
	EventApprove        ReservationEvent = "approve"         // renter/admin accepts a pending request
	EventReject         ReservationEvent = "reject"          // renter/admin declines; payment is cancelled
	EventCancel         ReservationEvent = "cancel"          // requester withdraws; payment is cancelled
	EventComplete       ReservationEvent = "complete"        // renter/admin closes an approved booking
	EventConfirmPayment ReservationEvent = "confirm-payment" // payment confirmation drives completion
)

// reservationTransitions is the full edge set. Any (state, event) pair
// absent from this table is an invalid transition.
var reservationTransitions = map[ReservationStatus]map[ReservationEvent]ReservationStatus{
	ReservationPending: {
		EventApprove: ReservationPayment,
		EventReject:  ReservationRejected,
		EventCancel:  ReservationCancelled,
	},
	ReservationPayment: {
		EventComplete:       ReservationCompleted,
		EventConfirmPayment: ReservationCompleted,
	},
}

// Next returns the state reached by applying ev, and whether the edge exists.
func (s ReservationStatus) Next(ev ReservationEvent) (ReservationStatus, bool) {
	to, ok := reservationTransitions[s][ev]
	return to, ok
}

// Terminal reports whether no further transition is defined from s.
func (s ReservationStatus) Terminal() bool {
	return len(reservationTransitions[s]) == 0
}

// Occupies reports whether a reservation in this state blocks the room for
// overlapping bookings. Cancelled and rejected reservations free the slot.
func (s ReservationStatus) Occupies() bool {
	return s != ReservationCancelled && s != ReservationRejected
}

// ParseReservationStatus validates a raw status string at the boundary.
// Unknown or differently-cased values are rejected rather than stored.
func ParseReservationStatus(raw string) (ReservationStatus, error) {
	switch ReservationStatus(raw) {
	case ReservationPending, ReservationPayment, ReservationCompleted,
		ReservationCancelled, ReservationRejected:
		return ReservationStatus(raw), nil
	}
	return "", fmt.Errorf("unknown reservation status %q", raw)
}

// PaymentStatus is the closed set of states for a payment record.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// ParsePaymentStatus validates a raw payment status string.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch PaymentStatus(raw) {
	case PaymentPending, PaymentPaid, PaymentConfirmed, PaymentCancelled:
		return PaymentStatus(raw), nil
	}
	return "", fmt.Errorf("unknown payment status %q", raw)
}

// PaymentMethod enumerates the accepted payment channels.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "Cash"
	MethodQRIS         PaymentMethod = "QRIS"
	MethodBankTransfer PaymentMethod = "Bank Transfer"
)

// ParsePaymentMethod validates a raw method string supplied by a client.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch PaymentMethod(raw) {
	case MethodCash, MethodQRIS, MethodBankTransfer:
		return PaymentMethod(raw), nil
	}
	return "", fmt.Errorf("unknown payment method %q", raw)
}
