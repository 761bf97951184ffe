package model

import "time"

// DateLayout and TimeLayout are the wire and storage formats for the
// reservation window. Dates map to DATE columns, times to TIME columns;
// both are treated as naive local values, never converted across zones.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Reservation records a user's booking of a room for a date range and a
// daily time window. Duration and TotalAmount are derived at creation
// (whole hours between the times, multiplied by the room's hourly price)
// and kept in sync when a pending reservation is rescheduled.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – requester who booked the room.
//  RoomID      – room being booked.
//  StartDate   – first day of the booking, DateLayout.
//  EndDate     – last day of the booking (inclusive), DateLayout.
//  StartTime   – daily window start, TimeLayout.
//  EndTime     – daily window end, TimeLayout.
//  Duration    – whole hours between StartTime and EndTime.
//  Guests      – number of attendees, at most the room capacity.
//  TotalAmount – room price per hour times Duration.
//  Notes       – optional free text from the requester.
//  Status      – reservation state, see ReservationStatus.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Reservation struct {
	ID          uint64            // reservations.id
	UserID      uint64            // reservations.user_id
	RoomID      uint64            // reservations.room_id
	StartDate   string            // reservations.start_date
	EndDate     string            // reservations.end_date
	StartTime   string            // reservations.start_time
	EndTime     string            // reservations.end_time
	Duration    int               // reservations.duration
	Guests      int               // reservations.guests
	TotalAmount int64             // reservations.total_amount
	Notes       *string           // reservations.notes (nullable)
	Status      ReservationStatus // reservations.status
	CreatedAt   time.Time         // reservations.created_at
	UpdatedAt   time.Time         // reservations.updated_at
}
