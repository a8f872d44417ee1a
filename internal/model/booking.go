package model

import (
	"database/sql"
	"time"
)

// BookingStatus is the state of a booking.  PENDING is transient;
// CONFIRMED and FAILED are terminal.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingFailed    BookingStatus = "FAILED"
)

// Failure reasons persisted in bookings.reason.
const (
	ReasonInvalidSeats   = "Invalid seat numbers"
	ReasonSeatsTaken     = "Some seats already booked"
	ReasonPendingExpired = "Pending booking expired"
)

// Booking records one request to reserve a set of seat numbers on a
// show.  SeatNumbers always holds what was requested, verbatim.  Which
// seats were actually taken by the booking is only visible through the
// seats table once the booking is CONFIRMED.
//
// Fields:
//  ID          – primary key identifier.
//  ShowID      – show being booked.
//  UserEmail   – contact identifier supplied by the customer.
//  SeatNumbers – requested seat numbers in request order.
//  Status      – PENDING, CONFIRMED or FAILED.
//  Reason      – failure reason (NULL unless FAILED).
//  FailedSeats – missing or conflicting seat numbers, depending on Reason.
//  CreatedAt   – creation timestamp.
type Booking struct {
	ID          uint64         `db:"id"`           // bookings.id
	ShowID      uint64         `db:"show_id"`      // bookings.show_id
	UserEmail   string         `db:"user_email"`   // bookings.user_email
	SeatNumbers SeatNumbers    `db:"seat_numbers"` // bookings.seat_numbers (JSON)
	Status      BookingStatus  `db:"status"`       // bookings.status
	Reason      sql.NullString `db:"reason"`       // bookings.reason (nullable)
	FailedSeats SeatNumbers    `db:"failed_seats"` // bookings.failed_seats (nullable JSON)
	CreatedAt   time.Time      `db:"created_at"`   // bookings.created_at
}

// Outcome returns the booking's state as one of Pending, Confirmed or
// Failed.
func (b Booking) Outcome() Outcome {
	switch b.Status {
	case BookingConfirmed:
		return Confirmed{SeatNumbers: append([]int(nil), b.SeatNumbers...)}
	case BookingFailed:
		return Failed{Reason: b.Reason.String, Seats: append([]int(nil), b.FailedSeats...)}
	default:
		return Pending{}
	}
}

// Outcome is the result of a booking attempt.  The concrete type tells
// the caller which branch to take; only the variants declared in this
// package implement it.
type Outcome interface {
	Status() BookingStatus
	outcome()
}

// Pending is never returned by a completed booking attempt.  It only
// shows up when reading a booking that has not reached a terminal state.
type Pending struct{}

// Confirmed means every requested seat is now booked by the booking.
type Confirmed struct {
	SeatNumbers []int
}

// Failed means the booking was rejected by a business rule.  Seats holds
// the offending seat numbers: the missing ones for ReasonInvalidSeats,
// the already booked ones for ReasonSeatsTaken.
type Failed struct {
	Reason string
	Seats  []int
}

func (Pending) Status() BookingStatus   { return BookingPending }
func (Confirmed) Status() BookingStatus { return BookingConfirmed }
func (Failed) Status() BookingStatus    { return BookingFailed }

func (Pending) outcome()   {}
func (Confirmed) outcome() {}
func (Failed) outcome()    {}

// Missing returns the seat numbers that do not exist on the show, or nil
// when the failure was for another reason.
func (f Failed) Missing() []int {
	if f.Reason != ReasonInvalidSeats {
		return nil
	}
	return f.Seats
}

// ConflictSeats returns the seat numbers that were already booked, or
// nil when the failure was for another reason.
func (f Failed) ConflictSeats() []int {
	if f.Reason != ReasonSeatsTaken {
		return nil
	}
	return f.Seats
}
