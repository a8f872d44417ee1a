package model

import "database/sql"

// Seat describes one numbered seat of a show.  Seat numbers are unique
// per show.  Booked and BookingID always move together: a seat is
// booked exactly when BookingID points at the CONFIRMED booking that
// reserved it.
//
// Fields:
//  ID         – primary key identifier.
//  ShowID     – show that owns the seat.
//  SeatNumber – 1-based seat number within the show.
//  Booked     – whether the seat is taken.
//  BookingID  – owning booking (NULL while the seat is free).
type Seat struct {
	ID         uint64        `db:"id"`          // seats.id
	ShowID     uint64        `db:"show_id"`     // seats.show_id
	SeatNumber int           `db:"seat_number"` // seats.seat_number
	Booked     bool          `db:"booked"`      // seats.booked
	BookingID  sql.NullInt64 `db:"booking_id"`  // seats.booking_id (nullable)
}
