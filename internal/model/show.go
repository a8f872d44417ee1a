package model

import "time"

// MaxSeatsPerShow bounds the seat inventory of one show.  Seeding runs
// inside a single transaction and TotalSeats is stored as an unsigned
// 32-bit column.
const MaxSeatsPerShow = 10000

// Show represents a bookable event with a fixed seat inventory.  The
// seat count is fixed at creation and defines the valid seat numbers
// [1, TotalSeats].  One seats row exists per seat number.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – display name of the show.
//  StartTime  – when the show begins (UTC).
//  TotalSeats – number of seats seeded for the show.
//  CreatedAt  – creation timestamp.
type Show struct {
	ID         uint64    `db:"id" json:"id"`                   // shows.id
	Name       string    `db:"name" json:"name"`               // shows.name
	StartTime  time.Time `db:"start_time" json:"start_time"`   // shows.start_time
	TotalSeats uint32    `db:"total_seats" json:"total_seats"` // shows.total_seats
	CreatedAt  time.Time `db:"created_at" json:"created_at"`   // shows.created_at
}
