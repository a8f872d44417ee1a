// Package queue carries booking events over RabbitMQ: the publisher used
// by the booking engine and the consumer that writes the booking log.
package queue

import "time"

// BookingQueue is the durable queue confirmed bookings are published to.
const BookingQueue = "booking.confirmed"

// BookingConfirmedEvent is published after a booking commits as
// CONFIRMED.  It carries enough for downstream consumers to log or
// notify without reading the database.
type BookingConfirmedEvent struct {
	BookingID   uint64    `json:"booking_id"`
	ShowID      uint64    `json:"show_id"`
	UserEmail   string    `json:"user_email"`
	SeatNumbers []int     `json:"seat_numbers"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}
