// Package service implements the booking transaction and show lifecycle
// on top of the repositories.
package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/iliyamo/seat-booking/internal/clock"
	"github.com/iliyamo/seat-booking/internal/database"
	"github.com/iliyamo/seat-booking/internal/metrics"
	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/iliyamo/seat-booking/internal/queue"
	"github.com/iliyamo/seat-booking/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// ErrNoSeatsRequested is returned when AttemptBooking gets an empty seat
// list.  No transaction is opened.
var ErrNoSeatsRequested = errors.New("no seats requested")

const publishTimeout = 5 * time.Second

// EventPublisher receives confirmed bookings after commit.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// NopPublisher drops every event.  It is used when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) PublishBookingConfirmed(context.Context, queue.BookingConfirmedEvent) error {
	return nil
}

// BookingEngine decides booking requests.  All seat state is read and
// written inside one database transaction per attempt; the database row
// locks are the only synchronisation between concurrent attempts.
type BookingEngine struct {
	db        *sqlx.DB
	seats     *repository.SeatRepo
	bookings  *repository.BookingRepo
	clock     clock.Clock
	publisher EventPublisher
	log       logrus.FieldLogger
}

// NewBookingEngine wires an engine.  A nil publisher disables events.
func NewBookingEngine(db *sqlx.DB, seats *repository.SeatRepo, bookings *repository.BookingRepo,
	clk clock.Clock, publisher EventPublisher, log logrus.FieldLogger) *BookingEngine {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &BookingEngine{
		db:        db,
		seats:     seats,
		bookings:  bookings,
		clock:     clk,
		publisher: publisher,
		log:       log.WithField("component", "booking-engine"),
	}
}

// ListSeats returns every seat of the show ordered by seat number.
func (e *BookingEngine) ListSeats(ctx context.Context, showID uint64) ([]model.Seat, error) {
	return e.seats.ListByShow(ctx, showID)
}

// GetBooking returns the booking with the given ID or
// repository.ErrBookingNotFound.
func (e *BookingEngine) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return e.bookings.GetByID(ctx, id)
}

// AttemptBooking tries to book seatNumbers on showID for contact.
//
// The returned booking is always terminal when err is nil: CONFIRMED if
// every requested seat existed and was free, otherwise FAILED with the
// reason and offending seats recorded.  Missing seats take precedence
// over taken ones.  A non-nil error means nothing was persisted.
func (e *BookingEngine) AttemptBooking(ctx context.Context, showID uint64, contact string, seatNumbers []int) (*model.Booking, error) {
	if len(seatNumbers) == 0 {
		return nil, ErrNoSeatsRequested
	}
	started := time.Now()

	b := &model.Booking{
		ShowID:      showID,
		UserEmail:   contact,
		SeatNumbers: append(model.SeatNumbers(nil), seatNumbers...),
		CreatedAt:   e.clock.Now(),
	}
	err := database.WithTx(ctx, e.db, database.ReadCommitted, func(tx *sqlx.Tx) error {
		return e.decide(ctx, tx, b)
	})
	if err != nil {
		metrics.ObserveBookingError(time.Since(started))
		e.log.WithError(err).WithField("show_id", showID).Error("booking attempt rolled back")
		return nil, err
	}

	metrics.ObserveBooking(string(b.Status), b.Reason.String, time.Since(started))
	fields := logrus.Fields{"booking_id": b.ID, "show_id": showID, "status": b.Status}
	if b.Status == model.BookingConfirmed {
		e.log.WithFields(fields).Info("booking confirmed")
		e.publish(ctx, b)
	} else {
		e.log.WithFields(fields).WithField("reason", b.Reason.String).Info("booking failed")
	}
	return b, nil
}

// decide runs the check-and-reserve sequence inside tx and leaves b in
// its terminal state.
func (e *BookingEngine) decide(ctx context.Context, tx *sqlx.Tx, b *model.Booking) error {
	if err := e.bookings.CreatePendingTx(ctx, tx, b); err != nil {
		return err
	}

	locked, err := e.seats.LockByNumbersTx(ctx, tx, b.ShowID, b.SeatNumbers)
	if err != nil {
		return err
	}

	if missing := missingSeats(b.SeatNumbers, locked); len(missing) > 0 {
		return e.fail(ctx, tx, b, model.ReasonInvalidSeats, missing)
	}
	if taken := takenSeats(locked); len(taken) > 0 {
		return e.fail(ctx, tx, b, model.ReasonSeatsTaken, taken)
	}

	ids := make([]uint64, len(locked))
	for i, s := range locked {
		ids[i] = s.ID
	}
	if err := e.seats.MarkBookedTx(ctx, tx, b.ID, ids); err != nil {
		return err
	}
	if err := e.bookings.ConfirmTx(ctx, tx, b.ID); err != nil {
		return err
	}
	b.Status = model.BookingConfirmed
	return nil
}

func (e *BookingEngine) fail(ctx context.Context, tx *sqlx.Tx, b *model.Booking, reason string, seats []int) error {
	if err := e.bookings.FailTx(ctx, tx, b.ID, reason, seats); err != nil {
		return err
	}
	b.Status = model.BookingFailed
	b.Reason.String, b.Reason.Valid = reason, true
	b.FailedSeats = seats
	return nil
}

func (e *BookingEngine) publish(ctx context.Context, b *model.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	err := e.publisher.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
		BookingID:   b.ID,
		ShowID:      b.ShowID,
		UserEmail:   b.UserEmail,
		SeatNumbers: b.SeatNumbers,
		ConfirmedAt: e.clock.Now(),
	})
	metrics.ObservePublish(err)
	if err != nil {
		e.log.WithError(err).WithField("booking_id", b.ID).Warn("publish booking event failed")
	}
}

// missingSeats returns the requested numbers with no matching seat row,
// in request order.  Duplicates are kept as requested.
func missingSeats(requested []int, found []model.Seat) []int {
	have := make(map[int]struct{}, len(found))
	for _, s := range found {
		have[s.SeatNumber] = struct{}{}
	}
	var missing []int
	for _, n := range requested {
		if _, ok := have[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// takenSeats returns the numbers of already booked seats, ascending.
func takenSeats(found []model.Seat) []int {
	var taken []int
	for _, s := range found {
		if s.Booked {
			taken = append(taken, s.SeatNumber)
		}
	}
	sort.Ints(taken)
	return taken
}
