package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/seat-booking/internal/clock"
	"github.com/iliyamo/seat-booking/internal/database"
	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/iliyamo/seat-booking/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// ErrInvalidSeatCount is returned when a seat count is not within
// [1, model.MaxSeatsPerShow].
var ErrInvalidSeatCount = errors.New("total_seats out of range")

func validSeatCount(n int) bool {
	return n > 0 && n <= model.MaxSeatsPerShow
}

// ShowService creates, lists and deletes shows together with their seat
// inventory.
type ShowService struct {
	db       *sqlx.DB
	shows    *repository.ShowRepo
	seats    *repository.SeatRepo
	bookings *repository.BookingRepo
	clock    clock.Clock
	log      logrus.FieldLogger
}

func NewShowService(db *sqlx.DB, shows *repository.ShowRepo, seats *repository.SeatRepo,
	bookings *repository.BookingRepo, clk clock.Clock, log logrus.FieldLogger) *ShowService {
	return &ShowService{
		db:       db,
		shows:    shows,
		seats:    seats,
		bookings: bookings,
		clock:    clk,
		log:      log.WithField("component", "show-service"),
	}
}

// CreateShow inserts a show and seeds seats 1..totalSeats in the same
// transaction, so a show never exists without its seats.
func (s *ShowService) CreateShow(ctx context.Context, name string, startTime time.Time, totalSeats int) (*model.Show, error) {
	if !validSeatCount(totalSeats) {
		return nil, ErrInvalidSeatCount
	}
	show := &model.Show{
		Name:       name,
		StartTime:  startTime.UTC(),
		TotalSeats: uint32(totalSeats),
		CreatedAt:  s.clock.Now(),
	}
	err := database.WithTx(ctx, s.db, nil, func(tx *sqlx.Tx) error {
		if err := s.shows.CreateTx(ctx, tx, show); err != nil {
			return fmt.Errorf("insert show: %w", err)
		}
		if err := s.seats.SeedTx(ctx, tx, show.ID, totalSeats); err != nil {
			return fmt.Errorf("seed seats: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"show_id": show.ID, "total_seats": totalSeats}).Info("show created")
	return show, nil
}

// SeedSeats ensures seats 1..n exist for showID.  It is idempotent:
// re-running it never duplicates seats.
func (s *ShowService) SeedSeats(ctx context.Context, showID uint64, n int) error {
	if !validSeatCount(n) {
		return ErrInvalidSeatCount
	}
	return database.WithTx(ctx, s.db, nil, func(tx *sqlx.Tx) error {
		return s.seats.SeedTx(ctx, tx, showID, n)
	})
}

// ListShows returns all shows ordered by start time.
func (s *ShowService) ListShows(ctx context.Context) ([]model.Show, error) {
	return s.shows.List(ctx)
}

// GetShow returns a show or repository.ErrShowNotFound.
func (s *ShowService) GetShow(ctx context.Context, id uint64) (*model.Show, error) {
	return s.shows.GetByID(ctx, id)
}

// DeleteShow removes a show with its bookings and seats in one
// transaction.  It returns repository.ErrShowNotFound when the show does
// not exist.
func (s *ShowService) DeleteShow(ctx context.Context, id uint64) error {
	err := database.WithTx(ctx, s.db, nil, func(tx *sqlx.Tx) error {
		if err := s.bookings.DeleteByShowTx(ctx, tx, id); err != nil {
			return fmt.Errorf("delete bookings: %w", err)
		}
		if err := s.seats.DeleteByShowTx(ctx, tx, id); err != nil {
			return fmt.Errorf("delete seats: %w", err)
		}
		return s.shows.DeleteTx(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.log.WithField("show_id", id).Info("show deleted")
	return nil
}
