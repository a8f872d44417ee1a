package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/jmoiron/sqlx"
)

// BookingRepo persists bookings and their status transitions.
type BookingRepo struct {
	db *sqlx.DB
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreatePendingTx inserts b as PENDING and stores the generated ID on it.
// SeatNumbers is written exactly as supplied.  A reference to an unknown
// show is reported as ErrShowNotFound.
func (r *BookingRepo) CreatePendingTx(ctx context.Context, tx *sqlx.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (show_id, user_email, seat_numbers, status, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.ShowID, b.UserEmail, b.SeatNumbers, model.BookingPending, b.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("create booking for show %d: %w", b.ShowID, ErrShowNotFound)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.Status = model.BookingPending
	return nil
}

// ConfirmTx moves a booking to CONFIRMED.
func (r *BookingRepo) ConfirmTx(ctx context.Context, tx *sqlx.Tx, id uint64) error {
	const q = `UPDATE bookings SET status = ?, reason = NULL, failed_seats = NULL WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, model.BookingConfirmed, id)
	return err
}

// FailTx moves a booking to FAILED with the given reason and offending
// seat numbers.  seats may be nil.
func (r *BookingRepo) FailTx(ctx context.Context, tx *sqlx.Tx, id uint64, reason string, seats model.SeatNumbers) error {
	const q = `UPDATE bookings SET status = ?, reason = ?, failed_seats = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, model.BookingFailed, reason, seats, id)
	return err
}

// GetByID returns a booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, show_id, user_email, seat_numbers, status, reason, failed_seats, created_at
               FROM bookings WHERE id = ?`
	var b model.Booking
	if err := r.db.GetContext(ctx, &b, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// FailStalePending fails every PENDING booking created before cutoff in
// a single statement and returns how many rows changed.  The status
// predicate is evaluated by the UPDATE itself, so a booking that reached
// a terminal state in the meantime is never touched.
func (r *BookingRepo) FailStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `UPDATE bookings SET status = ?, reason = ?
               WHERE status = ? AND created_at < ?`
	res, err := r.db.ExecContext(ctx, q, model.BookingFailed, model.ReasonPendingExpired, model.BookingPending, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByShowTx removes every booking of a show.
func (r *BookingRepo) DeleteByShowTx(ctx context.Context, tx *sqlx.Tx, showID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE show_id = ?`, showID)
	return err
}
