package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/jmoiron/sqlx"
)

// seedChunkSize caps the rows per seeding INSERT so large shows stay
// under max_allowed_packet.
const seedChunkSize = 500

// SeatRepo manages the per-show seat inventory.
type SeatRepo struct {
	db *sqlx.DB
}

// NewSeatRepo returns a SeatRepo bound to db.
func NewSeatRepo(db *sqlx.DB) *SeatRepo { return &SeatRepo{db: db} }

// ListByShow returns the seats of a show ordered by seat number.  It is
// a plain read and takes no locks.  An unknown show yields an empty
// slice.
func (r *SeatRepo) ListByShow(ctx context.Context, showID uint64) ([]model.Seat, error) {
	const q = `SELECT id, show_id, seat_number, booked, booking_id
               FROM seats
               WHERE show_id = ?
               ORDER BY seat_number ASC`
	seats := []model.Seat{}
	if err := r.db.SelectContext(ctx, &seats, q, showID); err != nil {
		return nil, err
	}
	return seats, nil
}

// LockByNumbersTx reads the seats of showID whose numbers appear in
// numbers and takes a row lock on each of them until tx ends.  Rows are
// locked in ascending seat number order so concurrent callers always
// acquire locks in the same order.  Numbers that do not exist are simply
// absent from the result.
func (r *SeatRepo) LockByNumbersTx(ctx context.Context, tx *sqlx.Tx, showID uint64, numbers []int) ([]model.Seat, error) {
	if len(numbers) == 0 {
		return []model.Seat{}, nil
	}
	q, args, err := sqlx.In(`SELECT id, show_id, seat_number, booked, booking_id
               FROM seats
               WHERE show_id = ? AND seat_number IN (?)
               ORDER BY seat_number ASC
               FOR UPDATE`, showID, numbers)
	if err != nil {
		return nil, err
	}
	seats := []model.Seat{}
	if err := tx.SelectContext(ctx, &seats, tx.Rebind(q), args...); err != nil {
		return nil, err
	}
	return seats, nil
}

// MarkBookedTx flags the given seat rows as booked by bookingID.
func (r *SeatRepo) MarkBookedTx(ctx context.Context, tx *sqlx.Tx, bookingID uint64, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`UPDATE seats SET booked = TRUE, booking_id = ? WHERE id IN (?)`, bookingID, seatIDs)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(q), args...)
	return err
}

// SeedTx creates seats 1..total for showID.  Existing seat numbers are
// left untouched, so running it again never creates duplicates.
func (r *SeatRepo) SeedTx(ctx context.Context, tx *sqlx.Tx, showID uint64, total int) error {
	for start := 1; start <= total; start += seedChunkSize {
		end := start + seedChunkSize - 1
		if end > total {
			end = total
		}
		q, args := seedStatement(showID, start, end)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// seedStatement builds one multi-row insert for seat numbers [from, to].
// The no-op ON DUPLICATE KEY clause skips existing (show_id, seat_number)
// pairs without hiding foreign key errors the way INSERT IGNORE would.
func seedStatement(showID uint64, from, to int) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`INSERT INTO seats (show_id, seat_number) VALUES `)
	args := make([]interface{}, 0, (to-from+1)*2)
	for n := from; n <= to; n++ {
		if n > from {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?)")
		args = append(args, showID, n)
	}
	b.WriteString(` ON DUPLICATE KEY UPDATE seat_number = seat_number`)
	return b.String(), args
}

// DeleteByShowTx removes every seat of a show.
func (r *SeatRepo) DeleteByShowTx(ctx context.Context, tx *sqlx.Tx, showID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE show_id = ?`, showID)
	return err
}
