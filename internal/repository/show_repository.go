package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/jmoiron/sqlx"
)

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sqlx.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sqlx.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// DB exposes the underlying handle so services can open transactions
// spanning several repositories.
func (r *ShowRepo) DB() *sqlx.DB {
	return r.db
}

// CreateTx inserts s within tx and stores the generated ID on it.
func (r *ShowRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, s *model.Show) error {
	const q = `INSERT INTO shows (name, start_time, total_seats, created_at) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.Name, s.StartTime, s.TotalSeats, s.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound if
// there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	const q = `SELECT id, name, start_time, total_seats, created_at FROM shows WHERE id = ?`
	var s model.Show
	if err := r.db.GetContext(ctx, &s, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns every show ordered by start time ascending.  An empty
// table yields an empty, non-nil slice.
func (r *ShowRepo) List(ctx context.Context) ([]model.Show, error) {
	const q = `SELECT id, name, start_time, total_seats, created_at FROM shows ORDER BY start_time ASC, id ASC`
	shows := []model.Show{}
	if err := r.db.SelectContext(ctx, &shows, q); err != nil {
		return nil, err
	}
	return shows, nil
}

// DeleteTx removes the show row.  Dependent rows must already be gone.
// It returns ErrShowNotFound when nothing was deleted.
func (r *ShowRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrShowNotFound
	}
	return nil
}
