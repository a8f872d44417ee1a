package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "mysql"), mock
}

func TestSeedStatement(t *testing.T) {
	q, args := seedStatement(7, 3, 5)
	assert.Equal(t,
		"INSERT INTO seats (show_id, seat_number) VALUES (?, ?), (?, ?), (?, ?) ON DUPLICATE KEY UPDATE seat_number = seat_number",
		q)
	assert.Equal(t, []interface{}{uint64(7), 3, uint64(7), 4, uint64(7), 5}, args)
}

func TestFailStalePending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepo(db)
	cutoff := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE bookings SET status = \?, reason = \? WHERE status = \? AND created_at < \?`).
		WithArgs("FAILED", "Pending booking expired", "PENDING", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.FailStalePending(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockByNumbersTx_EmptyInputSkipsQuery(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	tx, err := db.Beginx()
	require.NoError(t, err)

	seats, err := NewSeatRepo(db).LockByNumbersTx(context.Background(), tx, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsForeignKeyViolation(t *testing.T) {
	fk := &mysql.MySQLError{Number: 1452}
	assert.True(t, isForeignKeyViolation(fk))
	assert.True(t, isForeignKeyViolation(fmt.Errorf("exec: %w", fk)))
	assert.False(t, isForeignKeyViolation(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isForeignKeyViolation(errors.New("boom")))
}
