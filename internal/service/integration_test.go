package service

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/seat-booking/internal/clock"
	"github.com/iliyamo/seat-booking/internal/database"
	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/iliyamo/seat-booking/internal/repository"
	"github.com/iliyamo/seat-booking/internal/worker"
)

// These tests need a disposable MySQL database, for example
// TEST_MYSQL_DSN="root:secret@tcp(127.0.0.1:3306)/seats_test?parseTime=true&loc=UTC".

type integrationEnv struct {
	db       *sqlx.DB
	engine   *BookingEngine
	shows    *ShowService
	bookings *repository.BookingRepo
}

func setupIntegration(t *testing.T) *integrationEnv {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set; skipping MySQL integration test")
	}
	db, err := database.OpenDSN(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	logger, _ := test.NewNullLogger()
	clk := clock.System{}
	seats := repository.NewSeatRepo(db)
	bookings := repository.NewBookingRepo(db)
	return &integrationEnv{
		db:       db,
		engine:   NewBookingEngine(db, seats, bookings, clk, nil, logger),
		shows:    NewShowService(db, repository.NewShowRepo(db), seats, bookings, clk, logger),
		bookings: bookings,
	}
}

func (env *integrationEnv) newShow(t *testing.T, seats int) uint64 {
	t.Helper()
	show, err := env.shows.CreateShow(context.Background(), fmt.Sprintf("%s-%d", t.Name(), time.Now().UnixNano()), time.Now().Add(time.Hour), seats)
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.shows.DeleteShow(context.Background(), show.ID) })
	return show.ID
}

func TestIntegration_DisjointRequestsAllConfirm(t *testing.T) {
	env := setupIntegration(t)
	showID := env.newShow(t, 40)

	var confirmed atomic.Int32
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 20; i++ {
		seats := []int{2*i + 1, 2*i + 2}
		g.Go(func() error {
			b, err := env.engine.AttemptBooking(ctx, showID, "disjoint@example.com", seats)
			if err != nil {
				return err
			}
			if b.Status == model.BookingConfirmed {
				confirmed.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(20), confirmed.Load())

	seats, err := env.engine.ListSeats(context.Background(), showID)
	require.NoError(t, err)
	for _, s := range seats {
		assert.True(t, s.Booked, "seat %d", s.SeatNumber)
		assert.True(t, s.BookingID.Valid)
	}
}

func TestIntegration_OverlappingRequestsConfirmAtMostOnce(t *testing.T) {
	env := setupIntegration(t)
	showID := env.newShow(t, 10)

	var confirmed, conflicted atomic.Int32
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			b, err := env.engine.AttemptBooking(ctx, showID, "race@example.com", []int{3, 4})
			if err != nil {
				return err
			}
			switch out := b.Outcome().(type) {
			case model.Confirmed:
				confirmed.Add(1)
			case model.Failed:
				if assert.Equal(t, model.ReasonSeatsTaken, out.Reason) {
					assert.Equal(t, []int{3, 4}, out.ConflictSeats())
				}
				conflicted.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), confirmed.Load())
	assert.Equal(t, int32(15), conflicted.Load())
}

func TestIntegration_PartialOverlapReportsConflict(t *testing.T) {
	env := setupIntegration(t)
	showID := env.newShow(t, 5)
	ctx := context.Background()

	first, err := env.engine.AttemptBooking(ctx, showID, "u1@example.com", []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, first.Status)

	second, err := env.engine.AttemptBooking(ctx, showID, "u2@example.com", []int{2, 3})
	require.NoError(t, err)
	out, ok := second.Outcome().(model.Failed)
	require.True(t, ok)
	assert.Equal(t, []int{2}, out.ConflictSeats())

	seats, err := env.engine.ListSeats(ctx, showID)
	require.NoError(t, err)
	assert.False(t, seats[2].Booked, "seat 3 must stay free")

	stored, err := env.engine.GetBooking(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReasonSeatsTaken, stored.Reason.String)
	assert.Equal(t, model.SeatNumbers{2}, stored.FailedSeats)
}

func TestIntegration_MissingSeatsWin(t *testing.T) {
	env := setupIntegration(t)
	showID := env.newShow(t, 5)
	ctx := context.Background()

	_, err := env.engine.AttemptBooking(ctx, showID, "u1@example.com", []int{1})
	require.NoError(t, err)

	b, err := env.engine.AttemptBooking(ctx, showID, "u2@example.com", []int{1, 999})
	require.NoError(t, err)
	out := b.Outcome().(model.Failed)
	assert.Equal(t, []int{999}, out.Missing())
	assert.Nil(t, out.ConflictSeats())
}

func TestIntegration_UnknownShow(t *testing.T) {
	env := setupIntegration(t)

	_, err := env.engine.AttemptBooking(context.Background(), 1<<40, "ghost@example.com", []int{1})
	assert.ErrorIs(t, err, repository.ErrShowNotFound)
}

func TestIntegration_ConcurrentSeedingNeverDuplicates(t *testing.T) {
	env := setupIntegration(t)
	showID := env.newShow(t, 700)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 4; i++ {
		g.Go(func() error { return env.shows.SeedSeats(ctx, showID, 700) })
	}
	require.NoError(t, g.Wait())

	seats, err := env.engine.ListSeats(context.Background(), showID)
	require.NoError(t, err)
	require.Len(t, seats, 700)
	for i, s := range seats {
		assert.Equal(t, i+1, s.SeatNumber)
	}
}

func TestIntegration_ReaperFailsOnlyStalePending(t *testing.T) {
	env := setupIntegration(t)
	showID := env.newShow(t, 3)
	ctx := context.Background()
	now := time.Now().UTC()

	insert := func(createdAt time.Time) uint64 {
		b := &model.Booking{ShowID: showID, UserEmail: "stuck@example.com", SeatNumbers: model.SeatNumbers{1}, CreatedAt: createdAt}
		require.NoError(t, database.WithTx(ctx, env.db, nil, func(tx *sqlx.Tx) error {
			return env.bookings.CreatePendingTx(ctx, tx, b)
		}))
		return b.ID
	}
	stale := insert(now.Add(-10 * time.Minute))
	fresh := insert(now.Add(-30 * time.Second))

	logger, _ := test.NewNullLogger()
	r := worker.NewReaper(env.bookings, clock.NewFixed(now), time.Hour, 2*time.Minute, logger)
	n, err := r.SweepOnce(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	got, err := env.engine.GetBooking(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, model.BookingFailed, got.Status)
	assert.Equal(t, model.ReasonPendingExpired, got.Reason.String)

	got, err = env.engine.GetBooking(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, got.Status)
}

func TestIntegration_DeleteShowCascades(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()
	show, err := env.shows.CreateShow(ctx, "doomed", time.Now(), 4)
	require.NoError(t, err)
	b, err := env.engine.AttemptBooking(ctx, show.ID, "x@example.com", []int{1})
	require.NoError(t, err)

	require.NoError(t, env.shows.DeleteShow(ctx, show.ID))

	_, err = env.shows.GetShow(ctx, show.ID)
	assert.ErrorIs(t, err, repository.ErrShowNotFound)
	_, err = env.engine.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
	seats, err := env.engine.ListSeats(ctx, show.ID)
	require.NoError(t, err)
	assert.Empty(t, seats)
	assert.ErrorIs(t, env.shows.DeleteShow(ctx, show.ID), repository.ErrShowNotFound)
}
