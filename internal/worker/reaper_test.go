package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/seat-booking/internal/clock"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

// memStore mimics the conditional UPDATE: only PENDING rows older than
// the cutoff change.
type memStore struct {
	mu      sync.Mutex
	created map[uint64]time.Time
	status  map[uint64]string
	cutoffs []time.Time
	err     error
	panicV  interface{}
}

func newMemStore() *memStore {
	return &memStore{created: map[uint64]time.Time{}, status: map[uint64]string{}}
}

func (m *memStore) add(id uint64, createdAt time.Time, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created[id] = createdAt
	m.status[id] = status
}

func (m *memStore) get(id uint64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status[id]
}

func (m *memStore) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cutoffs)
}

func (m *memStore) FailStalePending(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, cutoff)
	if m.panicV != nil {
		panic(m.panicV)
	}
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for id, st := range m.status {
		if st == "PENDING" && m.created[id].Before(cutoff) {
			m.status[id] = "FAILED"
			n++
		}
	}
	return n, nil
}

func newTestReaper(store StaleBookingFailer, clk clock.Clock, interval time.Duration) *Reaper {
	logger, _ := test.NewNullLogger()
	return NewReaper(store, clk, interval, 2*time.Minute, logger)
}

func TestSweepOnce_UsesClockCutoff(t *testing.T) {
	store := newMemStore()
	r := newTestReaper(store, clock.NewFixed(t0), time.Hour)

	_, err := r.SweepOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, store.cutoffs, 1)
	assert.Equal(t, t0.Add(-2*time.Minute), store.cutoffs[0])
}

func TestSweepOnce_OnlyStalePendingBookings(t *testing.T) {
	store := newMemStore()
	store.add(1, t0.Add(-3*time.Minute), "PENDING")
	store.add(2, t0.Add(-1*time.Minute), "PENDING")
	store.add(3, t0.Add(-10*time.Minute), "CONFIRMED")
	r := newTestReaper(store, clock.NewFixed(t0), time.Hour)

	n, err := r.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "FAILED", store.get(1))
	assert.Equal(t, "PENDING", store.get(2))
	assert.Equal(t, "CONFIRMED", store.get(3))

	stats := r.Stats()
	assert.Equal(t, int64(1), stats.TotalSwept)
	assert.Equal(t, int64(1), stats.LastSwept)
	assert.Equal(t, t0, stats.LastSweepAt)
}

func TestSweepOnce_NotBeforeThreshold(t *testing.T) {
	store := newMemStore()
	clk := clock.NewFixed(t0)
	store.add(1, t0, "PENDING")
	r := newTestReaper(store, clk, time.Hour)

	clk.Advance(2 * time.Minute) // exactly at the threshold: not yet stale
	_, err := r.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PENDING", store.get(1))

	clk.Advance(time.Second)
	_, err = r.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "FAILED", store.get(1))
}

func TestSweepOnce_RecoversPanic(t *testing.T) {
	store := newMemStore()
	store.panicV = "driver bug"
	r := newTestReaper(store, clock.NewFixed(t0), time.Hour)

	var err error
	assert.NotPanics(t, func() { _, err = r.SweepOnce(context.Background()) })
	assert.ErrorContains(t, err, "driver bug")
}

func TestStart_KeepsRunningAfterErrors(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("deadlock found")
	r := newTestReaper(store, clock.NewFixed(t0), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.calls() >= 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, r.Stats().Running)
	assert.Zero(t, r.Stats().TotalSwept)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
	assert.False(t, r.Stats().Running)
}

func TestStartReaper_StopWaitsForLoop(t *testing.T) {
	store := newMemStore()
	store.add(1, t0.Add(-time.Hour), "PENDING")
	logger, _ := test.NewNullLogger()

	r := StartReaper(context.Background(), store, clock.NewFixed(t0), 5*time.Millisecond, time.Minute, logger)
	assert.True(t, r.Stats().Running)

	assert.Eventually(t, func() bool { return store.get(1) == "FAILED" }, time.Second, 5*time.Millisecond)

	r.Stop()
	assert.False(t, r.Stats().Running)
	calls := store.calls()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, store.calls())
}

func TestNewReaper_Defaults(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := NewReaper(newMemStore(), clock.System{}, 0, -1, logger)
	assert.Equal(t, DefaultReapInterval, r.interval)
	assert.Equal(t, DefaultStaleAfter, r.staleAfter)
}
