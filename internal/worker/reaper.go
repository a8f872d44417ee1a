// Package worker runs background jobs of the booking service.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/seat-booking/internal/clock"
	"github.com/iliyamo/seat-booking/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	DefaultReapInterval = 30 * time.Second
	DefaultStaleAfter   = 2 * time.Minute
)

// StaleBookingFailer fails every PENDING booking created before cutoff
// and reports how many it changed.  repository.BookingRepo implements it.
type StaleBookingFailer interface {
	FailStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReaperStats is a snapshot of the reaper's progress.
type ReaperStats struct {
	Running     bool      `json:"running"`
	TotalSwept  int64     `json:"total_swept"`
	LastSweepAt time.Time `json:"last_sweep_at"`
	LastSwept   int64     `json:"last_swept"`
}

// Reaper periodically fails bookings stuck in PENDING for longer than
// its stale threshold.  It never touches seats.
type Reaper struct {
	store      StaleBookingFailer
	clock      clock.Clock
	interval   time.Duration
	staleAfter time.Duration
	log        logrus.FieldLogger

	mu      sync.Mutex
	stats   ReaperStats
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewReaper builds a reaper.  Non-positive durations fall back to the
// defaults.
func NewReaper(store StaleBookingFailer, clk clock.Clock, interval, staleAfter time.Duration, log logrus.FieldLogger) *Reaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Reaper{
		store:      store,
		clock:      clk,
		interval:   interval,
		staleAfter: staleAfter,
		log:        log.WithField("component", "reaper"),
	}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called.
// It blocks; run it in its own goroutine.  Calling Start on a running
// reaper returns immediately.
func (r *Reaper) Start(ctx context.Context) {
	ctx, ok := r.begin(ctx)
	if !ok {
		return
	}
	r.run(ctx)
}

// begin marks the reaper running and derives the loop context.  It
// reports false when a loop is already running.
func (r *Reaper) begin(ctx context.Context) (context.Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stats.Running {
		return nil, false
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.stopped = make(chan struct{})
	r.stats.Running = true
	return ctx, true
}

func (r *Reaper) run(ctx context.Context) {
	r.mu.Lock()
	cancel, stopped := r.cancel, r.stopped
	r.mu.Unlock()
	defer func() {
		cancel()
		r.mu.Lock()
		r.stats.Running = false
		r.mu.Unlock()
		close(stopped)
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.WithFields(logrus.Fields{"interval": r.interval, "stale_after": r.staleAfter}).Info("reaper started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("reaper stopped")
			return
		case <-ticker.C:
			_, _ = r.SweepOnce(ctx)
		}
	}
}

// Stop cancels a running loop and waits for it to exit.  It is a no-op
// when the reaper is not running.
func (r *Reaper) Stop() {
	r.mu.Lock()
	cancel, stopped := r.cancel, r.stopped
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

// SweepOnce runs a single sweep.  Failures are logged and returned but
// never stop the loop; a panic inside the sweep is recovered and
// reported as an error.
func (r *Reaper) SweepOnce(ctx context.Context) (n int64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("reaper sweep panicked: %v", p)
		}
		metrics.ObserveSweep(n, err)
		if err != nil {
			r.log.WithError(err).Error("sweep failed")
			return
		}
		r.record(n)
	}()

	cutoff := r.clock.Now().Add(-r.staleAfter)
	n, err = r.store.FailStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.WithFields(logrus.Fields{"swept": n, "cutoff": cutoff}).Info("expired stale pending bookings")
	}
	return n, nil
}

func (r *Reaper) record(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.TotalSwept += n
	r.stats.LastSwept = n
	r.stats.LastSweepAt = r.clock.Now()
}

// Stats returns a snapshot of the reaper's counters.
func (r *Reaper) Stats() ReaperStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// StartReaper starts a reaper in the background and returns it.  The
// loop ends when ctx is cancelled.
func StartReaper(ctx context.Context, store StaleBookingFailer, clk clock.Clock, interval, staleAfter time.Duration, log logrus.FieldLogger) *Reaper {
	r := NewReaper(store, clk, interval, staleAfter, log)
	loopCtx, _ := r.begin(ctx)
	go r.run(loopCtx)
	return r
}
