/*
scheduler.go - Automated daily rollover

PURPOSE:
  Periodically checks whether the business day has changed and, when it
  has, creates the new day's opening-stock sheets so they exist before
  the first sale of the day.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Remembers the last day it initialized and skips until the day changes
  - A failed run is retried on the next tick
  - Safe to run next to lazy initialization on read: sheets are created
    with a conditional insert, so whichever runs first wins

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 minute)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRolloverScheduler(coord, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerRollover endpoint (manual rollover)
  - pos/rollover.go: EnsureDay
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/taproom/pos"
)

// RolloverScheduler initializes each new business day's daily sheets.
type RolloverScheduler struct {
	Coord         *pos.Coordinator
	Logger        *slog.Logger
	CheckInterval time.Duration
	Enabled       bool

	lastDay pos.Day
	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewRolloverScheduler creates a new scheduler.
func NewRolloverScheduler(coord *pos.Coordinator, logger *slog.Logger) *RolloverScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RolloverScheduler{
		Coord:         coord,
		Logger:        logger.With("component", "scheduler"),
		CheckInterval: time.Minute,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (rs *RolloverScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.stop = make(chan struct{})
	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	rs.Logger.Info("started", "interval", rs.CheckInterval)
}

// Stop stops the scheduler and waits for a running check to finish.
func (rs *RolloverScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Logger.Info("stopped")
	}
}

func (rs *RolloverScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.checkAndProcess(context.Background())

	for {
		select {
		case <-rs.ticker.C:
			rs.checkAndProcess(context.Background())
		case <-rs.stop:
			return
		}
	}
}

// checkAndProcess initializes today's sheets if it has not done so yet.
// Reports whether a rollover ran.
func (rs *RolloverScheduler) checkAndProcess(ctx context.Context) bool {
	today := rs.Coord.Today()
	if today == rs.lastDay {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sheets, err := rs.Coord.DailyStock(ctx, today)
	if err != nil {
		rs.Logger.Error("rollover failed", "date", today, "error", err)
		return false
	}

	rs.lastDay = today
	rs.Logger.Info("rollover complete", "date", today, "sheets", len(sheets))
	return true
}
