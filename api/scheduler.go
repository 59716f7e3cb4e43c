// scheduler.go - Automated indicator refresh
//
// PURPOSE:
//   Periodically refreshes the Selic/IPCA snapshot so projections use current
//   rates without waiting on the central bank during a request.
//
// DESIGN:
//   - Runs on a robfig/cron schedule (default "@every 6h")
//   - Refreshes once immediately on start
//   - Every attempt is recorded as a refresh run for audit and UI display
//   - A failed refresh keeps serving the previous snapshot (marked stale)
//
// CONFIGURATION:
//   - Schedule: cron spec or descriptor ("@hourly", "0 */6 * * *")
//   - Enabled:  Whether the scheduler is active (default: true)
//   - Timeout:  Deadline for a single refresh (default: 30s)
//
// USAGE:
//   scheduler := NewRefreshScheduler(handler, "@every 6h")
//   if err := scheduler.Start(); err != nil { ... }
//   // ... later
//   scheduler.Stop()
//
// SEE ALSO:
//   - handlers.go: RefreshIndicators endpoint (manual refresh)
//   - indicators/service.go: Refresh implementation
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// RefreshScheduler handles automated indicator refreshes.
type RefreshScheduler struct {
	Handler  *Handler
	Schedule string
	Enabled  bool
	Timeout  time.Duration

	cron *cron.Cron
	log  zerolog.Logger
	wg   sync.WaitGroup
	mu   sync.Mutex
}

// NewRefreshScheduler creates a new scheduler.
func NewRefreshScheduler(handler *Handler, schedule string) *RefreshScheduler {
	return &RefreshScheduler{
		Handler:  handler,
		Schedule: schedule,
		Enabled:  schedule != "",
		Timeout:  30 * time.Second,
		log:      handler.Log.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers the refresh job and begins the scheduler.
func (rs *RefreshScheduler) Start() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.log.Info().Msg("Disabled, not starting")
		return nil
	}
	if rs.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(rs.Schedule, func() { rs.runOnce(TriggerScheduled) }); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", rs.Schedule, err)
	}
	rs.cron = c

	// Run immediately on start
	rs.wg.Add(1)
	go func() {
		defer rs.wg.Done()
		rs.runOnce(TriggerStartup)
	}()

	c.Start()
	rs.log.Info().Str("schedule", rs.Schedule).Msg("Started")
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (rs *RefreshScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.cron == nil {
		return
	}
	<-rs.cron.Stop().Done()
	rs.wg.Wait()
	rs.cron = nil
	rs.log.Info().Msg("Stopped")
}

func (rs *RefreshScheduler) runOnce(trigger string) {
	ctx, cancel := context.WithTimeout(context.Background(), rs.Timeout)
	defer cancel()

	start := time.Now()
	snap, err := rs.Handler.refreshIndicators(ctx, trigger)
	if err != nil {
		rs.log.Error().Err(err).Str("trigger", trigger).Msg("Refresh failed")
		return
	}
	rs.log.Info().
		Str("trigger", trigger).
		Dur("elapsed", time.Since(start)).
		Float64("net_real_yield", snap.NetRealYield).
		Msg("Refresh completed")
}
