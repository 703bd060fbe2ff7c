package coordinator

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	pkgsync "github.com/arkproject/ark-root-resolver/internal/sync"
)

// jitterFraction bounds the random offset applied to each refresh interval,
// as a fraction of the base interval.
const jitterFraction = 0.1

// Coordinator runs registry refreshes on a schedule.
type Coordinator interface {
	// Start begins the periodic refresh loop. It blocks until the context
	// is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop cancels the refresh loop and waits for it to finish.
	Stop() error
}

// defaultCoordinator is the default implementation of Coordinator.
type defaultCoordinator struct {
	manager  pkgsync.Manager
	interval time.Duration

	// Lifecycle management
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// New creates a coordinator that refreshes through manager at the given
// base interval.
func New(manager pkgsync.Manager, interval time.Duration) Coordinator {
	return &defaultCoordinator{
		manager:  manager,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// jitteredInterval returns the base interval with a random offset of up to
// ±jitterFraction applied, so that multiple instances drift apart instead
// of refreshing in lockstep.
func jitteredInterval(base time.Duration) time.Duration {
	maxOffset := time.Duration(float64(base) * jitterFraction)
	if maxOffset <= 0 {
		return base
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for refresh jitter
	offset := time.Duration(rand.Int64N(int64(2*maxOffset))) - maxOffset
	return base + offset
}

// Start begins the periodic refresh loop.
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting background refresh coordinator", "interval", c.interval)

	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	defer func() {
		close(c.done)
		slog.Info("Background refresh coordinator shut down")
	}()

	ticker := time.NewTicker(jitteredInterval(c.interval))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runRefresh(coordCtx)

			// Recalculate the jitter for the next iteration.
			ticker.Reset(jitteredInterval(c.interval))
		case <-coordCtx.Done():
			slog.Info("Refresh coordinator stopping")
			return nil
		}
	}
}

// Stop cancels the refresh loop and waits for it to finish.
func (c *defaultCoordinator) Stop() error {
	if c.cancelFunc != nil {
		slog.Info("Stopping refresh coordinator")
		c.cancelFunc()
		<-c.done
	}
	return nil
}

// runRefresh executes one scheduled refresh. Errors are logged, never
// propagated: the already published state keeps serving and the next tick
// tries again.
func (c *defaultCoordinator) runRefresh(ctx context.Context) {
	start := time.Now()
	if err := c.manager.EnsureFresh(ctx, false); err != nil {
		slog.Error("Scheduled registry refresh failed",
			"error", err,
			"duration", time.Since(start))
		return
	}
	slog.Debug("Scheduled registry refresh finished", "duration", time.Since(start))
}
