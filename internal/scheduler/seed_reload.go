package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/mimic/internal/logger"
	"github.com/MrSnakeDoc/mimic/internal/seed"
)

// SeedLoader loads seed services.
type SeedLoader interface {
	Load(ctx context.Context) (seed.Result, error)
}

// SeedReloader applies seed files at start, then again on every tick and on
// every manual trigger.
type SeedReloader struct {
	loader        SeedLoader
	logger        logger.Logger
	interval      time.Duration // zero disables periodic reloads
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
}

// NewSeedReloader creates a seed reloader
func NewSeedReloader(
	loader SeedLoader,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SeedReloader {
	return &SeedReloader{
		loader:        loader,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the seeds once, then keeps reloading in the background until
// Stop is called or ctx is done.
func (sr *SeedReloader) Start(ctx context.Context) error {
	if err := sr.Reload(ctx); err != nil {
		return fmt.Errorf("initial seed load failed: %w", err)
	}

	// A nil tick channel never fires, leaving only manual triggers.
	var tick <-chan time.Time
	stopTicker := func() {}
	if sr.interval > 0 {
		ticker := time.NewTicker(sr.interval)
		tick = ticker.C
		stopTicker = ticker.Stop
	}

	go sr.loop(ctx, tick, stopTicker)
	return nil
}

func (sr *SeedReloader) loop(ctx context.Context, tick <-chan time.Time, stopTicker func()) {
	defer stopTicker()
	for {
		select {
		case <-tick:
			sr.reloadLogged(ctx)
		case <-sr.manualTrigger:
			sr.logger.Info("manual seed reload triggered")
			sr.reloadLogged(ctx)
		case <-sr.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the reloader. It is safe to call more than once.
func (sr *SeedReloader) Stop() {
	sr.stopOnce.Do(func() { close(sr.stopCh) })
}

// Done returns a channel closed once Stop has been called.
func (sr *SeedReloader) Done() <-chan struct{} {
	return sr.stopCh
}

// Reload applies the seed files once.
func (sr *SeedReloader) Reload(ctx context.Context) error {
	res, err := sr.loader.Load(ctx)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		sr.logger.Warn("some seed files were rejected", logger.Int("failed", res.Failed))
	}
	return nil
}

func (sr *SeedReloader) reloadLogged(ctx context.Context) {
	if err := sr.Reload(ctx); err != nil {
		sr.logger.Error("failed to reload seed files", logger.Error(err))
	}
}
