package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
)

const defaultPruneInterval = 6 * time.Hour

// PrunerConfig sizes the chip heartbeat history.
type PrunerConfig struct {
	// RetentionDays of history kept per chip. Zero keeps everything.
	RetentionDays int
	// IntervalHours between passes. Zero means every 6 hours.
	IntervalHours int
}

// HeartbeatPruner trims device_heartbeats in the background. Device
// liveness lives on the device row, so pruning never affects it.
type HeartbeatPruner struct {
	history   store.HeartbeatStore
	retention time.Duration
	every     time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

func NewHeartbeatPruner(history store.HeartbeatStore, cfg PrunerConfig, logger *zap.Logger) *HeartbeatPruner {
	every := time.Duration(cfg.IntervalHours) * time.Hour
	if every <= 0 {
		every = defaultPruneInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeartbeatPruner{
		history:   history,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		every:     every,
		logger:    logger,
	}
}

// Start trims once right away, then on every interval until ctx ends or
// Stop is called. With no retention configured it does nothing.
func (p *HeartbeatPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Info("chip heartbeat history kept indefinitely")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.stopped = make(chan struct{})

	go p.run(ctx, p.stopped)

	p.logger.Info("chip heartbeat pruning scheduled",
		zap.Duration("retention", p.retention),
		zap.Duration("every", p.every))
}

// Stop ends the loop and waits for an in-progress pass to finish. It is
// safe to call more than once, or without Start.
func (p *HeartbeatPruner) Stop() {
	p.mu.Lock()
	cancel, stopped := p.cancel, p.stopped
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

func (p *HeartbeatPruner) run(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)

	p.PruneOnce(ctx)

	t := time.NewTicker(p.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.PruneOnce(ctx)
		}
	}
}

// PruneOnce deletes history rows received before now minus the retention
// and reports how many went.
func (p *HeartbeatPruner) PruneOnce(ctx context.Context) int64 {
	if p.retention <= 0 {
		return 0
	}
	cutoff := time.Now().UTC().Add(-p.retention)
	n, err := p.history.PruneOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Warn("chip heartbeat pruning failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return 0
	}
	if n > 0 {
		p.logger.Info("chip heartbeat history trimmed",
			zap.Int64("rows", n),
			zap.Time("cutoff", cutoff))
	}
	return n
}
