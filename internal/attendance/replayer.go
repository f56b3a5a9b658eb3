package attendance

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultReplayInterval = time.Minute

// Replayer drains the queue in the background: once at Start, then on
// every tick. There is no backoff beyond the interval.
type Replayer struct {
	queue    *Queue
	deliver  DeliverFunc
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

func NewReplayer(q *Queue, deliver DeliverFunc, interval time.Duration, logger *zap.Logger) *Replayer {
	if interval <= 0 {
		interval = DefaultReplayInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Replayer{queue: q, deliver: deliver, interval: interval, logger: logger}
}

func (r *Replayer) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.loop(ctx)

	r.logger.Info("attendance replayer started", zap.Duration("interval", r.interval))
}

// Stop cancels the loop and waits for an in-flight pass to return.
func (r *Replayer) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done
}

// RunOnce performs a single pass. The CLI's replay command uses it
// directly.
func (r *Replayer) RunOnce(ctx context.Context) (ReplayReport, error) {
	report, err := r.queue.Process(ctx, r.deliver)
	if err != nil {
		r.logger.Warn("replay pass failed", zap.Error(err))
		return report, err
	}
	if report.Attempted > 0 {
		r.logger.Info("replay pass",
			zap.Int("attempted", report.Attempted),
			zap.Int("delivered", report.Delivered),
			zap.Int("rejected", report.Rejected),
			zap.Int("remaining", report.Remaining),
		)
	}
	return report, nil
}

func (r *Replayer) loop(ctx context.Context) {
	defer close(r.done)

	_, _ = r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = r.RunOnce(ctx)
		}
	}
}
