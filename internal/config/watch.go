package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

// DeviceConfigWatcher reloads the device_config section whenever the
// config file changes and hands the result to apply. A file that fails to
// parse is logged and the previous config stays in effect.
type DeviceConfigWatcher struct {
	path     string
	apply    func(types.DeviceConfig)
	logger   *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

func NewDeviceConfigWatcher(path string, apply func(types.DeviceConfig), logger *zap.Logger) *DeviceConfigWatcher {
	return &DeviceConfigWatcher{
		path:     filepath.Clean(path),
		apply:    apply,
		logger:   logger,
		debounce: 250 * time.Millisecond,
	}
}

// Start watches the file's directory rather than the file itself, since
// editors and config managers usually replace the file by rename.
func (w *DeviceConfigWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("config watcher: watch %s: %w", filepath.Dir(w.path), err)
	}

	w.watcher = fw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	go w.run(ctx)
	w.logger.Info("device config watcher started", zap.String("path", w.path))
	return nil
}

// Stop is idempotent and safe to call without Start.
func (w *DeviceConfigWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
	_ = w.watcher.Close()
}

func (w *DeviceConfigWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			// Rapid saves collapse into one reload.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("device config watcher error", zap.Error(err))

		case <-timerCh:
			timerCh = nil
			w.reload()
		}
	}
}

func (w *DeviceConfigWatcher) reload() {
	cfg, err := LoadDeviceConfig(w.path)
	if err != nil {
		w.logger.Warn("device config reload failed; keeping previous", zap.Error(err))
		return
	}
	w.apply(cfg)
	w.logger.Info("device config reloaded",
		zap.Int("heartbeat_interval_sec", cfg.HeartbeatIntervalSec),
		zap.Int("features", len(cfg.Features)),
	)
}
