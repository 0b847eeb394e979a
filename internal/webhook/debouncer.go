// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DebounceConfig holds debouncer configuration.
type DebounceConfig struct {
	// Interval is the debounce window duration.
	// Triggers within this window are coalesced into a single run.
	Interval time.Duration
	// MaxWait is the maximum time to wait before running.
	// Even if triggers keep coming, run after this time.
	MaxWait time.Duration
	// Timeout bounds a single run.
	Timeout time.Duration
}

// DefaultDebounceConfig returns default debounce configuration.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		Interval: 2 * time.Second,  // Coalesce a publish burst
		MaxWait:  10 * time.Second, // Always run within 10 seconds
		Timeout:  2 * time.Minute,
	}
}

// RunFunc is the work performed once per coalesced burst.
type RunFunc func(ctx context.Context) error

// pendingRun tracks a debounced run.
type pendingRun struct {
	timer     *time.Timer
	firstSeen time.Time
	triggers  int
}

// Debouncer coalesces rapid-fire triggers into single runs.
type Debouncer struct {
	run    RunFunc
	config DebounceConfig
	logger *slog.Logger

	mu      sync.Mutex
	pending *pendingRun
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDebouncer creates a new debouncer calling run.
func NewDebouncer(run RunFunc, config DebounceConfig, logger *slog.Logger) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultDebounceConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.MaxWait <= 0 {
		config.MaxWait = defaults.MaxWait
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Debouncer{
		run:    run,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Trigger schedules a run. If one is already pending its timer is reset,
// unless MaxWait has passed since the first trigger, in which case it runs
// immediately. It returns false after Stop.
func (d *Debouncer) Trigger() bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}

	if pr := d.pending; pr != nil {
		pr.triggers++
		if now.Sub(pr.firstSeen) >= d.config.MaxWait {
			d.runLocked()
			return true
		}
		pr.timer.Reset(d.config.Interval)
		d.logger.Debug("debounced rebuild updated",
			"triggers", pr.triggers,
			"wait_time", now.Sub(pr.firstSeen))
		return true
	}

	pr := &pendingRun{firstSeen: now, triggers: 1}
	pr.timer = time.AfterFunc(d.config.Interval, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.pending == pr {
			d.runLocked()
		}
	})
	d.pending = pr
	d.logger.Debug("debounced rebuild queued")
	return true
}

// runLocked starts the pending run. Must be called with lock held.
func (d *Debouncer) runLocked() {
	pr := d.pending
	if pr == nil {
		return
	}
	pr.timer.Stop()
	d.pending = nil

	d.wg.Add(1)
	go func(triggers int) {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(d.ctx, d.config.Timeout)
		defer cancel()
		if err := d.run(ctx); err != nil {
			d.logger.Error("webhook rebuild failed", "triggers", triggers, "error", err)
			return
		}
		d.logger.Info("webhook rebuild finished", "triggers", triggers)
	}(pr.triggers)
}

// Stop starts a pending run, waits for running ones to finish and
// rejects further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.runLocked()
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
}

// Pending reports whether a run is waiting for its debounce window.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
