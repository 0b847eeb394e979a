// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler rebuilds the site's generated pages on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/spacetraveling/internal/site"
)

// DefaultBuildTimeout bounds a single scheduled rebuild.
const DefaultBuildTimeout = 2 * time.Minute

// Builder regenerates the site.
type Builder interface {
	Build(ctx context.Context) (site.BuildReport, error)
}

// Scheduler runs Builder.Build on a cron schedule.
type Scheduler struct {
	builder  Builder
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	entry   cron.EntryID
	started bool
}

// New creates a scheduler. An empty schedule disables revalidation.
func New(builder Builder, schedule string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		builder:  builder,
		schedule: schedule,
		timeout:  DefaultBuildTimeout,
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger:   logger,
	}
}

// Start validates the schedule and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("revalidation disabled")
		return nil
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(s.schedule, s.revalidate)
	if err != nil {
		return err
	}
	s.entry = id
	s.started = true
	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.schedule, "next", s.cron.Entry(id).Next)
	return nil
}

// Stop waits for a running rebuild to finish and stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if !started {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Next returns the time of the next scheduled rebuild, or zero when the
// scheduler is not running.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// revalidate rebuilds the site once.
func (s *Scheduler) revalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.builder.Build(ctx)
	if err != nil {
		s.logger.Error("scheduled build failed", "build_id", report.ID, "error", err)
		return
	}
	s.logger.Info("scheduled build finished",
		"build_id", report.ID,
		"posts", report.Posts,
		"removed", report.Removed,
		"duration", report.Duration,
	)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
