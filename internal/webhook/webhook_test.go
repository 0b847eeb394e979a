// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olegiv/spacetraveling/internal/testutil"
)

type counter struct {
	runs atomic.Int32
	err  error
}

func (c *counter) run(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("run without deadline")
	}
	c.runs.Add(1)
	return c.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestVerifySecret(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
		ok   bool
	}{
		{"match", "s3cret", "s3cret", true},
		{"mismatch", "s3cret", "other", false},
		{"prefix", "s3c", "s3cret", false},
		{"empty received", "", "s3cret", false},
		{"unicode", "ключ", "ключ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySecret(tt.got, tt.want); got != tt.ok {
				t.Errorf("VerifySecret(%q, %q) = %v, want %v", tt.got, tt.want, got, tt.ok)
			}
		})
	}
}

func TestPayload_TriggersRebuild(t *testing.T) {
	if !(Payload{Type: TypeAPIUpdate}).TriggersRebuild() {
		t.Error("api-update should trigger a rebuild")
	}
	if (Payload{Type: TypeTestTrigger}).TriggersRebuild() {
		t.Error("test-trigger should not trigger a rebuild")
	}
	if (Payload{}).TriggersRebuild() {
		t.Error("empty type should not trigger a rebuild")
	}
}

func TestDefaultDebounceConfig(t *testing.T) {
	cfg := DefaultDebounceConfig()
	if cfg.Interval != 2*time.Second {
		t.Errorf("Interval = %v, want 2s", cfg.Interval)
	}
	if cfg.MaxWait != 10*time.Second {
		t.Errorf("MaxWait = %v, want 10s", cfg.MaxWait)
	}
	if cfg.MaxWait < cfg.Interval {
		t.Error("MaxWait should not be shorter than Interval")
	}
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	c := &counter{}
	d := NewDebouncer(c.run, DebounceConfig{Interval: 50 * time.Millisecond, MaxWait: time.Second}, testutil.TestLoggerSilent())
	defer d.Stop()

	for i := 0; i < 5; i++ {
		if !d.Trigger() {
			t.Fatal("Trigger() = false before Stop")
		}
	}
	if !d.Pending() {
		t.Error("Pending() = false right after Trigger")
	}

	waitFor(t, func() bool { return c.runs.Load() == 1 })
	time.Sleep(100 * time.Millisecond)
	if got := c.runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
	if d.Pending() {
		t.Error("Pending() = true after run")
	}
}

func TestDebouncer_MaxWait(t *testing.T) {
	c := &counter{}
	d := NewDebouncer(c.run, DebounceConfig{Interval: time.Hour, MaxWait: 20 * time.Millisecond}, testutil.TestLoggerSilent())
	defer d.Stop()

	d.Trigger()
	time.Sleep(30 * time.Millisecond)
	d.Trigger()

	waitFor(t, func() bool { return c.runs.Load() == 1 })
}

func TestDebouncer_StopRunsPendingAndRejects(t *testing.T) {
	c := &counter{err: errors.New("upstream down")}
	d := NewDebouncer(c.run, DebounceConfig{Interval: time.Hour}, testutil.TestLoggerSilent())

	d.Trigger()
	d.Stop()

	if got := c.runs.Load(); got != 1 {
		t.Errorf("runs after Stop = %d, want 1", got)
	}
	if d.Trigger() {
		t.Error("Trigger() after Stop should return false")
	}
}
