// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// MinInterval is the shortest allowed gap between rebuilds. Every rebuild
// pages through the whole content repository.
const MinInterval = time.Minute

// ValidateSchedule checks that spec is a standard cron expression or a
// descriptor such as "@hourly" or "@every 10m", and that it does not fire
// more often than MinInterval.
func ValidateSchedule(spec string) error {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	first := sched.Next(time.Now())
	if first.IsZero() {
		return fmt.Errorf("schedule %q never fires", spec)
	}
	if gap := sched.Next(first).Sub(first); gap < MinInterval {
		return fmt.Errorf("schedule %q fires every %s, minimum is %s", spec, gap, MinInterval)
	}
	return nil
}
