// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/olegiv/spacetraveling/internal/cache"
	"github.com/olegiv/spacetraveling/internal/logging"
	"github.com/olegiv/spacetraveling/internal/site"
	"github.com/olegiv/spacetraveling/internal/version"
)

// recentEvents is how many recorded log events /health returns.
const recentEvents = 10

// BuildReporter exposes the outcome of the last site build.
type BuildReporter interface {
	LastBuild() site.BuildReport
}

// NextRunner reports when the next scheduled rebuild runs.
type NextRunner interface {
	Next() time.Time
}

// PendingReporter reports whether a webhook rebuild is waiting to run.
type PendingReporter interface {
	Pending() bool
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	builds    BuildReporter
	store     cache.Cache
	recorder  *logging.Recorder
	scheduler NextRunner
	rebuilds  PendingReporter
	version   version.Info
	startTime time.Time
}

// HealthDeps holds the optional sources of the health report.
type HealthDeps struct {
	Store     cache.Cache
	Recorder  *logging.Recorder
	Scheduler NextRunner
	Rebuilds  PendingReporter
	Version   version.Info
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(builds BuildReporter, deps HealthDeps) *HealthHandler {
	return &HealthHandler{
		builds:    builds,
		store:     deps.Store,
		recorder:  deps.Recorder,
		scheduler: deps.Scheduler,
		rebuilds:  deps.Rebuilds,
		version:   deps.Version,
		startTime: time.Now(),
	}
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   version.Info     `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Build     *BuildInfo       `json:"build,omitempty"`
	Cache     *cache.Stats     `json:"cache,omitempty"`
	Logs      *LogSummary      `json:"logs,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// BuildInfo describes the last site build and the next scheduled one.
type BuildInfo struct {
	site.BuildReport
	NextRun       *time.Time `json:"next_run,omitempty"`
	RebuildQueued bool       `json:"rebuild_queued,omitempty"`
}

// LogSummary holds recorded warning and error counts and the newest events.
type LogSummary struct {
	Counts map[string]int64 `json:"counts"`
	Recent []logging.Event  `json:"recent"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. It answers 503 until a build has succeeded.
// ?verbose=true adds runtime information.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	buildCheck, build := h.checkBuild()

	overall := "healthy"
	code := http.StatusOK
	if buildCheck.Status != "healthy" {
		overall = "degraded"
		code = http.StatusServiceUnavailable
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks: map[string]Check{
			"build": buildCheck,
			"store": h.checkStore(r),
		},
		Build: build,
	}

	if sp, ok := h.store.(cache.StatsProvider); ok {
		stats := sp.Stats()
		status.Cache = &stats
	}
	if h.recorder != nil {
		status.Logs = &LogSummary{
			Counts: h.recorder.Counts(),
			Recent: h.recorder.Recent(recentEvents),
		}
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = getSystemInfo()
	}

	w.Header().Set(HeaderCacheControl, "no-store")
	writeJSON(w, code, status)
}

// checkBuild reports whether the last site build succeeded.
func (h *HealthHandler) checkBuild() (Check, *BuildInfo) {
	report := h.builds.LastBuild()
	if report.ID == "" {
		return Check{Status: "unhealthy", Message: "site not built yet"}, nil
	}

	info := &BuildInfo{BuildReport: report}
	if h.scheduler != nil {
		if next := h.scheduler.Next(); !next.IsZero() {
			info.NextRun = &next
		}
	}
	if h.rebuilds != nil {
		info.RebuildQueued = h.rebuilds.Pending()
	}

	if report.Error != "" {
		return Check{Status: "unhealthy", Message: report.Error}, info
	}
	return Check{
		Status:  "healthy",
		Message: fmt.Sprintf("%d posts", report.Posts),
		Latency: report.Duration.Round(time.Millisecond).String(),
	}, info
}

// checkStore verifies the props store answers.
func (h *HealthHandler) checkStore(r *http.Request) Check {
	if h.store == nil {
		return Check{Status: "unknown", Message: "no store configured"}
	}
	start := time.Now()
	if _, err := h.store.Has(r.Context(), "health"); err != nil {
		return Check{Status: "unhealthy", Message: err.Error()}
	}
	return Check{
		Status:  "healthy",
		Latency: time.Since(start).Round(time.Microsecond).String(),
	}
}

// getSystemInfo returns system information.
func getSystemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes formats bytes into a human-readable string.
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
