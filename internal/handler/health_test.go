// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/spacetraveling/internal/logging"
	"github.com/olegiv/spacetraveling/internal/site"
	"github.com/olegiv/spacetraveling/internal/testutil"
	"github.com/olegiv/spacetraveling/internal/version"
)

type fixedNext time.Time

func (n fixedNext) Next() time.Time { return time.Time(n) }

type queuedRebuild bool

func (q queuedRebuild) Pending() bool { return bool(q) }

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) HealthStatus {
	t.Helper()
	var status HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	return status
}

func TestHealth_NotBuilt(t *testing.T) {
	srv := testutil.NewPrismicServer(t)
	s, store := newTestSite(t, srv, site.Options{})
	h := NewHealthHandler(s, HealthDeps{Store: store})

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, RouteHealth, nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	status := decodeHealth(t, w)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "site not built yet", status.Checks["build"].Message)
	assert.Nil(t, status.Build)
}

func TestHealth_Built(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	s, store := newTestSite(t, srv, site.Options{PageSize: 2})
	_, err := s.Build(context.Background())
	require.NoError(t, err)

	recorder := logging.NewRecorder(10)
	logger := slog.New(logging.NewHandler(slog.NewTextHandler(io.Discard, nil), recorder))
	logger.Warn("redis unavailable")

	next := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	h := NewHealthHandler(s, HealthDeps{
		Store:     store,
		Recorder:  recorder,
		Scheduler: fixedNext(next),
		Rebuilds:  queuedRebuild(true),
		Version:   version.Info{Version: "v1.2.3"},
	})

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, RouteHealth, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get(HeaderCacheControl))
	assert.Equal(t, "application/json", w.Header().Get(HeaderContentType))

	status := decodeHealth(t, w)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "v1.2.3", status.Version.Version)
	assert.Equal(t, "3 posts", status.Checks["build"].Message)
	assert.Equal(t, "healthy", status.Checks["store"].Status)
	require.NotNil(t, status.Build)
	assert.Equal(t, 3, status.Build.Posts)
	require.NotNil(t, status.Build.NextRun)
	assert.True(t, status.Build.NextRun.Equal(next))
	assert.True(t, status.Build.RebuildQueued)
	assert.Equal(t, testutil.MasterRef, status.Build.Ref)
	require.NotNil(t, status.Cache)
	assert.Equal(t, "memory", status.Cache.Backend)
	require.NotNil(t, status.Logs)
	assert.Equal(t, int64(1), status.Logs.Counts["WARN"])
	require.Len(t, status.Logs.Recent, 1)
	assert.Equal(t, "redis unavailable", status.Logs.Recent[0].Message)
	assert.Nil(t, status.System)
}

func TestHealth_FailedBuild(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	srv.FailWith(http.StatusInternalServerError)
	s, _ := newTestSite(t, srv, site.Options{})
	_, err := s.Build(context.Background())
	require.Error(t, err)

	h := NewHealthHandler(s, HealthDeps{})
	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, RouteHealth, nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	status := decodeHealth(t, w)
	assert.Equal(t, "unhealthy", status.Checks["build"].Status)
	assert.NotEmpty(t, status.Checks["build"].Message)
	assert.Equal(t, "unknown", status.Checks["store"].Status)
}

func TestHealth_Verbose(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	s, _ := newTestSite(t, srv, site.Options{})
	_, err := s.Build(context.Background())
	require.NoError(t, err)

	h := NewHealthHandler(s, HealthDeps{})
	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, RouteHealth+"?verbose=true", nil))

	status := decodeHealth(t, w)
	require.NotNil(t, status.System)
	assert.NotEmpty(t, status.System.GoVersion)
	assert.Positive(t, status.System.NumCPU)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes uint64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
