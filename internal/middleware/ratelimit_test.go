// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/?pages=3", nil)
	req.RemoteAddr = addr
	return req
}

func TestClientRateLimiter(t *testing.T) {
	handler := NewClientRateLimiter(1, 2, silentLogger()).Middleware(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, requestFrom("10.0.0.1:5000"))
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst requests should pass: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
}

func TestClientRateLimiter_DifferentClients(t *testing.T) {
	handler := NewClientRateLimiter(1, 1, silentLogger()).Middleware(okHandler)

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.1:2"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, requestFrom(addr))
		want := http.StatusOK
		if addr == "10.0.0.1:2" {
			// Same host, different port: same client.
			want = http.StatusTooManyRequests
		}
		if rr.Code != want {
			t.Errorf("%s: status = %d, want %d", addr, rr.Code, want)
		}
	}
}

func TestClientRateLimiter_RetryAfter(t *testing.T) {
	handler := NewClientRateLimiter(0.001, 1, silentLogger()).Middleware(okHandler)

	handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.9:1"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestFrom("10.0.0.9:1"))

	if rr.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q", rr.Header().Get("Retry-After"))
	}
}

func TestClientIP(t *testing.T) {
	tests := map[string]string{
		"192.168.1.5:4000": "192.168.1.5",
		"[::1]:8080":       "::1",
		"203.0.113.7":      "203.0.113.7",
	}
	for addr, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		if got := clientIP(req); got != want {
			t.Errorf("clientIP(%q) = %q, want %q", addr, got, want)
		}
	}
}

func TestLimiterCacheResetsWhenFull(t *testing.T) {
	lc := newLimiterCache(1, 1)
	for i := 0; i < maxTrackedClients+1; i++ {
		lc.get(strconv.Itoa(i))
	}
	lc.mu.RLock()
	n := len(lc.limiters)
	lc.mu.RUnlock()
	if n > maxTrackedClients {
		t.Errorf("limiters = %d, want <= %d", n, maxTrackedClients)
	}
}
