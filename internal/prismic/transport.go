// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package prismic

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// loggingRoundTripper logs every outbound call and propagates X-Request-Id.
type loggingRoundTripper struct {
	inner  http.RoundTripper
	logger *slog.Logger
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	requestID := middleware.GetReqID(req.Context())
	if requestID == "" {
		requestID = req.Header.Get("X-Request-Id")
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req = req.Clone(req.Context())
	req.Header.Set("X-Request-Id", requestID)

	resp, err := l.inner.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		l.logger.Warn("prismic request failed",
			"method", req.Method,
			"url", redactedURL(req),
			"duration", duration,
			"request_id", requestID,
			"error", err,
		)
		return nil, err
	}

	l.logger.Debug("prismic request",
		"method", req.Method,
		"url", redactedURL(req),
		"status", resp.StatusCode,
		"duration", duration,
		"request_id", requestID,
	)
	return resp, nil
}

// redactedURL hides the access token from logs.
func redactedURL(req *http.Request) string {
	u := *req.URL
	q := u.Query()
	if q.Has("access_token") {
		q.Set("access_token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func newHTTPClient(timeout time.Duration, logger *slog.Logger) *http.Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingRoundTripper{inner: http.DefaultTransport, logger: logger},
	}
}
