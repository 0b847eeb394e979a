// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/spacetraveling/internal/testutil"
)

type fakeTrigger struct {
	calls  int
	reject bool
}

func (f *fakeTrigger) Trigger() bool {
	f.calls++
	return !f.reject
}

func postWebhook(h *WebhookHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, RouteRevalidate, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Revalidate(w, req)
	return w
}

func TestWebhook_Revalidate(t *testing.T) {
	trigger := &fakeTrigger{}
	h := NewWebhookHandler(trigger, "s3cret", testutil.TestLoggerSilent())

	w := postWebhook(h, `{"type":"api-update","secret":"s3cret","masterRef":"X","documents":["a","b"]}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, trigger.calls)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["queued"])
}

func TestWebhook_TestTrigger(t *testing.T) {
	trigger := &fakeTrigger{}
	h := NewWebhookHandler(trigger, "s3cret", testutil.TestLoggerSilent())

	w := postWebhook(h, `{"type":"test-trigger","secret":"s3cret"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 0, trigger.calls)
	assert.Contains(t, w.Body.String(), `"queued": false`)
}

func TestWebhook_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reject bool
		want   int
	}{
		{"wrong secret", `{"type":"api-update","secret":"nope"}`, false, http.StatusUnauthorized},
		{"missing secret", `{"type":"api-update"}`, false, http.StatusUnauthorized},
		{"malformed", `{"type":`, false, http.StatusBadRequest},
		{"too large", `{"type":"api-update","secret":"` + strings.Repeat("x", maxWebhookBody) + `"}`, false, http.StatusBadRequest},
		{"shutting down", `{"type":"api-update","secret":"s3cret"}`, true, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger := &fakeTrigger{reject: tt.reject}
			h := NewWebhookHandler(trigger, "s3cret", testutil.TestLoggerSilent())

			w := postWebhook(h, tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"success": false`)
		})
	}
}
