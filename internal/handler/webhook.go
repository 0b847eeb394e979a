// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/olegiv/spacetraveling/internal/webhook"
)

// maxWebhookBody bounds the accepted webhook payload size.
const maxWebhookBody = 64 << 10

// Trigger schedules a rebuild and reports whether it was accepted.
type Trigger interface {
	Trigger() bool
}

// WebhookHandler receives Prismic webhooks and schedules rebuilds.
type WebhookHandler struct {
	trigger Trigger
	secret  string
	logger  *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler. Payloads must carry secret.
func NewWebhookHandler(trigger Trigger, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{trigger: trigger, secret: secret, logger: logger}
}

// Revalidate handles POST /api/revalidate.
func (h *WebhookHandler) Revalidate(w http.ResponseWriter, r *http.Request) {
	var payload webhook.Payload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err := dec.Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if !webhook.VerifySecret(payload.Secret, h.secret) {
		h.logger.Warn("webhook rejected: invalid secret", "type", payload.Type, "remote_addr", r.RemoteAddr)
		writeJSONError(w, http.StatusUnauthorized, "invalid secret")
		return
	}

	queued := false
	if payload.TriggersRebuild() {
		if !h.trigger.Trigger() {
			writeJSONError(w, http.StatusServiceUnavailable, "shutting down")
			return
		}
		queued = true
		h.logger.Info("webhook received, rebuild queued", "type", payload.Type, "documents", len(payload.Documents))
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"queued":  queued,
	})
}
