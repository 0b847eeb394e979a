// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook receives Prismic publish notifications and coalesces
// them into site rebuilds.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
)

// Prismic webhook types.
const (
	// TypeAPIUpdate is sent when documents are published or unpublished.
	TypeAPIUpdate = "api-update"
	// TypeTestTrigger is sent by the "Trigger it" button of the webhook settings.
	TypeTestTrigger = "test-trigger"
)

// Payload holds the fields of a Prismic webhook body used to decide on a
// rebuild. Other fields are ignored.
type Payload struct {
	Type      string   `json:"type"`
	Secret    string   `json:"secret,omitempty"`
	Documents []string `json:"documents,omitempty"`
}

// TriggersRebuild reports whether the payload announces content changes.
func (p Payload) TriggersRebuild() bool {
	return p.Type == TypeAPIUpdate
}

// VerifySecret compares a received secret with the configured one in
// constant time.
func VerifySecret(got, want string) bool {
	g := sha256.Sum256([]byte(got))
	w := sha256.Sum256([]byte(want))
	return hmac.Equal(g[:], w[:])
}
