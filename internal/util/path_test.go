// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"path/filepath"
	"testing"
)

func TestSafeJoinPath(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name    string
		parts   []string
		want    string
		wantErr bool
	}{
		{"index", []string{"index.html"}, filepath.Join(base, "index.html"), false},
		{"nested", []string{"post", "hello", "index.html"}, filepath.Join(base, "post", "hello", "index.html"), false},
		{"dot segments inside", []string{"post/../page/2/index.html"}, filepath.Join(base, "page", "2", "index.html"), false},
		{"escape", []string{"..", "etc", "passwd"}, "", true},
		{"escape after clean", []string{"post/../../x"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoinPath(base, tt.parts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SafeJoinPath(%v) error = %v, wantErr %v", tt.parts, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SafeJoinPath(%v) = %q, want %q", tt.parts, got, tt.want)
			}
		})
	}
}

func TestValidatePathWithinBase_SiblingPrefix(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	if err := ValidatePathWithinBase(base, base+"-other/index.html"); err == nil {
		t.Error("expected sibling directory with shared prefix to be rejected")
	}
	if err := ValidatePathWithinBase(base, base); err != nil {
		t.Errorf("base itself rejected: %v", err)
	}
}

func TestContainsPathTraversal(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"index.html", false},
		{"post/hello/index.html", false},
		{"static/dist/..css", false},
		{"../index.html", true},
		{"post/../../x", true},
		{"/etc/passwd", true},
		{`post\..\x`, true},
	}
	for _, tt := range tests {
		if got := ContainsPathTraversal(tt.name); got != tt.want {
			t.Errorf("ContainsPathTraversal(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
