// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"Como utilizar Hooks", "como-utilizar-hooks"},
		{"Criando um app CRA do zero", "criando-um-app-cra-do-zero"},
		{"Ação e reação", "acao-e-reacao"},
		{"  multiple   spaces  ", "multiple-spaces"},
		{"Proin et varius!", "proin-et-varius"},
		{"a--b", "a-b"},
		{"Привет мир", "privet-mir"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsValidUID(t *testing.T) {
	tests := []struct {
		uid  string
		want bool
	}{
		{"como-utilizar-hooks", true},
		{"post_2021", true},
		{"a", true},
		{"", false},
		{"-leading", false},
		{"Upper", false},
		{"with space", false},
		{"../etc/passwd", false},
		{"a/b", false},
		{"ação", false},
		{strings.Repeat("a", MaxUIDLength), true},
		{strings.Repeat("a", MaxUIDLength+1), false},
	}

	for _, tt := range tests {
		if got := IsValidUID(tt.uid); got != tt.want {
			t.Errorf("IsValidUID(%q) = %v, want %v", tt.uid, got, tt.want)
		}
	}
}
