// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SafeJoinPath joins an export-relative name onto base and fails if the
// result would land outside base.
func SafeJoinPath(base string, components ...string) (string, error) {
	full := filepath.Join(append([]string{base}, components...)...)
	if err := ValidatePathWithinBase(base, full); err != nil {
		return "", err
	}
	return full, nil
}

// ValidatePathWithinBase reports an error when target escapes base.
func ValidatePathWithinBase(base, target string) error {
	absBase, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}
	absTarget, err := filepath.Abs(filepath.Clean(target))
	if err != nil {
		return fmt.Errorf("invalid target path: %w", err)
	}
	// Trailing separator so /out-other does not match /out.
	if absTarget != absBase && !strings.HasPrefix(absTarget, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes %q", target, base)
	}
	return nil
}

// ContainsPathTraversal reports whether a slash-separated archive entry
// name is absolute or climbs above its root.
func ContainsPathTraversal(name string) bool {
	if strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
		return true
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
