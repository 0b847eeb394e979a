// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package post

import (
	"strings"

	"github.com/olegiv/spacetraveling/internal/richtext"
)

// WordsPerMinute is the assumed reading speed.
const WordsPerMinute = 200

// EstimateReadingTime counts the words of every heading and body and
// returns ceil(words / WordsPerMinute). Empty content reads in 0 minutes.
func EstimateReadingTime(content []ContentBlock) int {
	words := 0
	for _, block := range content {
		words += len(strings.Fields(block.Heading))
		words += len(strings.Fields(richtext.AsText(block.Body)))
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
