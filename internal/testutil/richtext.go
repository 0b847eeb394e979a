// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package testutil

import "github.com/olegiv/spacetraveling/internal/richtext"

// Paragraph builds a paragraph block without spans.
func Paragraph(text string) richtext.Block {
	return richtext.Block{Type: richtext.TypeParagraph, Text: text}
}
