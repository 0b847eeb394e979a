// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package richtext models Prismic structured text and serializes it to
// plain text and sanitized HTML.
package richtext

import "strings"

// Block types emitted by the Prismic rich text editor.
const (
	TypeParagraph    = "paragraph"
	TypePreformatted = "preformatted"
	TypeHeading1     = "heading1"
	TypeHeading2     = "heading2"
	TypeHeading3     = "heading3"
	TypeHeading4     = "heading4"
	TypeHeading5     = "heading5"
	TypeHeading6     = "heading6"
	TypeListItem     = "list-item"
	TypeOListItem    = "o-list-item"
	TypeImage        = "image"
	TypeEmbed        = "embed"
)

// Span types.
const (
	SpanStrong    = "strong"
	SpanEm        = "em"
	SpanHyperlink = "hyperlink"
	SpanLabel     = "label"
)

// Span annotates the [Start, End) range of a block's text.
// Offsets are counted in UTF-16 code units, as the Prismic API does.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries link targets and label names.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	ID       string `json:"id,omitempty"`
	UID      string `json:"uid,omitempty"`
	Type     string `json:"type,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Embed is the oEmbed payload of an embed block.
type Embed struct {
	Type         string `json:"type,omitempty"`
	EmbedURL     string `json:"embed_url,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
	Title        string `json:"title,omitempty"`
	HTML         string `json:"html,omitempty"`
}

// Block is one rich text element (a paragraph, heading, list item, image...).
type Block struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Spans  []Span `json:"spans,omitempty"`
	Label  string `json:"label,omitempty"`
	URL    string `json:"url,omitempty"`
	Alt    string `json:"alt,omitempty"`
	Oembed *Embed `json:"oembed,omitempty"`
}

// RichText is an ordered sequence of blocks.
type RichText []Block

// AsText concatenates the text of every block, separated by a single space.
func AsText(rt RichText) string {
	return AsTextJoin(rt, " ")
}

// AsTextJoin concatenates the text of every block using sep.
func AsTextJoin(rt RichText, sep string) string {
	parts := make([]string, 0, len(rt))
	for _, b := range rt {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, sep)
}
