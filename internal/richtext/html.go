// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package richtext

import (
	"html"
	"html/template"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/microcosm-cc/bluemonday"
)

// LinkResolver turns a hyperlink span's data into an href.
type LinkResolver func(SpanData) string

// DefaultLinkResolver links web and media URLs directly and document links
// to their post page.
func DefaultLinkResolver(d SpanData) string {
	switch d.LinkType {
	case "Document":
		if d.UID != "" {
			return "/post/" + d.UID
		}
		return "#"
	default:
		if d.URL != "" {
			return d.URL
		}
		return "#"
	}
}

// Serializer renders rich text as HTML.
type Serializer struct {
	Links  LinkResolver
	Policy *bluemonday.Policy
}

// NewSerializer returns a serializer using DefaultLinkResolver and a policy
// based on bluemonday's UGC policy that also keeps embeds.
func NewSerializer() *Serializer {
	return &Serializer{
		Links:  DefaultLinkResolver,
		Policy: newPolicy(),
	}
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyling()
	p.AllowDataAttributes()
	p.AllowElements("iframe")
	p.AllowAttrs("src", "width", "height", "frameborder", "allow", "allowfullscreen", "title").OnElements("iframe")
	return p
}

var defaultSerializer = NewSerializer()

// AsHTML renders rich text with the default serializer.
func AsHTML(rt RichText) template.HTML {
	return defaultSerializer.HTML(rt)
}

// HTML renders rt and sanitizes the result.
func (s *Serializer) HTML(rt RichText) template.HTML {
	var sb strings.Builder
	for i := 0; i < len(rt); {
		b := rt[i]
		if b.Type == TypeListItem || b.Type == TypeOListItem {
			tag := "ul"
			if b.Type == TypeOListItem {
				tag = "ol"
			}
			sb.WriteString("<" + tag + ">")
			for i < len(rt) && rt[i].Type == b.Type {
				sb.WriteString("<li" + labelAttr(rt[i].Label) + ">")
				sb.WriteString(s.inline(rt[i]))
				sb.WriteString("</li>")
				i++
			}
			sb.WriteString("</" + tag + ">")
			continue
		}
		s.block(&sb, b)
		i++
	}

	out := sb.String()
	if s.Policy != nil {
		out = s.Policy.Sanitize(out)
	}
	return template.HTML(out) //nolint:gosec // sanitized by bluemonday above
}

func (s *Serializer) block(sb *strings.Builder, b Block) {
	switch b.Type {
	case TypeHeading1, TypeHeading2, TypeHeading3, TypeHeading4, TypeHeading5, TypeHeading6:
		tag := "h" + strings.TrimPrefix(b.Type, "heading")
		sb.WriteString("<" + tag + labelAttr(b.Label) + ">" + s.inline(b) + "</" + tag + ">")
	case TypePreformatted:
		sb.WriteString("<pre" + labelAttr(b.Label) + ">" + s.inline(b) + "</pre>")
	case TypeImage:
		if b.URL == "" {
			return
		}
		sb.WriteString(`<p class="block-img"><img src="` + html.EscapeString(b.URL) +
			`" alt="` + html.EscapeString(b.Alt) + `"></p>`)
	case TypeEmbed:
		if b.Oembed == nil {
			return
		}
		sb.WriteString(`<div data-oembed="` + html.EscapeString(b.Oembed.EmbedURL) +
			`" data-oembed-type="` + html.EscapeString(b.Oembed.Type) +
			`" data-oembed-provider="` + html.EscapeString(b.Oembed.ProviderName) + `">` +
			b.Oembed.HTML + `</div>`)
	default:
		sb.WriteString("<p" + labelAttr(b.Label) + ">" + s.inline(b) + "</p>")
	}
}

func labelAttr(label string) string {
	if label == "" {
		return ""
	}
	return ` class="` + html.EscapeString(label) + `"`
}

// spanNode is a span placed in the nesting tree built for one block.
type spanNode struct {
	span       *Span
	start, end int
	children   []*spanNode
}

// inline renders a block's text with its spans applied. Spans that cross
// a sibling's boundary are clipped to keep the markup well nested.
func (s *Serializer) inline(b Block) string {
	units := utf16.Encode([]rune(b.Text))
	root := &spanNode{start: 0, end: len(units)}

	spans := make([]Span, 0, len(b.Spans))
	for _, sp := range b.Spans {
		sp.Start = max(sp.Start, 0)
		sp.End = min(sp.End, len(units))
		if sp.Start < sp.End {
			spans = append(spans, sp)
		}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})

	for i := range spans {
		sp := &spans[i]
		parent := root
		for {
			n := len(parent.children)
			if n == 0 {
				break
			}
			last := parent.children[n-1]
			if sp.Start >= last.end {
				break
			}
			parent = last
		}
		end := min(sp.End, parent.end)
		if sp.Start >= end {
			continue
		}
		parent.children = append(parent.children, &spanNode{span: sp, start: sp.Start, end: end})
	}

	var sb strings.Builder
	s.writeNode(&sb, units, root)
	return sb.String()
}

func (s *Serializer) writeNode(sb *strings.Builder, units []uint16, n *spanNode) {
	open, closing := s.tags(n.span)
	sb.WriteString(open)
	pos := n.start
	for _, c := range n.children {
		writeText(sb, units[pos:c.start])
		s.writeNode(sb, units, c)
		pos = c.end
	}
	writeText(sb, units[pos:n.end])
	sb.WriteString(closing)
}

func (s *Serializer) tags(sp *Span) (string, string) {
	if sp == nil {
		return "", ""
	}
	switch sp.Type {
	case SpanStrong:
		return "<strong>", "</strong>"
	case SpanEm:
		return "<em>", "</em>"
	case SpanHyperlink:
		href := "#"
		if sp.Data != nil && s.Links != nil {
			href = s.Links(*sp.Data)
		}
		return `<a href="` + html.EscapeString(href) + `">`, "</a>"
	case SpanLabel:
		label := ""
		if sp.Data != nil {
			label = sp.Data.Label
		}
		return "<span" + labelAttr(label) + ">", "</span>"
	default:
		return "", ""
	}
}

func writeText(sb *strings.Builder, units []uint16) {
	if len(units) == 0 {
		return
	}
	text := html.EscapeString(string(utf16.Decode(units)))
	sb.WriteString(strings.ReplaceAll(text, "\n", "<br />"))
}
