// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package uikit provides the template helpers shared by the site pages.
package uikit

import (
	"fmt"
	"html/template"
	"time"

	"github.com/olegiv/spacetraveling/internal/post"
	"github.com/olegiv/spacetraveling/internal/richtext"
	"github.com/olegiv/spacetraveling/internal/util"
)

// MonthsPtBR contains abbreviated Brazilian Portuguese month names.
var MonthsPtBR = []string{
	"jan", "fev", "mar", "abr", "mai", "jun",
	"jul", "ago", "set", "out", "nov", "dez",
}

// TemplateFuncs returns the helpers available to every page template.
// Rich text is rendered with s; a nil serializer uses the default one.
//
// Callers can merge project-specific functions on top:
//
//	funcs := uikit.TemplateFuncs(nil)
//	funcs["myFunc"] = myProjectFunc
func TemplateFuncs(s *richtext.Serializer) template.FuncMap {
	richText := richtext.AsHTML
	if s != nil {
		richText = s.HTML
	}
	return template.FuncMap{
		// Content
		"richText": richText,
		"readingTime": func(d post.Detail) int {
			return d.ReadingTime()
		},
		"anchor": util.Slugify,

		// Time
		"formatDate": func(t any) string {
			return ApplyTimeFormatter(t, FormatDate)
		},
		"isoDate": func(t any) string {
			return ApplyTimeFormatter(t, func(t time.Time) string {
				return t.UTC().Format(time.RFC3339)
			})
		},
	}
}

// FormatDate renders t as "dd MMM yyyy" in pt-BR, e.g. "15 mar 2021".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), MonthsPtBR[t.Month()-1], t.Year())
}

// ApplyTimeFormatter applies a time formatting function to a value that may be time.Time or *time.Time.
// Returns an empty string for nil pointers or unsupported types.
func ApplyTimeFormatter(t any, formatter func(time.Time) string) string {
	switch v := t.(type) {
	case time.Time:
		return formatter(v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return formatter(*v)
	default:
		return ""
	}
}
