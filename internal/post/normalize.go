// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package post

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/spacetraveling/internal/prismic"
	"github.com/olegiv/spacetraveling/internal/richtext"
)

// rawData is the "posts" custom type as stored in Prismic.
type rawData struct {
	Title    richtext.Field `json:"title"`
	Subtitle richtext.Field `json:"subtitle"`
	Author   richtext.Field `json:"author"`
	Banner   struct {
		URL string `json:"url"`
		Alt string `json:"alt"`
	} `json:"banner"`
	Content []struct {
		Heading richtext.Field    `json:"heading"`
		Body    richtext.RichText `json:"body"`
	} `json:"content"`
}

// Prismic emits timestamps with a colon-less offset.
var timeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
}

// Text flattens a text-bearing field: the first run's text when the field
// holds runs, the string itself when it is plain, and "" otherwise.
func Text(f richtext.Field) string {
	switch f.Kind() {
	case richtext.FieldRuns:
		if runs := f.Runs(); len(runs) > 0 {
			return runs[0].Text
		}
		return ""
	case richtext.FieldPlain:
		return f.Plain()
	default:
		return ""
	}
}

// Normalize converts a raw document into a list entry.
func Normalize(doc prismic.Document) Post {
	data := decode(doc)
	return Post{
		UID:                  doc.UID,
		FirstPublicationDate: parseTime(doc.FirstPublicationDate),
		Title:                Text(data.Title),
		Subtitle:             Text(data.Subtitle),
		Author:               Text(data.Author),
	}
}

// NormalizeDetail converts a raw document into a full post. Banner URL and
// body runs are passed through untouched and block order is preserved.
func NormalizeDetail(doc prismic.Document) Detail {
	data := decode(doc)

	content := make([]ContentBlock, 0, len(data.Content))
	for _, c := range data.Content {
		content = append(content, ContentBlock{
			Heading: Text(c.Heading),
			Body:    c.Body,
		})
	}

	return Detail{
		Post: Post{
			UID:                  doc.UID,
			FirstPublicationDate: parseTime(doc.FirstPublicationDate),
			Title:                Text(data.Title),
			Subtitle:             Text(data.Subtitle),
			Author:               Text(data.Author),
		},
		LastPublicationDate: parseTime(doc.LastPublicationDate),
		Banner:              Banner{URL: data.Banner.URL, Alt: data.Banner.Alt},
		Content:             content,
	}
}

// NormalizeResponse converts one search page into list state.
func NormalizeResponse(resp prismic.Response) Pagination {
	return Pagination{
		Results:  NormalizeAll(resp.Results),
		NextPage: resp.NextPage,
	}
}

// NormalizeAll converts documents in order.
func NormalizeAll(docs []prismic.Document) []Post {
	posts := make([]Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, Normalize(d))
	}
	return posts
}

// decode reads the custom type fields. Fields of an unexpected shape are
// left empty while the rest of the payload is still decoded.
func decode(doc prismic.Document) rawData {
	var data rawData
	if len(doc.Data) == 0 {
		return data
	}
	if err := json.Unmarshal(doc.Data, &data); err != nil {
		slog.Debug("unexpected post data shape", "uid", doc.UID, "error", err)
	}
	return data
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
