// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package post holds the blog's view model and turns raw Prismic
// documents into it.
package post

import (
	"time"

	"github.com/olegiv/spacetraveling/internal/richtext"
)

// DocumentType is the Prismic custom type holding blog posts.
const DocumentType = "posts"

// Post is a list entry. Title, Subtitle and Author are always plain strings.
type Post struct {
	UID                  string     `json:"uid,omitempty"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	Title                string     `json:"title"`
	Subtitle             string     `json:"subtitle"`
	Author               string     `json:"author"`
}

// ContentBlock is one titled section of a post body.
type ContentBlock struct {
	Heading string            `json:"heading"`
	Body    richtext.RichText `json:"body"`
}

// Banner is the post's header image.
type Banner struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Detail is a full post as shown on its own page.
type Detail struct {
	Post
	LastPublicationDate *time.Time     `json:"last_publication_date,omitempty"`
	Banner              Banner         `json:"banner"`
	Content             []ContentBlock `json:"content"`
}

// ReadingTime returns the estimated minutes needed to read the post.
func (d Detail) ReadingTime() int {
	return EstimateReadingTime(d.Content)
}

// Pagination is the list state: results in received order and the cursor
// for the next page. An empty NextPage means there are no more pages.
type Pagination struct {
	Results  []Post `json:"results"`
	NextPage string `json:"next_page"`
}

// HasNext reports whether another page can be fetched.
func (p Pagination) HasNext() bool {
	return p.NextPage != ""
}
