// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pagination drives the "load more" flow of the post list: it owns
// the list for one page view and appends continuation pages on demand.
package pagination

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/spacetraveling/internal/post"
	"github.com/olegiv/spacetraveling/internal/prismic"
)

// Fetcher follows a continuation URL.
type Fetcher interface {
	FetchPage(ctx context.Context, pageURL string) (prismic.Response, error)
}

// State is the controller's loading state.
type State int

const (
	// Idle means no fetch is in flight and more pages may exist.
	Idle State = iota
	// Loading means a continuation fetch is in flight.
	Loading
	// Exhausted means the cursor is empty and no fetch is in flight.
	Exhausted
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Exhausted:
		return "exhausted"
	default:
		return "idle"
	}
}

// request is the in-flight fetch token. At most one exists at a time.
type request struct {
	cursor  string
	started time.Time
}

// Controller holds the post list and cursor of one page view.
// Its methods are safe for concurrent use.
type Controller struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu       sync.Mutex
	posts    []post.Post
	cursor   string
	pages    int
	inflight *request
}

// New creates an empty controller.
func New(fetcher Fetcher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{fetcher: fetcher, logger: logger}
}

// Initialize sets the list and cursor from the first page.
func (c *Controller) Initialize(p post.Pagination) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.posts = append([]post.Post(nil), p.Results...)
	c.cursor = p.NextPage
	c.pages = 1
}

// LoadNext fetches the page at the cursor and appends its results.
// It returns true when a page was appended. It does nothing when the
// list is exhausted or another fetch is in flight. A failed fetch is
// logged and leaves the list and cursor unchanged.
func (c *Controller) LoadNext(ctx context.Context) bool {
	c.mu.Lock()
	if c.cursor == "" || c.inflight != nil {
		c.mu.Unlock()
		return false
	}
	req := &request{cursor: c.cursor, started: time.Now()}
	c.inflight = req
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inflight = nil
		c.mu.Unlock()
	}()

	resp, err := c.fetcher.FetchPage(ctx, req.cursor)
	if err != nil {
		c.logger.Error("Erro no fetch da API Prismic",
			"cursor", req.cursor,
			"duration", time.Since(req.started),
			"error", err,
		)
		return false
	}

	next := post.NormalizeResponse(resp)

	c.mu.Lock()
	c.posts = append(c.posts, next.Results...)
	c.cursor = next.NextPage
	c.pages++
	c.mu.Unlock()
	return true
}

// Posts returns a copy of the list.
func (c *Controller) Posts() []post.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]post.Post(nil), c.posts...)
}

// Cursor returns the next page URL, or "" when exhausted.
func (c *Controller) Cursor() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// HasNext reports whether the cursor is set.
func (c *Controller) HasNext() bool {
	return c.Cursor() != ""
}

// Pages returns how many pages have been received.
func (c *Controller) Pages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages
}

// State returns the current loading state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.inflight != nil:
		return Loading
	case c.cursor == "":
		return Exhausted
	default:
		return Idle
	}
}

// Snapshot returns the list state.
func (c *Controller) Snapshot() post.Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return post.Pagination{
		Results:  append([]post.Post(nil), c.posts...),
		NextPage: c.cursor,
	}
}
