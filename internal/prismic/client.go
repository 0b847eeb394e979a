// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package prismic is a small typed client for the Prismic REST API v2.
//
// It resolves the master ref from the API root, runs predicate searches
// and follows the opaque next_page URLs returned with each page.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// maxResponseSize bounds how much of a response body is decoded.
const maxResponseSize = 10 << 20

var (
	// ErrNotFound is returned when no document matches a lookup.
	ErrNotFound = errors.New("prismic: document not found")

	// ErrForeignCursor is returned when a continuation URL points outside the API host.
	ErrForeignCursor = errors.New("prismic: continuation URL is not on the API host")
)

// Options configures a Client.
type Options struct {
	// Endpoint is the API v2 root, e.g. https://repo.cdn.prismic.io/api/v2
	Endpoint string

	// AccessToken is sent as access_token when set.
	AccessToken string

	// Timeout bounds each HTTP call (default 10s). Ignored when HTTPClient is set.
	Timeout time.Duration

	// RefTTL is how long a resolved master ref is reused (default 30s).
	RefTTL time.Duration

	// HTTPClient overrides the default logging client.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// QueryOptions controls a search.
type QueryOptions struct {
	PageSize int
}

// Client talks to one Prismic repository. It is safe for concurrent use.
type Client struct {
	endpoint    *url.URL
	accessToken string
	http        *http.Client
	logger      *slog.Logger
	refTTL      time.Duration

	refGroup  singleflight.Group
	mu        sync.Mutex
	ref       string
	refLoaded time.Time
}

// New creates a client for the repository at opts.Endpoint.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(opts.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing prismic endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("prismic endpoint must be an absolute http(s) URL: %q", opts.Endpoint)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(opts.Timeout, logger)
	}
	refTTL := opts.RefTTL
	if refTTL == 0 {
		refTTL = 30 * time.Second
	}

	return &Client{
		endpoint:    u,
		accessToken: opts.AccessToken,
		http:        httpClient,
		logger:      logger,
		refTTL:      refTTL,
	}, nil
}

// Query searches documents matching all predicates at the master ref.
func (c *Client) Query(ctx context.Context, predicates []Predicate, opts QueryOptions) (Response, error) {
	ref, err := c.masterRef(ctx)
	if err != nil {
		return Response{}, err
	}

	q := url.Values{}
	q.Set("ref", ref)
	if len(predicates) > 0 {
		q.Set("q", Query(predicates...))
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}

	u := *c.endpoint
	u.Path += "/documents/search"
	u.RawQuery = c.withToken(q).Encode()

	var out Response
	if err := c.getJSON(ctx, "Query", u.String(), &out); err != nil {
		return Response{}, err
	}
	return out, nil
}

// GetByUID returns the document of docType with the given UID.
func (c *Client) GetByUID(ctx context.Context, docType, uid string) (Document, error) {
	resp, err := c.Query(ctx, []Predicate{At("my."+docType+".uid", uid)}, QueryOptions{PageSize: 1})
	if err != nil {
		return Document{}, err
	}
	if len(resp.Results) == 0 {
		return Document{}, ErrNotFound
	}
	return resp.Results[0], nil
}

// FetchPage follows a next_page URL from a previous Response.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (Response, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Response{}, fmt.Errorf("parsing continuation URL: %w", err)
	}
	if u.Scheme != c.endpoint.Scheme || u.Host != c.endpoint.Host {
		return Response{}, ErrForeignCursor
	}
	q := u.Query()
	if c.accessToken != "" && !q.Has("access_token") {
		u.RawQuery = c.withToken(q).Encode()
	}

	var out Response
	if err := c.getJSON(ctx, "FetchPage", u.String(), &out); err != nil {
		return Response{}, err
	}
	return out, nil
}

// masterRef returns the cached master ref, refreshing it after refTTL.
func (c *Client) masterRef(ctx context.Context) (string, error) {
	c.mu.Lock()
	ref, loaded := c.ref, c.refLoaded
	c.mu.Unlock()

	if ref != "" && time.Since(loaded) < c.refTTL {
		return ref, nil
	}
	return c.RefreshRef(ctx)
}

// RefreshRef reads the current master ref from the API root and makes
// later queries use it. Concurrent refreshes share one request.
func (c *Client) RefreshRef(ctx context.Context) (string, error) {
	v, err, _ := c.refGroup.Do("ref", func() (any, error) {
		u := *c.endpoint
		u.RawQuery = c.withToken(url.Values{}).Encode()

		var info apiInfo
		if err := c.getJSON(ctx, "API", u.String(), &info); err != nil {
			return "", err
		}
		ref := info.masterRef()
		if ref == "" {
			return "", errors.New("prismic API: no master ref")
		}

		c.mu.Lock()
		if ref != c.ref {
			c.logger.Debug("prismic master ref changed", "ref", ref)
		}
		c.ref = ref
		c.refLoaded = time.Now()
		c.mu.Unlock()
		return ref, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) withToken(q url.Values) url.Values {
	if c.accessToken != "" {
		q.Set("access_token", c.accessToken)
	}
	return q
}

func (c *Client) getJSON(ctx context.Context, op, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("prismic %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("prismic %s: status=%d body=%s", op, resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("prismic %s: decoding response: %w", op, err)
	}
	return nil
}
