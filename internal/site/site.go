// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package site generates and stores the props of every page: the post
// list, one detail per known post and the list of known paths. Props are
// built ahead of time by Build and generated on demand for posts that
// were published after the last build.
package site

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/olegiv/spacetraveling/internal/cache"
	"github.com/olegiv/spacetraveling/internal/post"
	"github.com/olegiv/spacetraveling/internal/prismic"
)

// ErrThrottled is returned when on-demand generation is rate limited.
var ErrThrottled = errors.New("site: on-demand generation throttled")

// Source is the content API used to build props.
type Source interface {
	Query(ctx context.Context, predicates []prismic.Predicate, opts prismic.QueryOptions) (prismic.Response, error)
	GetByUID(ctx context.Context, docType, uid string) (prismic.Document, error)
	FetchPage(ctx context.Context, pageURL string) (prismic.Response, error)
}

// RefRefresher is implemented by sources that cache the content version
// they query. Build refreshes it so a rebuild never reads an older release.
type RefRefresher interface {
	RefreshRef(ctx context.Context) (string, error)
}

// Options configures a Site.
type Options struct {
	// PageSize is the number of posts per list page.
	PageSize int

	// PropsTTL bounds how long built props are served without a rebuild.
	PropsTTL time.Duration

	// ContinuationTTL bounds how long fetched continuation pages are reused.
	ContinuationTTL time.Duration

	// FallbackWait is how long Resolve waits for on-demand generation.
	FallbackWait time.Duration

	// GenerateTimeout bounds one on-demand generation.
	GenerateTimeout time.Duration

	FallbackRate  rate.Limit
	FallbackBurst int

	Logger *slog.Logger
}

// BuildReport describes the last Build.
type BuildReport struct {
	ID        string        `json:"id"`
	Ref       string        `json:"ref,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Posts     int           `json:"posts"`
	Removed   int           `json:"removed"`
	Error     string        `json:"error,omitempty"`
}

// Site owns the props store.
type Site struct {
	source Source
	opts   Options
	logger *slog.Logger

	home  *cache.TypedCache[post.Pagination]
	posts *cache.TypedCache[post.Detail]
	paths *cache.TypedCache[[]string]
	pages *cache.TypedCache[prismic.Response]

	group   singleflight.Group
	limiter *rate.Limiter

	pathsMu   sync.Mutex
	buildMu   sync.Mutex
	reportMu  sync.RWMutex
	lastBuild BuildReport
}

const (
	homeKey  = "index"
	pathsKey = "all"

	// enumeratePageSize is the page size used to list every post.
	enumeratePageSize = 100
)

// New creates a Site storing props in store.
func New(source Source, store cache.Cache, opts Options) *Site {
	if opts.PageSize <= 0 {
		opts.PageSize = 2
	}
	if opts.PropsTTL <= 0 {
		opts.PropsTTL = time.Hour
	}
	if opts.ContinuationTTL <= 0 {
		opts.ContinuationTTL = time.Minute
	}
	if opts.FallbackWait <= 0 {
		opts.FallbackWait = 2 * time.Second
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = 30 * time.Second
	}
	if opts.FallbackRate == 0 {
		opts.FallbackRate = 2
	}
	if opts.FallbackBurst <= 0 {
		opts.FallbackBurst = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Site{
		source:  source,
		opts:    opts,
		logger:  logger,
		home:    cache.NewTypedCache[post.Pagination](store, "home:", opts.PropsTTL),
		posts:   cache.NewTypedCache[post.Detail](store, "post:", opts.PropsTTL),
		paths:   cache.NewTypedCache[[]string](store, "paths:", opts.PropsTTL),
		pages:   cache.NewTypedCache[prismic.Response](store, "page:", opts.ContinuationTTL),
		limiter: rate.NewLimiter(opts.FallbackRate, opts.FallbackBurst),
	}
}

func postsPredicate() []prismic.Predicate {
	return []prismic.Predicate{prismic.At("document.type", post.DocumentType)}
}

// Home returns the props of the list route: the first page of posts and
// the cursor of the second.
func (s *Site) Home(ctx context.Context) (post.Pagination, error) {
	if p, ok := s.home.Get(ctx, homeKey); ok {
		return *p, nil
	}
	v, err, _ := s.group.Do("home", func() (any, error) {
		return s.buildHome(ctx)
	})
	if err != nil {
		return post.Pagination{}, err
	}
	return v.(post.Pagination), nil
}

func (s *Site) buildHome(ctx context.Context) (post.Pagination, error) {
	resp, err := s.source.Query(ctx, postsPredicate(), prismic.QueryOptions{PageSize: s.opts.PageSize})
	if err != nil {
		return post.Pagination{}, fmt.Errorf("querying posts: %w", err)
	}
	p := post.NormalizeResponse(resp)
	if err := s.home.Set(ctx, homeKey, &p); err != nil {
		s.logger.Warn("failed to store home props", "error", err)
	}
	return p, nil
}

// Paths returns the UIDs of every known post.
func (s *Site) Paths(ctx context.Context) ([]string, error) {
	if p, ok := s.paths.Get(ctx, pathsKey); ok {
		return *p, nil
	}
	v, err, _ := s.group.Do("paths", func() (any, error) {
		details, err := s.enumerate(ctx)
		if err != nil {
			return nil, err
		}
		uids := make([]string, 0, len(details))
		for _, d := range details {
			uids = append(uids, d.UID)
		}
		s.storePaths(ctx, uids)
		return uids, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// enumerate lists every post, following continuation pages.
func (s *Site) enumerate(ctx context.Context) ([]post.Detail, error) {
	resp, err := s.source.Query(ctx, postsPredicate(), prismic.QueryOptions{PageSize: enumeratePageSize})
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	var details []post.Detail
	for {
		for _, doc := range resp.Results {
			if doc.UID == "" {
				continue
			}
			details = append(details, post.NormalizeDetail(doc))
		}
		if resp.NextPage == "" {
			return details, nil
		}
		if resp, err = s.source.FetchPage(ctx, resp.NextPage); err != nil {
			return nil, fmt.Errorf("listing posts: %w", err)
		}
	}
}

func (s *Site) storePaths(ctx context.Context, uids []string) {
	s.pathsMu.Lock()
	defer s.pathsMu.Unlock()
	if err := s.paths.Set(ctx, pathsKey, &uids); err != nil {
		s.logger.Warn("failed to store paths", "error", err)
	}
}

func (s *Site) addPath(ctx context.Context, uid string) {
	s.pathsMu.Lock()
	defer s.pathsMu.Unlock()

	var uids []string
	if p, ok := s.paths.Get(ctx, pathsKey); ok {
		uids = *p
	}
	if slices.Contains(uids, uid) {
		return
	}
	uids = append(uids, uid)
	if err := s.paths.Set(ctx, pathsKey, &uids); err != nil {
		s.logger.Warn("failed to store paths", "error", err)
	}
}

// Post returns the props of a post, generating them when absent.
// It returns prismic.ErrNotFound for unknown UIDs.
func (s *Site) Post(ctx context.Context, uid string) (post.Detail, error) {
	if d, ok := s.posts.Get(ctx, uid); ok {
		return *d, nil
	}
	v, err, _ := s.group.Do("post:"+uid, func() (any, error) {
		return s.generate(ctx, uid)
	})
	if err != nil {
		return post.Detail{}, err
	}
	return v.(post.Detail), nil
}

func (s *Site) generate(ctx context.Context, uid string) (post.Detail, error) {
	start := time.Now()
	doc, err := s.source.GetByUID(ctx, post.DocumentType, uid)
	if err != nil {
		return post.Detail{}, err
	}
	d := post.NormalizeDetail(doc)
	if err := s.posts.Set(ctx, uid, &d); err != nil {
		s.logger.Warn("failed to store post props", "uid", uid, "error", err)
	}
	s.addPath(ctx, uid)
	s.logger.Info("generated post", "uid", uid, "duration", time.Since(start))
	return d, nil
}

// FetchPage follows a continuation URL, reusing recently fetched pages.
func (s *Site) FetchPage(ctx context.Context, pageURL string) (prismic.Response, error) {
	sum := sha256.Sum256([]byte(pageURL))
	key := hex.EncodeToString(sum[:16])

	if r, ok := s.pages.Get(ctx, key); ok {
		return *r, nil
	}
	v, err, _ := s.group.Do("page:"+key, func() (any, error) {
		resp, err := s.source.FetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		_ = s.pages.Set(ctx, key, &resp)
		return resp, nil
	})
	if err != nil {
		return prismic.Response{}, err
	}
	return v.(prismic.Response), nil
}

// Build regenerates the props of every page and drops posts that no
// longer exist. Concurrent calls are serialized.
func (s *Site) Build(ctx context.Context) (BuildReport, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	report := BuildReport{ID: uuid.NewString(), StartedAt: time.Now()}
	err := s.build(ctx, &report)
	report.Duration = time.Since(report.StartedAt)
	if err != nil {
		report.Error = err.Error()
		s.logger.Error("site build failed", "build_id", report.ID, "error", err)
	} else {
		s.logger.Info("site built", "build_id", report.ID, "ref", report.Ref, "posts", report.Posts,
			"removed", report.Removed, "duration", report.Duration)
	}

	s.reportMu.Lock()
	s.lastBuild = report
	s.reportMu.Unlock()
	return report, err
}

func (s *Site) build(ctx context.Context, report *BuildReport) error {
	if r, ok := s.source.(RefRefresher); ok {
		ref, err := r.RefreshRef(ctx)
		if err != nil {
			return fmt.Errorf("refreshing content ref: %w", err)
		}
		report.Ref = ref
	}

	if _, err := s.buildHome(ctx); err != nil {
		return err
	}

	details, err := s.enumerate(ctx)
	if err != nil {
		return err
	}

	var previous []string
	if p, ok := s.paths.Get(ctx, pathsKey); ok {
		previous = *p
	}

	uids := make([]string, 0, len(details))
	for i := range details {
		d := &details[i]
		if err := s.posts.Set(ctx, d.UID, d); err != nil {
			return fmt.Errorf("storing post %s: %w", d.UID, err)
		}
		uids = append(uids, d.UID)
	}

	for _, old := range previous {
		if !slices.Contains(uids, old) {
			_ = s.posts.Delete(ctx, old)
			report.Removed++
		}
	}
	s.storePaths(ctx, uids)
	_ = s.pages.Clear(ctx)

	report.Posts = len(uids)
	return nil
}

// LastBuild returns the report of the most recent Build.
func (s *Site) LastBuild() BuildReport {
	s.reportMu.RLock()
	defer s.reportMu.RUnlock()
	return s.lastBuild
}
