// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/spacetraveling/internal/cache"
	"github.com/olegiv/spacetraveling/internal/prismic"
	"github.com/olegiv/spacetraveling/internal/render"
	"github.com/olegiv/spacetraveling/internal/seo"
	"github.com/olegiv/spacetraveling/internal/site"
	"github.com/olegiv/spacetraveling/internal/testutil"
	"github.com/olegiv/spacetraveling/internal/uikit"
	"github.com/olegiv/spacetraveling/web"
)

const testSiteURL = "https://blog.example.com"

func testSEO() *seo.SiteConfig {
	return &seo.SiteConfig{
		SiteName:        "spacetraveling",
		SiteURL:         testSiteURL,
		SiteDescription: "Blog de teste",
	}
}

// newTestSite creates a site backed by srv and an in-memory store.
func newTestSite(t *testing.T, srv *testutil.PrismicServer, opts site.Options) (*site.Site, cache.Cache) {
	t.Helper()

	client, err := prismic.New(prismic.Options{Endpoint: srv.Endpoint(), Logger: testutil.TestLoggerSilent()})
	require.NoError(t, err)

	store := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Hour})
	t.Cleanup(func() { _ = store.Close() })

	opts.Logger = testutil.TestLoggerSilent()
	return site.New(client, store, opts), store
}

// newTestRenderer parses the embedded templates.
func newTestRenderer(t *testing.T) *render.Renderer {
	t.Helper()

	templates, err := fs.Sub(web.Templates, "templates")
	require.NoError(t, err)

	r, err := render.New(render.Config{TemplatesFS: templates, Funcs: uikit.TemplateFuncs(nil)})
	require.NoError(t, err)
	return r
}

// newTestRouter wires the page and SEO routes the way main does.
func newTestRouter(t *testing.T, s *site.Site) http.Handler {
	t.Helper()

	logger := testutil.TestLoggerSilent()
	frontend := NewFrontendHandler(s, newTestRenderer(t), logger, FrontendConfig{SEO: testSEO(), MaxListPages: 20})
	seoHandler := NewSEOHandler(s, logger, testSiteURL, false)

	r := chi.NewRouter()
	r.Get(RouteRoot, frontend.Home)
	r.Get(RoutePost, frontend.Post)
	r.Get(RouteSitemap, seoHandler.Sitemap)
	r.Get(RouteRobots, seoHandler.Robots)
	r.Get(RouteFavicon, frontend.Favicon)
	r.NotFound(frontend.NotFound)
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func threePosts() []map[string]any {
	return []map[string]any{
		testutil.PostDoc("one", "One", "First", "Ana"),
		testutil.PostDoc("two", "Two", "Second", "Bia"),
		testutil.PostDoc("three", "Three", "Third", "Caio"),
	}
}
