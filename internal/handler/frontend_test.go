// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/olegiv/spacetraveling/internal/site"
	"github.com/olegiv/spacetraveling/internal/testutil"
)

func TestHome_SinglePost(t *testing.T) {
	srv := testutil.NewPrismicServer(t, testutil.PostDoc("hello", "Hello", "World", "Jane"))
	s, _ := newTestSite(t, srv, site.Options{PageSize: 20})
	router := newTestRouter(t, s)

	w := get(t, router, "/")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Equal(t, 1, strings.Count(body, `class="post"`))
	assert.Contains(t, body, "<strong>Hello</strong>")
	assert.Contains(t, body, "<p>World</p>")
	assert.Contains(t, body, "Jane")
	assert.Contains(t, body, `href="/post/hello"`)
	assert.Contains(t, body, "15 mar 2021")
	assert.NotContains(t, body, "Carregar mais posts")
	assert.Contains(t, body, "<title>Home | spacetraveling</title>")
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get(HeaderContentType))
}

func TestHome_Empty(t *testing.T) {
	srv := testutil.NewPrismicServer(t)
	s, _ := newTestSite(t, srv, site.Options{PageSize: 2})

	w := get(t, newTestRouter(t, s), "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Nenhum post encontrado...")
	assert.NotContains(t, w.Body.String(), "Carregar mais posts")
}

func TestHome_LoadMore(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	s, _ := newTestSite(t, srv, site.Options{PageSize: 2})
	router := newTestRouter(t, s)

	first := get(t, router, "/").Body.String()
	assert.Contains(t, first, "<strong>One</strong>")
	assert.Contains(t, first, "<strong>Two</strong>")
	assert.NotContains(t, first, "<strong>Three</strong>")
	assert.Contains(t, first, `href="/?pages=2"`)
	assert.Contains(t, first, "Carregar mais posts")

	second := get(t, router, "/?pages=2").Body.String()
	one := strings.Index(second, "<strong>One</strong>")
	two := strings.Index(second, "<strong>Two</strong>")
	three := strings.Index(second, "<strong>Three</strong>")
	require.True(t, one >= 0 && two > one && three > two, "posts must keep received order")
	assert.NotContains(t, second, "Carregar mais posts")
}

func TestHome_PagesBeyondEnd(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	s, _ := newTestSite(t, srv, site.Options{PageSize: 2})

	w := get(t, newTestRouter(t, s), "/?pages=99")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, strings.Count(w.Body.String(), `class="post"`))
}

func TestHome_FailedContinuationKeepsLoadMore(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	s, _ := newTestSite(t, srv, site.Options{PageSize: 2})
	router := newTestRouter(t, s)

	_, err := s.Build(context.Background())
	require.NoError(t, err)
	srv.FailWith(http.StatusInternalServerError)

	w := get(t, router, "/?pages=2")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, 2, strings.Count(body, `class="post"`))
	assert.Contains(t, body, `href="/?pages=2"`)
}

func TestHome_UpstreamFailure(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	srv.FailWith(http.StatusBadGateway)
	s, _ := newTestSite(t, srv, site.Options{PageSize: 2})

	w := get(t, newTestRouter(t, s), "/")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), msgInternalError)
}

func TestPost_Ready(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	s, _ := newTestSite(t, srv, site.Options{PageSize: 2})
	_, err := s.Build(context.Background())
	require.NoError(t, err)

	w := get(t, newTestRouter(t, s), "/post/two")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "<title>Post | spacetraveling</title>")
	assert.Contains(t, body, "<h1>Two</h1>")
	assert.Contains(t, body, `alt="banner"`)
	assert.Contains(t, body, "1 min")
	assert.Contains(t, body, `id="proin-et-varius"`)
	assert.Contains(t, body, "<strong>Proin et varius</strong>")
	assert.Contains(t, body, "<p>Lorem ipsum dolor sit amet</p>")
	assert.Contains(t, body, `<link rel="canonical" href="https://blog.example.com/post/two">`)
	assert.Contains(t, body, `<script type="application/ld+json">`)
	assert.Contains(t, body, `"headline": "Two"`)
}

func TestPost_GeneratedOnDemand(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	s, _ := newTestSite(t, srv, site.Options{PageSize: 2})

	w := get(t, newTestRouter(t, s), "/post/three")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Three</h1>")

	paths, err := s.Paths(context.Background())
	require.NoError(t, err)
	assert.Contains(t, paths, "three")
}

func TestPost_NotFound(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	s, _ := newTestSite(t, srv, site.Options{PageSize: 2})

	w := get(t, newTestRouter(t, s), "/post/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Post não encontrado")
	assert.Contains(t, w.Body.String(), `content="noindex,nofollow"`)
}

func TestPost_InvalidUIDSkipsAPI(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	s, _ := newTestSite(t, srv, site.Options{PageSize: 2})
	router := newTestRouter(t, s)

	searches := srv.Searches()
	w := get(t, router, "/post/-bad")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, searches, srv.Searches())
}

func TestPost_FallbackWhileGenerating(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	srv.SetDelay(300 * time.Millisecond)
	s, _ := newTestSite(t, srv, site.Options{PageSize: 2, FallbackWait: 10 * time.Millisecond})

	w := get(t, newTestRouter(t, s), "/post/one")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Carregando...")
	assert.Contains(t, body, `<meta http-equiv="refresh" content="1">`)
	assert.Equal(t, "no-store", w.Header().Get(HeaderCacheControl))

	// Generation keeps running and a later request finds the post.
	require.Eventually(t, func() bool {
		d, err := s.Post(context.Background(), "one")
		return err == nil && d.Title == "One"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestPost_Throttled(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	s, _ := newTestSite(t, srv, site.Options{
		PageSize:      2,
		FallbackRate:  rate.Every(time.Hour),
		FallbackBurst: 1,
	})
	router := newTestRouter(t, s)

	assert.Equal(t, http.StatusNotFound, get(t, router, "/post/ghost").Code)

	w := get(t, router, "/post/another-ghost")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get(HeaderRetryAfter))
	assert.Contains(t, w.Body.String(), "Carregando...")
}

func TestNotFoundRoute(t *testing.T) {
	srv := testutil.NewPrismicServer(t)
	s, _ := newTestSite(t, srv, site.Options{})

	w := get(t, newTestRouter(t, s), "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Post não encontrado")
}

func TestFavicon(t *testing.T) {
	srv := testutil.NewPrismicServer(t)
	s, _ := newTestSite(t, srv, site.Options{})

	w := get(t, newTestRouter(t, s), RouteFavicon)
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, FaviconPath, w.Header().Get("Location"))
}

func TestParsePages(t *testing.T) {
	tests := []struct {
		raw   string
		limit int
		want  int
	}{
		{"", 20, 1},
		{"abc", 20, 1},
		{"0", 20, 1},
		{"-3", 20, 1},
		{"1", 20, 1},
		{"4", 20, 4},
		{"50", 20, 20},
	}
	for _, tt := range tests {
		if got := parsePages(tt.raw, tt.limit); got != tt.want {
			t.Errorf("parsePages(%q, %d) = %d, want %d", tt.raw, tt.limit, got, tt.want)
		}
	}
}

func TestHomePage_CustomListURL(t *testing.T) {
	srv := testutil.NewPrismicServer(t, threePosts()...)
	s, _ := newTestSite(t, srv, site.Options{PageSize: 2})
	h := NewFrontendHandler(s, newTestRenderer(t), testutil.TestLoggerSilent(), FrontendConfig{
		MaxListPages: 5,
		ListURL:      func(n int) string { return "/page/" + strconv.Itoa(n) + "/" },
	})

	data, err := h.HomePage(context.Background(), 1)
	require.NoError(t, err)
	view := data.Data.(HomeView)
	assert.Len(t, view.Posts, 2)
	assert.Equal(t, "/page/2/", view.NextURL)
	assert.Equal(t, "spacetraveling", data.SiteName)
}
