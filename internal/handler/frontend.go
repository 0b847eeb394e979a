// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler serves the generated pages, the SEO documents and the
// health check.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/spacetraveling/internal/pagination"
	"github.com/olegiv/spacetraveling/internal/post"
	"github.com/olegiv/spacetraveling/internal/render"
	"github.com/olegiv/spacetraveling/internal/seo"
	"github.com/olegiv/spacetraveling/internal/site"
	"github.com/olegiv/spacetraveling/internal/util"
)

// FallbackRefresh is how many seconds the fallback page waits before reloading.
const FallbackRefresh = 1

// HomeView is the data of the list page.
type HomeView struct {
	Posts   []post.Post
	NextURL string // empty when every page has been loaded
}

// FrontendConfig configures the page handlers.
type FrontendConfig struct {
	SEO *seo.SiteConfig

	// MaxListPages caps the number of list pages rendered at once.
	MaxListPages int

	// ListURL returns the URL of the list showing the first n pages.
	// Defaults to "/?pages=n".
	ListURL func(n int) string
}

// FrontendHandler handles the public pages.
type FrontendHandler struct {
	site     *site.Site
	renderer *render.Renderer
	logger   *slog.Logger
	seo      *seo.SiteConfig
	maxPages int
	listURL  func(int) string
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(s *site.Site, renderer *render.Renderer, logger *slog.Logger, cfg FrontendConfig) *FrontendHandler {
	if cfg.SEO == nil {
		cfg.SEO = &seo.SiteConfig{SiteName: "spacetraveling"}
	}
	if cfg.MaxListPages < 1 {
		cfg.MaxListPages = 1
	}
	if cfg.ListURL == nil {
		cfg.ListURL = QueryListURL
	}
	return &FrontendHandler{
		site:     s,
		renderer: renderer,
		logger:   logger,
		seo:      cfg.SEO,
		maxPages: cfg.MaxListPages,
		listURL:  cfg.ListURL,
	}
}

// QueryListURL is the list URL served by Home.
func QueryListURL(n int) string {
	return RouteRoot + "?" + QueryPages + "=" + strconv.Itoa(n)
}

// Home handles GET / and renders the first ?pages=N pages of the list.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	pages := parsePages(r.URL.Query().Get(QueryPages), h.maxPages)

	data, err := h.HomePage(r.Context(), pages)
	if err != nil {
		h.logger.Error("failed to build post list", "pages", pages, "error", err)
		http.Error(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	h.render(w, http.StatusOK, render.PageHome, data)
}

// HomePage builds the list page showing up to pages pages. A fresh
// controller starts from the prebuilt first page and loads the rest; a
// failed continuation ends the list early and keeps the "load more" link.
func (h *FrontendHandler) HomePage(ctx context.Context, pages int) (render.TemplateData, error) {
	first, err := h.site.Home(ctx)
	if err != nil {
		return render.TemplateData{}, err
	}

	ctrl := pagination.New(h.site, h.logger)
	ctrl.Initialize(first)
	for ctrl.Pages() < pages && ctrl.HasNext() {
		if !ctrl.LoadNext(ctx) {
			break
		}
	}

	list := ctrl.Snapshot()
	view := HomeView{Posts: list.Results}
	if list.HasNext() {
		view.NextURL = h.listURL(ctrl.Pages() + 1)
	}

	return render.TemplateData{
		SiteName: h.seo.SiteName,
		Meta:     seo.BuildMeta(nil, h.seo),
		Data:     view,
	}, nil
}

// Post handles GET /post/{uid}.
func (h *FrontendHandler) Post(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if !util.IsValidUID(uid) {
		h.NotFound(w, r)
		return
	}

	res, err := h.site.Resolve(r.Context(), uid)
	switch {
	case errors.Is(err, site.ErrThrottled):
		h.logger.Warn("on-demand generation throttled", "uid", uid)
		w.Header().Set(HeaderRetryAfter, strconv.Itoa(FallbackRefresh))
		h.renderFallback(w, http.StatusServiceUnavailable)
		return
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		h.logger.Error("failed to resolve post", "uid", uid, "error", err)
		http.Error(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	switch res.Status {
	case site.StatusReady:
		h.render(w, http.StatusOK, render.PagePost, h.PostPage(res.Detail))
	case site.StatusPending:
		h.renderFallback(w, http.StatusOK)
	default:
		h.NotFound(w, r)
	}
}

// PostPage builds the detail page of a post.
func (h *FrontendHandler) PostPage(d post.Detail) render.TemplateData {
	page := seo.PostPage(d)
	return render.TemplateData{
		SiteName: h.seo.SiteName,
		Meta:     seo.BuildMeta(page, h.seo),
		Schema:   seo.BuildArticleSchema(page, h.seo),
		Data:     d,
	}
}

// NotFound renders the themed 404 page.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, _ *http.Request) {
	h.render(w, http.StatusNotFound, render.PageNotFound, h.NotFoundPage())
}

// NotFoundPage builds the 404 page.
func (h *FrontendHandler) NotFoundPage() render.TemplateData {
	return render.TemplateData{
		SiteName: h.seo.SiteName,
		Meta:     seo.BuildMeta(&seo.PageData{Title: "404", NoIndex: true}, h.seo),
	}
}

// Favicon redirects the legacy favicon path to the bundled icon.
func (h *FrontendHandler) Favicon(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, FaviconPath, http.StatusMovedPermanently)
}

// renderFallback serves the loading page that reloads until the post is generated.
func (h *FrontendHandler) renderFallback(w http.ResponseWriter, status int) {
	w.Header().Set(HeaderCacheControl, "no-store")
	h.render(w, status, render.PageFallback, render.TemplateData{
		SiteName: h.seo.SiteName,
		Meta:     seo.BuildMeta(&seo.PageData{Title: "Post", NoIndex: true}, h.seo),
		Refresh:  FallbackRefresh,
	})
}

// render writes a page, answering 500 when the template fails.
func (h *FrontendHandler) render(w http.ResponseWriter, status int, page string, data render.TemplateData) {
	if err := h.renderer.Render(w, status, page, data); err != nil {
		h.logger.Error("failed to render template", "template", page, "error", err)
		http.Error(w, msgInternalError, http.StatusInternalServerError)
	}
}

// parsePages reads ?pages=N, clamping it to [1, limit].
func parsePages(raw string, limit int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return min(n, limit)
}
