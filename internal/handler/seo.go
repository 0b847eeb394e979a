// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/olegiv/spacetraveling/internal/seo"
	"github.com/olegiv/spacetraveling/internal/site"
)

// SEOHandler serves sitemap.xml and robots.txt.
type SEOHandler struct {
	site        *site.Site
	logger      *slog.Logger
	siteURL     string
	disallowAll bool
}

// NewSEOHandler creates a new SEOHandler. disallowAll blocks every crawler,
// e.g. outside production.
func NewSEOHandler(s *site.Site, logger *slog.Logger, siteURL string, disallowAll bool) *SEOHandler {
	return &SEOHandler{
		site:        s,
		logger:      logger,
		siteURL:     siteURL,
		disallowAll: disallowAll,
	}
}

// Sitemap handles GET /sitemap.xml.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	body, err := h.SitemapXML(r.Context())
	if err != nil {
		h.logger.Error("failed to build sitemap", "error", err)
		http.Error(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	w.Header().Set(HeaderContentType, "application/xml; charset=utf-8")
	_, _ = w.Write(body)
}

// SitemapXML lists the home page and every known post.
func (h *SEOHandler) SitemapXML(ctx context.Context) ([]byte, error) {
	uids, err := h.site.Paths(ctx)
	if err != nil {
		return nil, err
	}

	posts := make([]seo.SitemapPost, 0, len(uids))
	for _, uid := range uids {
		sp := seo.SitemapPost{UID: uid}
		if d, err := h.site.Post(ctx, uid); err == nil {
			sp.UpdatedAt = d.LastPublicationDate
			if sp.UpdatedAt == nil {
				sp.UpdatedAt = d.FirstPublicationDate
			}
		}
		posts = append(posts, sp)
	}
	return seo.GenerateSitemap(h.siteURL, posts)
}

// Robots handles GET /robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(HeaderContentType, "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(h.RobotsTxt()))
}

// RobotsTxt returns the robots.txt content.
func (h *SEOHandler) RobotsTxt() string {
	return seo.GenerateRobots(h.siteURL, h.disallowAll)
}
