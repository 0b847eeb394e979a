// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the post list.
	RouteRoot = "/"
	// RoutePost is the post detail route pattern.
	RoutePost = "/post/{uid}"
	// RouteSitemap is the sitemap route.
	RouteSitemap = "/sitemap.xml"
	// RouteRobots is the robots.txt route.
	RouteRobots = "/robots.txt"
	// RouteHealth is the health check route.
	RouteHealth = "/health"
	// RouteStatic is the embedded static assets route pattern.
	RouteStatic = "/static/dist/*"
	// RouteFavicon is the legacy favicon route.
	RouteFavicon = "/favicon.ico"
	// RouteRevalidate receives Prismic publish webhooks.
	RouteRevalidate = "/api/revalidate"

	// StaticPrefix is the URL prefix of embedded static assets.
	StaticPrefix = "/static/dist/"
	// FaviconPath is the favicon served from the static assets.
	FaviconPath = StaticPrefix + "images/favicon.svg"

	// QueryPages is the list query parameter holding the number of pages to render.
	QueryPages = "pages"
)

// Utility constants used by main.go.
const (
	// HeaderContentType is the Content-Type HTTP header name.
	HeaderContentType = "Content-Type"
	// HeaderCacheControl is the Cache-Control HTTP header name.
	HeaderCacheControl = "Cache-Control"
	// HeaderRetryAfter is the Retry-After HTTP header name.
	HeaderRetryAfter = "Retry-After"
)

// Messages shown to visitors.
const (
	msgInternalError = "Erro interno do servidor"
)
