// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"
)

// StaticCache adds Cache-Control headers for static files.
func StaticCache(maxAge int) func(http.Handler) http.Handler {
	return CacheControl("public, max-age=" + strconv.Itoa(maxAge))
}

// PageCache marks generated pages as shareable by CDNs for sMaxAge seconds,
// after which a stale copy may be served while the page is revalidated.
func PageCache(sMaxAge, staleWhileRevalidate int) func(http.Handler) http.Handler {
	return CacheControl("public, max-age=0, s-maxage=" + strconv.Itoa(sMaxAge) +
		", stale-while-revalidate=" + strconv.Itoa(staleWhileRevalidate))
}

// NoStore disables caching, e.g. for fallback and diagnostics responses.
func NoStore(next http.Handler) http.Handler {
	return CacheControl("no-store")(next)
}

// CacheControl sets Cache-Control before calling next; handlers may override it.
func CacheControl(value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}
