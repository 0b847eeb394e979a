// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// MasterRef is the ref served by PrismicServer.
const MasterRef = "master-ref"

var uidPredicate = regexp.MustCompile(`at\(my\.posts\.uid, "([^"]*)"\)`)

// PrismicServer is a fake Prismic API v2 repository serving "posts" documents.
type PrismicServer struct {
	*httptest.Server

	mu       sync.Mutex
	ref      string
	releases map[string][]map[string]any // documents visible at each ref
	status   int
	delay    time.Duration

	searches atomic.Int64
}

// NewPrismicServer starts a fake repository holding docs. It is closed
// automatically when the test ends.
func NewPrismicServer(t *testing.T, docs ...map[string]any) *PrismicServer {
	t.Helper()

	s := &PrismicServer{
		ref:      MasterRef,
		releases: map[string][]map[string]any{MasterRef: docs},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", s.handleRoot)
	mux.HandleFunc("/api/v2/documents/search", s.handleSearch)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Endpoint returns the API root URL.
func (s *PrismicServer) Endpoint() string {
	return s.URL + "/api/v2"
}

// Searches returns how many search requests were served.
func (s *PrismicServer) Searches() int {
	return int(s.searches.Load())
}

// SetDocs replaces the content visible at the current master ref.
func (s *PrismicServer) SetDocs(docs ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases[s.ref] = docs
}

// Publish makes docs visible under a new master ref and returns it.
// Queries at older refs keep seeing the content of their release.
func (s *PrismicServer) Publish(docs ...map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref = MasterRef + "-" + strconv.Itoa(len(s.releases)+1)
	s.releases[s.ref] = docs
	return s.ref
}

// Ref returns the current master ref.
func (s *PrismicServer) Ref() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ref
}

// FailWith makes search requests answer with status; 0 restores normal answers.
func (s *PrismicServer) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// SetDelay delays every search response by d.
func (s *PrismicServer) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

func (s *PrismicServer) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"refs": []map[string]any{
			{"id": "master", "ref": s.Ref(), "label": "Master", "isMasterRef": true},
		},
	})
}

func (s *PrismicServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.searches.Add(1)

	q := r.URL.Query()

	s.mu.Lock()
	docs, known := s.releases[q.Get("ref")]
	status := s.status
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status != 0 {
		http.Error(w, `{"message":"failure"}`, status)
		return
	}

	if !known {
		http.Error(w, `{"message":"unknown ref"}`, http.StatusBadRequest)
		return
	}

	if m := uidPredicate.FindStringSubmatch(q.Get("q")); m != nil {
		var filtered []map[string]any
		for _, d := range docs {
			if d["uid"] == m[1] {
				filtered = append(filtered, d)
			}
		}
		docs = filtered
	}

	pageSize := 20
	if v, err := strconv.Atoi(q.Get("pageSize")); err == nil && v > 0 {
		pageSize = v
	}
	page := 1
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}

	start := min((page-1)*pageSize, len(docs))
	end := min(start+pageSize, len(docs))
	totalPages := (len(docs) + pageSize - 1) / pageSize

	var nextPage any
	if end < len(docs) {
		next := url.Values{}
		for k, v := range q {
			next[k] = v
		}
		next.Set("page", strconv.Itoa(page+1))
		nextPage = s.URL + "/api/v2/documents/search?" + next.Encode()
	}

	results := docs[start:end]
	if results == nil {
		results = []map[string]any{}
	}
	writeJSON(w, map[string]any{
		"page":               page,
		"results_per_page":   pageSize,
		"results_size":       len(results),
		"total_results_size": len(docs),
		"total_pages":        totalPages,
		"next_page":          nextPage,
		"prev_page":          nil,
		"results":            results,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// PostDoc builds a "posts" document whose title is a rich text run and
// whose subtitle and author are plain strings.
func PostDoc(uid, title, subtitle, author string) map[string]any {
	return map[string]any{
		"id":                     "id-" + uid,
		"uid":                    uid,
		"type":                   "posts",
		"first_publication_date": "2021-03-15T19:25:28+0000",
		"last_publication_date":  "2021-03-25T19:25:28+0000",
		"data": map[string]any{
			"title":    []map[string]any{{"type": "heading1", "text": title, "spans": []any{}}},
			"subtitle": subtitle,
			"author":   author,
			"banner":   map[string]any{"url": "https://images.prismic.io/spacetraveling/" + uid + ".png"},
			"content": []map[string]any{
				{
					"heading": []map[string]any{{"type": "heading2", "text": "Proin et varius", "spans": []any{}}},
					"body": []map[string]any{
						{"type": "paragraph", "text": "Lorem ipsum dolor sit amet", "spans": []any{}},
					},
				},
			},
		},
	}
}
