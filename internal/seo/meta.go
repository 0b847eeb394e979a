// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo provides SEO utilities for building meta tags, structured
// data, sitemaps and robots.txt.
package seo

import (
	"encoding/json"
	"html/template"
	"strings"
	"time"

	"github.com/olegiv/spacetraveling/internal/post"
	"github.com/olegiv/spacetraveling/internal/richtext"
)

// Meta holds all SEO meta tag data for a page.
type Meta struct {
	Title         string // Page title (for <title> tag)
	Description   string // Meta description
	Canonical     string // Canonical URL
	OGTitle       string // Open Graph title
	OGDescription string // Open Graph description
	OGImage       string // Open Graph image URL (absolute)
	OGType        string // Open Graph type (website, article)
	OGSiteName    string // Open Graph site name
	OGURL         string // Open Graph URL
	Robots        string // Robots directive
	TwitterCard   string // Twitter card type
}

// PageData contains page information for building meta tags.
type PageData struct {
	Title       string // Document title, e.g. "Post"
	Headline    string // Post title
	Description string
	Path        string // Site-relative path, e.g. "/post/hello"
	Image       string
	PublishedAt *time.Time
	ModifiedAt  *time.Time
	AuthorName  string
	NoIndex     bool
}

// SiteConfig contains site-wide settings for SEO.
type SiteConfig struct {
	SiteName        string
	SiteURL         string
	SiteDescription string
	DefaultOGImage  string
}

// PostPage maps a post to the page data used for its meta tags. The
// description falls back from the subtitle to the start of the body.
func PostPage(d post.Detail) *PageData {
	desc := d.Subtitle
	if desc == "" {
		var parts []string
		for _, block := range d.Content {
			if text := richtext.AsText(block.Body); text != "" {
				parts = append(parts, text)
			}
		}
		desc = truncateText(strings.Join(parts, " "), 160)
	}
	return &PageData{
		Title:       "Post",
		Headline:    d.Title,
		Description: desc,
		Path:        "/post/" + d.UID,
		Image:       d.Banner.URL,
		PublishedAt: d.FirstPublicationDate,
		ModifiedAt:  d.LastPublicationDate,
		AuthorName:  d.Author,
	}
}

// PageTitle renders the <title> text: "Home | spacetraveling".
func PageTitle(title string, site *SiteConfig) string {
	if title == "" {
		return site.SiteName
	}
	return title + " | " + site.SiteName
}

// BuildMeta creates a Meta struct from page and site data with proper
// fallbacks. A nil page describes the home page.
func BuildMeta(page *PageData, site *SiteConfig) *Meta {
	meta := &Meta{
		OGType:      "website",
		TwitterCard: "summary_large_image",
		OGSiteName:  site.SiteName,
	}

	if page == nil {
		meta.Title = PageTitle("Home", site)
		meta.OGTitle = site.SiteName
		meta.Description = site.SiteDescription
		meta.OGDescription = site.SiteDescription
		meta.Canonical = strings.TrimSuffix(site.SiteURL, "/") + "/"
		meta.OGURL = meta.Canonical
		meta.Robots = "index,follow"
		meta.OGImage = makeAbsoluteURL(site.DefaultOGImage, site.SiteURL)
		return meta
	}

	meta.OGType = "article"
	meta.Title = PageTitle(page.Title, site)
	meta.OGTitle = page.Headline
	if meta.OGTitle == "" {
		meta.OGTitle = meta.Title
	}
	meta.Description = page.Description
	meta.OGDescription = page.Description

	if page.Image != "" {
		meta.OGImage = makeAbsoluteURL(page.Image, site.SiteURL)
	} else {
		meta.OGImage = makeAbsoluteURL(site.DefaultOGImage, site.SiteURL)
	}

	if page.Path != "" {
		meta.Canonical = makeAbsoluteURL(page.Path, site.SiteURL)
	}
	meta.OGURL = meta.Canonical

	if page.NoIndex {
		meta.Robots = "noindex,nofollow"
	} else {
		meta.Robots = "index,follow"
	}

	return meta
}

// ArticleSchema represents JSON-LD Article structured data.
type ArticleSchema struct {
	Context          string        `json:"@context"`
	Type             string        `json:"@type"`
	Headline         string        `json:"headline"`
	Description      string        `json:"description,omitempty"`
	Image            string        `json:"image,omitempty"`
	DatePublished    string        `json:"datePublished,omitempty"`
	DateModified     string        `json:"dateModified,omitempty"`
	Author           *PersonSchema `json:"author,omitempty"`
	Publisher        *OrgSchema    `json:"publisher,omitempty"`
	MainEntityOfPage string        `json:"mainEntityOfPage,omitempty"`
}

// PersonSchema represents JSON-LD Person structured data.
type PersonSchema struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

// OrgSchema represents JSON-LD Organization structured data.
type OrgSchema struct {
	Type string       `json:"@type"`
	Name string       `json:"name"`
	Logo *ImageSchema `json:"logo,omitempty"`
}

// ImageSchema represents JSON-LD ImageObject structured data.
type ImageSchema struct {
	Type string `json:"@type"`
	URL  string `json:"url"`
}

// BuildArticleSchema creates JSON-LD Article structured data for a post page.
func BuildArticleSchema(page *PageData, site *SiteConfig) template.JS {
	if page == nil {
		return ""
	}

	article := ArticleSchema{
		Context:          "https://schema.org",
		Type:             "Article",
		Headline:         page.Headline,
		Description:      page.Description,
		Image:            makeAbsoluteURL(page.Image, site.SiteURL),
		MainEntityOfPage: makeAbsoluteURL(page.Path, site.SiteURL),
	}

	if page.PublishedAt != nil {
		article.DatePublished = page.PublishedAt.UTC().Format(time.RFC3339)
	}
	if page.ModifiedAt != nil {
		article.DateModified = page.ModifiedAt.UTC().Format(time.RFC3339)
	}

	if page.AuthorName != "" {
		article.Author = &PersonSchema{
			Type: "Person",
			Name: page.AuthorName,
		}
	}

	article.Publisher = &OrgSchema{
		Type: "Organization",
		Name: site.SiteName,
	}
	if site.DefaultOGImage != "" {
		article.Publisher.Logo = &ImageSchema{
			Type: "ImageObject",
			URL:  makeAbsoluteURL(site.DefaultOGImage, site.SiteURL),
		}
	}

	return marshalJSONLD(article)
}

// marshalJSONLD marshals structured data to JSON-LD script tag content.
func marshalJSONLD(v any) template.JS {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return template.JS(data)
}

// truncateText truncates text to maxLen runes at a word boundary.
func truncateText(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	truncated := string(runes[:maxLen])
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > len(truncated)/2 {
		truncated = truncated[:lastSpace]
	}

	return strings.TrimSpace(truncated) + "..."
}

// makeAbsoluteURL ensures a URL is absolute by prepending site URL if needed.
func makeAbsoluteURL(url, siteURL string) string {
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	siteURL = strings.TrimSuffix(siteURL, "/")
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return siteURL + url
}
