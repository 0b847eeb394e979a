// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
)

// privatePaths are never useful to crawlers.
var privatePaths = []string{"/health", "/api/"}

// RobotsConfig holds configuration for robots.txt generation.
type RobotsConfig struct {
	SiteURL       string   // Base URL for the sitemap line
	DisallowAll   bool     // Block all crawlers (development and preview deployments)
	DisallowPaths []string // Added after the private paths
}

// RobotsBuilder builds robots.txt content.
type RobotsBuilder struct {
	config RobotsConfig
}

// NewRobotsBuilder creates a new robots.txt builder.
func NewRobotsBuilder(config RobotsConfig) *RobotsBuilder {
	return &RobotsBuilder{config: config}
}

// Build generates the robots.txt content. A blocked site gets no sitemap
// line.
func (b *RobotsBuilder) Build() string {
	var sb strings.Builder
	sb.WriteString("User-agent: *\n")

	if b.config.DisallowAll {
		sb.WriteString("Disallow: /\n")
		return sb.String()
	}

	for _, p := range append(privatePaths[:len(privatePaths):len(privatePaths)], b.config.DisallowPaths...) {
		sb.WriteString("Disallow: " + p + "\n")
	}
	sb.WriteString("Allow: /\n")

	if b.config.SiteURL != "" {
		sb.WriteString("\nSitemap: " + strings.TrimSuffix(b.config.SiteURL, "/") + "/sitemap.xml\n")
	}
	return sb.String()
}

// GenerateRobots builds robots.txt for siteURL.
func GenerateRobots(siteURL string, disallowAll bool) string {
	return NewRobotsBuilder(RobotsConfig{SiteURL: siteURL, DisallowAll: disallowAll}).Build()
}
