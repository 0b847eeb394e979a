// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the spacetraveling runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// Prismic content API
	PrismicEndpoint    string        `env:"PRISMIC_API_ENDPOINT,required"`
	PrismicAccessToken string        `env:"PRISMIC_ACCESS_TOKEN"`
	HTTPTimeout        time.Duration `env:"ST_HTTP_TIMEOUT" envDefault:"10s"`

	ServerHost string `env:"ST_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"ST_SERVER_PORT" envDefault:"3000"`
	Env        string `env:"ST_ENV" envDefault:"development"`
	LogLevel   string `env:"ST_LOG_LEVEL" envDefault:"info"`

	SiteName        string `env:"ST_SITE_NAME" envDefault:"spacetraveling"`
	SiteURL         string `env:"ST_SITE_URL" envDefault:"http://localhost:3000"`
	SiteDescription string `env:"ST_SITE_DESCRIPTION" envDefault:"Blog sobre tecnologia e desenvolvimento"`

	// Per-client request limit on page routes
	RateLimitRPS   float64 `env:"ST_RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"ST_RATE_LIMIT_BURST" envDefault:"20"`

	// Listing and page generation
	PageSize           int           `env:"ST_PAGE_SIZE" envDefault:"2"`
	MaxListPages       int           `env:"ST_MAX_LIST_PAGES" envDefault:"20"`
	RevalidateSchedule string        `env:"ST_REVALIDATE_SCHEDULE" envDefault:"@every 10m"`
	FallbackWait       time.Duration `env:"ST_FALLBACK_WAIT" envDefault:"2s"`
	FallbackRPS        float64       `env:"ST_FALLBACK_RPS" envDefault:"2"`
	FallbackBurst      int           `env:"ST_FALLBACK_BURST" envDefault:"5"`

	// Prismic webhook secret; empty disables POST /api/revalidate
	WebhookSecret string `env:"ST_WEBHOOK_SECRET"`

	// Props store
	RedisURL     string `env:"ST_REDIS_URL"`                         // Optional Redis URL for a shared props store
	CachePrefix  string `env:"ST_CACHE_PREFIX" envDefault:"st:"`     // Redis key prefix
	CacheTTL     int    `env:"ST_CACHE_TTL" envDefault:"3600"`       // Default TTL in seconds
	CacheMaxSize int    `env:"ST_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory store entries
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that the env tags cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.PrismicEndpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("PRISMIC_API_ENDPOINT must be an absolute http(s) URL, got %q", c.PrismicEndpoint)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("ST_PAGE_SIZE must be at least 1, got %d", c.PageSize)
	}
	if c.MaxListPages < 1 {
		return fmt.Errorf("ST_MAX_LIST_PAGES must be at least 1, got %d", c.MaxListPages)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("ST_HTTP_TIMEOUT must be positive")
	}
	if c.FallbackBurst < 1 {
		c.FallbackBurst = 1
	}
	if c.RateLimitBurst < 1 {
		c.RateLimitBurst = 1
	}
	return nil
}
