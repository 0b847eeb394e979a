// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package site

import (
	"context"
	"errors"
	"time"

	"github.com/olegiv/spacetraveling/internal/post"
	"github.com/olegiv/spacetraveling/internal/prismic"
)

// Status is the outcome of resolving a post route.
type Status int

const (
	// StatusReady means props are available.
	StatusReady Status = iota
	// StatusPending means generation is still running; serve the fallback page.
	StatusPending
	// StatusNotFound means no post has the requested UID.
	StatusNotFound
)

// Resolution is the result of Resolve.
type Resolution struct {
	Status Status
	Detail post.Detail
}

// Resolve returns the props of a post route. Built posts are returned
// immediately. Otherwise generation starts (or is joined) in the
// background and Resolve waits up to FallbackWait for it; if it is still
// running the caller gets StatusPending and generation continues so a
// later request finds the props ready.
func (s *Site) Resolve(ctx context.Context, uid string) (Resolution, error) {
	if d, ok := s.posts.Get(ctx, uid); ok {
		return Resolution{Status: StatusReady, Detail: *d}, nil
	}
	if !s.limiter.Allow() {
		return Resolution{}, ErrThrottled
	}

	genCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("post:"+uid, func() (any, error) {
		ctx, cancel := context.WithTimeout(genCtx, s.opts.GenerateTimeout)
		defer cancel()
		d, err := s.generate(ctx, uid)
		if err != nil && !errors.Is(err, prismic.ErrNotFound) {
			s.logger.Error("on-demand generation failed", "uid", uid, "error", err)
		}
		return d, err
	})

	timer := time.NewTimer(s.opts.FallbackWait)
	defer timer.Stop()

	select {
	case res := <-ch:
		if errors.Is(res.Err, prismic.ErrNotFound) {
			return Resolution{Status: StatusNotFound}, nil
		}
		if res.Err != nil {
			return Resolution{}, res.Err
		}
		return Resolution{Status: StatusReady, Detail: res.Val.(post.Detail)}, nil
	case <-timer.C:
		return Resolution{Status: StatusPending}, nil
	case <-ctx.Done():
		return Resolution{}, ctx.Err()
	}
}
