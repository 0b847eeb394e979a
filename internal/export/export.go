// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package export writes the generated site as static files, either to a
// directory or to a zip archive.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/spacetraveling/internal/handler"
	"github.com/olegiv/spacetraveling/internal/render"
	"github.com/olegiv/spacetraveling/internal/seo"
	"github.com/olegiv/spacetraveling/internal/site"
	"github.com/olegiv/spacetraveling/internal/util"
)

// ErrTargetNotEmpty is returned when the export directory already has content.
var ErrTargetNotEmpty = errors.New("export: target directory is not empty")

// Options configures an Exporter.
type Options struct {
	SEO *seo.SiteConfig

	// Static holds the assets copied under static/dist/.
	Static fs.FS

	// DisallowRobots writes a robots.txt blocking every crawler.
	DisallowRobots bool
}

// Result summarizes an export.
type Result struct {
	Files     int
	Bytes     int64
	ListPages int
	Posts     int
	Duration  time.Duration
}

// Exporter renders every page of the site to files.
type Exporter struct {
	site     *site.Site
	renderer *render.Renderer
	pages    *handler.FrontendHandler
	seo      *handler.SEOHandler
	static   fs.FS
	logger   *slog.Logger
}

// New creates an Exporter.
func New(s *site.Site, renderer *render.Renderer, logger *slog.Logger, opts Options) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	siteURL := ""
	if opts.SEO != nil {
		siteURL = opts.SEO.SiteURL
	}
	return &Exporter{
		site:     s,
		renderer: renderer,
		pages: handler.NewFrontendHandler(s, renderer, logger, handler.FrontendConfig{
			SEO:     opts.SEO,
			ListURL: ListPageURL,
		}),
		seo:    handler.NewSEOHandler(s, logger, siteURL, opts.DisallowRobots),
		static: opts.Static,
		logger: logger,
	}
}

// ListPageURL is the exported URL of the list showing the first n pages.
func ListPageURL(n int) string {
	if n <= 1 {
		return "/"
	}
	return "/page/" + strconv.Itoa(n) + "/"
}

// writer receives exported files by slash-separated relative name.
type writer interface {
	WriteFile(name string, data []byte) error
}

// ExportToPath exports to a zip archive when target ends in ".zip" and to
// a directory otherwise.
func (e *Exporter) ExportToPath(ctx context.Context, target string) (Result, error) {
	if strings.EqualFold(filepath.Ext(target), ".zip") {
		return e.ExportToZipFile(ctx, target)
	}
	return e.ExportToDir(ctx, target)
}

// ExportToDir writes the site into dir, which must be absent or empty.
func (e *Exporter) ExportToDir(ctx context.Context, dir string) (Result, error) {
	entries, err := os.ReadDir(dir)
	switch {
	case err == nil && len(entries) > 0:
		return Result{}, fmt.Errorf("%w: %s", ErrTargetNotEmpty, dir)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return Result{}, fmt.Errorf("reading export directory: %w", err)
	}
	return e.export(ctx, dirWriter{root: dir})
}

// ExportToZipFile writes the site as a zip archive at path. The file is
// removed when the export fails.
func (e *Exporter) ExportToZipFile(ctx context.Context, path string) (res Result, err error) {
	f, err := os.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("creating archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing archive: %w", cerr)
		}
		if err != nil {
			if rerr := os.Remove(path); rerr != nil {
				e.logger.Warn("failed to remove incomplete archive", "path", path, "error", rerr)
			}
		}
	}()
	return e.ExportToZip(ctx, f)
}

// ExportToZip writes the site as a zip archive to w.
func (e *Exporter) ExportToZip(ctx context.Context, w io.Writer) (Result, error) {
	zw := zip.NewWriter(w)
	res, err := e.export(ctx, zipWriter{zw: zw})
	if err != nil {
		_ = zw.Close()
		return res, err
	}
	if err := zw.Close(); err != nil {
		return res, fmt.Errorf("finalizing archive: %w", err)
	}
	return res, nil
}

// export rebuilds the site and writes every page, the SEO documents and
// the static assets.
func (e *Exporter) export(ctx context.Context, w writer) (Result, error) {
	start := time.Now()
	res := Result{}
	put := func(name string, data []byte) error {
		if err := w.WriteFile(name, data); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		res.Files++
		res.Bytes += int64(len(data))
		return nil
	}

	if _, err := e.site.Build(ctx); err != nil {
		return res, fmt.Errorf("building site: %w", err)
	}

	n, err := e.exportList(ctx, put)
	if err != nil {
		return res, err
	}
	res.ListPages = n

	if res.Posts, err = e.exportPosts(ctx, put); err != nil {
		return res, err
	}

	page, err := e.renderPage(render.PageNotFound, e.pages.NotFoundPage())
	if err != nil {
		return res, err
	}
	if err := put("404.html", page); err != nil {
		return res, err
	}

	sitemap, err := e.seo.SitemapXML(ctx)
	if err != nil {
		return res, fmt.Errorf("building sitemap: %w", err)
	}
	if err := put("sitemap.xml", sitemap); err != nil {
		return res, err
	}
	if err := put("robots.txt", []byte(e.seo.RobotsTxt())); err != nil {
		return res, err
	}

	if err := e.exportStatic(put); err != nil {
		return res, err
	}

	res.Duration = time.Since(start)
	e.logger.Info("site exported",
		"files", res.Files,
		"bytes", res.Bytes,
		"list_pages", res.ListPages,
		"posts", res.Posts,
		"duration", res.Duration,
	)
	return res, nil
}

// exportList writes index.html and one page/{n}/index.html per further
// list page, each showing every post up to that page.
func (e *Exporter) exportList(ctx context.Context, put func(string, []byte) error) (int, error) {
	shown := 0
	for n := 1; ; n++ {
		data, err := e.pages.HomePage(ctx, n)
		if err != nil {
			return n - 1, fmt.Errorf("building list page %d: %w", n, err)
		}
		view := data.Data.(handler.HomeView)
		if n > 1 && len(view.Posts) == shown {
			return n - 1, fmt.Errorf("building list page %d: continuation fetch failed", n)
		}
		shown = len(view.Posts)

		page, err := e.renderPage(render.PageHome, data)
		if err != nil {
			return n - 1, err
		}
		if err := put(strings.TrimPrefix(ListPageURL(n), "/")+"index.html", page); err != nil {
			return n - 1, err
		}
		if view.NextURL == "" {
			return n, nil
		}
	}
}

// exportPosts writes post/{uid}/index.html for every known post.
func (e *Exporter) exportPosts(ctx context.Context, put func(string, []byte) error) (int, error) {
	uids, err := e.site.Paths(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing posts: %w", err)
	}

	count := 0
	for _, uid := range uids {
		if !util.IsValidUID(uid) {
			e.logger.Warn("skipping post with unsafe uid", "uid", uid)
			continue
		}
		d, err := e.site.Post(ctx, uid)
		if err != nil {
			return count, fmt.Errorf("loading post %s: %w", uid, err)
		}
		page, err := e.renderPage(render.PagePost, e.pages.PostPage(d))
		if err != nil {
			return count, err
		}
		if err := put(path.Join("post", uid, "index.html"), page); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// exportStatic copies the static assets under static/dist/.
func (e *Exporter) exportStatic(put func(string, []byte) error) error {
	if e.static == nil {
		return nil
	}
	return fs.WalkDir(e.static, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(e.static, p)
		if err != nil {
			return fmt.Errorf("reading asset %s: %w", p, err)
		}
		return put(path.Join("static", "dist", p), data)
	})
}

func (e *Exporter) renderPage(page string, data render.TemplateData) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.renderer.RenderPage(&buf, page, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// dirWriter writes files below root.
type dirWriter struct {
	root string
}

func (d dirWriter) WriteFile(name string, data []byte) error {
	target, err := util.SafeJoinPath(d.root, filepath.FromSlash(name))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

// zipWriter writes files as archive entries.
type zipWriter struct {
	zw *zip.Writer
}

func (z zipWriter) WriteFile(name string, data []byte) error {
	if util.ContainsPathTraversal(name) {
		return fmt.Errorf("invalid archive entry %q", name)
	}
	w, err := z.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
