// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render composes page templates with the base layout.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/olegiv/spacetraveling/internal/seo"
)

// Page names.
const (
	PageHome     = "home"
	PagePost     = "post"
	PageNotFound = "404"
	PageFallback = "fallback"
)

const baseLayout = "layouts/base.html"

// blankLinesRegex matches two or more consecutive newlines (with optional whitespace between).
var blankLinesRegex = regexp.MustCompile(`(\r?\n\s*){2,}`)

// Renderer holds one template set per page, each combining the base
// layout, the partials and the page's content block.
type Renderer struct {
	pages map[string]*template.Template
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS fs.FS
	Funcs       template.FuncMap
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	SiteName string
	Meta     *seo.Meta
	Schema   template.JS // JSON-LD, rendered in the head when set
	Refresh  int         // seconds before the browser reloads; 0 disables
	Data     any

	CurrentYear int
}

// New parses all templates from cfg.TemplatesFS.
func New(cfg Config) (*Renderer, error) {
	root := template.New("").Funcs(cfg.Funcs)

	layout, err := fs.ReadFile(cfg.TemplatesFS, baseLayout)
	if err != nil {
		return nil, fmt.Errorf("reading layout: %w", err)
	}
	if _, err := root.New(baseLayout).Parse(string(layout)); err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	partials, err := templateFiles(cfg.TemplatesFS, "partials")
	if err != nil {
		return nil, err
	}
	for _, f := range partials {
		content, err := fs.ReadFile(cfg.TemplatesFS, f)
		if err != nil {
			return nil, fmt.Errorf("reading partial %s: %w", f, err)
		}
		// Partials are referenced by file name, e.g. {{template "header.html" .}}.
		if _, err := root.New(path.Base(f)).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parsing partial %s: %w", f, err)
		}
	}

	pageFiles, err := templateFiles(cfg.TemplatesFS, "pages")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pageFiles))}
	for _, f := range pageFiles {
		content, err := fs.ReadFile(cfg.TemplatesFS, f)
		if err != nil {
			return nil, fmt.Errorf("reading page %s: %w", f, err)
		}
		clone, err := root.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning templates: %w", err)
		}
		if _, err := clone.New(f).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parsing page %s: %w", f, err)
		}
		if clone.Lookup("content") == nil {
			return nil, fmt.Errorf("page %s does not define a content block", f)
		}
		r.pages[strings.TrimSuffix(path.Base(f), ".html")] = clone
	}

	return r, nil
}

// templateFiles returns all .html files in a directory.
func templateFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// RenderPage renders a page within the base layout to w.
func (r *Renderer) RenderPage(w io.Writer, page string, data TemplateData) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("template %s not found", page)
	}

	if data.CurrentYear == 0 {
		data.CurrentYear = time.Now().Year()
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, baseLayout, data); err != nil {
		return fmt.Errorf("executing template %s: %w", page, err)
	}

	// Strip consecutive blank lines from the rendered HTML
	compacted := blankLinesRegex.ReplaceAll(buf.Bytes(), []byte("\n"))
	_, err := w.Write(compacted)
	return err
}

// Render renders a page as an HTTP response with the given status. Nothing
// is written if rendering fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data TemplateData) error {
	var buf bytes.Buffer
	if err := r.RenderPage(&buf, page, data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
