// Package web renders the server-side HTML views: the document list and
// the per-document detail page. It holds no state; every page is rendered
// from the records handed to it.
package web

import (
	"bytes"
	"fmt"
	"html/template"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/docshelf/backend/internal/models"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}
</body>
</html>`

const listBodyTemplate = `<h1>Documents</h1>
{{if not .Loaded}}<p class="loading">Loading registry&hellip;</p>
{{else if not .Records}}<p class="empty">No documents yet. Upload one to get started.</p>
{{else}}<ul class="documents">
{{range .Records}}<li><a href="/documents/{{.ID}}">{{.Filename}}</a> <time>{{.ProcessedAt.Format "2006-01-02 15:04"}}</time></li>
{{end}}</ul>
{{end}}`

const detailBodyTemplate = `<nav><a href="/documents">&larr; All documents</a></nav>
<h1>{{.Filename}}</h1>
<time>{{.ProcessedAt.Format "2006-01-02 15:04"}}</time>
{{if .Empty}}<p class="empty">This document is empty.</p>
{{else}}<article>{{.Content}}</article>
{{end}}`

const notFoundBodyTemplate = `<nav><a href="/documents">&larr; All documents</a></nav>
<h1>Document not found</h1>
<p class="not-found">No document exists with id {{.ID}}.</p>`

// Renderer converts markdown content to HTML and wraps it in page chrome.
type Renderer struct {
	md       goldmark.Markdown
	page     *template.Template
	list     *template.Template
	detail   *template.Template
	notFound *template.Template
}

// NewRenderer creates a Renderer with GFM extensions and syntax
// highlighting for fenced code blocks.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(
					chromahtml.WithLineNumbers(false),
				),
			),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
		),
	)

	return &Renderer{
		md:       md,
		page:     template.Must(template.New("page").Parse(pageTemplate)),
		list:     template.Must(template.New("list").Parse(listBodyTemplate)),
		detail:   template.Must(template.New("detail").Parse(detailBodyTemplate)),
		notFound: template.Must(template.New("notFound").Parse(notFoundBodyTemplate)),
	}
}

// ListPage renders the document list. loaded=false renders the loading
// state; zero records render the empty state. The two are distinct pages.
func (r *Renderer) ListPage(records []*models.ProcessedFile, loaded bool) (string, error) {
	body, err := r.execute(r.list, map[string]interface{}{
		"Loaded":  loaded,
		"Records": records,
	})
	if err != nil {
		return "", err
	}
	return r.wrap("Documents", body)
}

// DetailPage renders one document, converting its markdown content to
// HTML. Empty content renders a dedicated notice; an empty document is a
// valid record, not a missing one.
func (r *Renderer) DetailPage(rec *models.ProcessedFile) (string, error) {
	var content template.HTML
	if rec.Content != "" {
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(rec.Content), &buf); err != nil {
			return "", fmt.Errorf("rendering markdown: %w", err)
		}
		// goldmark omits raw HTML blocks by default, so the fragment is
		// safe to inline.
		content = template.HTML(buf.String())
	}

	body, err := r.execute(r.detail, map[string]interface{}{
		"Filename":    rec.Filename,
		"ProcessedAt": rec.ProcessedAt,
		"Empty":       rec.Content == "",
		"Content":     content,
	})
	if err != nil {
		return "", err
	}
	return r.wrap(rec.Filename, body)
}

// NotFoundPage renders the dedicated not-found presentation for a missing id.
func (r *Renderer) NotFoundPage(id string) (string, error) {
	body, err := r.execute(r.notFound, map[string]interface{}{"ID": id})
	if err != nil {
		return "", err
	}
	return r.wrap("Document not found", body)
}

func (r *Renderer) execute(t *template.Template, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", t.Name(), err)
	}
	return template.HTML(buf.String()), nil
}

func (r *Renderer) wrap(title string, body template.HTML) (string, error) {
	var buf bytes.Buffer
	err := r.page.Execute(&buf, map[string]interface{}{
		"Title": title,
		"Body":  body,
	})
	if err != nil {
		return "", fmt.Errorf("executing page template: %w", err)
	}
	return buf.String(), nil
}
