// Package static serves a frame hierarchy from in-memory or on-disk HTML
// documents. It stands in for a live tab when no browser is available.
package static

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
	"framefill/internal/infrastructure/dom"
)

var (
	_ output.FillTargetResolver = (*Site)(nil)
	_ output.DocumentSource     = (*Site)(nil)
)

type page struct {
	raw          string
	doc          *dom.Document
	denied       bool
	delay        time.Duration
	pingFailures int
}

// Site is a set of documents keyed by the src that frames use to embed them.
type Site struct {
	mu      sync.Mutex
	rootSrc string
	pages   map[string]*page
}

func NewSite(rootSrc string, documents map[string]string) *Site {
	s := &Site{
		rootSrc: rootSrc,
		pages:   make(map[string]*page, len(documents)),
	}
	for src, raw := range documents {
		s.pages[src] = &page{raw: raw}
	}
	return s
}

// LoadDir reads every .html file under dir, keyed by its slash-separated
// relative path. index names the top-level document.
func LoadDir(dir, index string) (*Site, error) {
	documents := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		documents[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load site %s: %w", dir, err)
	}
	if _, ok := documents[index]; !ok {
		return nil, fmt.Errorf("load site %s: index %q not found", dir, index)
	}
	return NewSite(index, documents), nil
}

// Deny makes src behave like a cross-origin frame.
func (s *Site) Deny(src string) {
	s.with(src, func(p *page) { p.denied = true })
}

// Delay slows content extraction for src.
func (s *Site) Delay(src string, d time.Duration) {
	s.with(src, func(p *page) { p.delay = d })
}

// FailPings makes the next n liveness probes for src fail.
func (s *Site) FailPings(src string, n int) {
	s.with(src, func(p *page) { p.pingFailures = n })
}

func (s *Site) Root() output.FrameHandle {
	return &frame{site: s, src: s.rootSrc}
}

// Render returns the current state of a document, including fills.
func (s *Site) Render(src string) (string, error) {
	doc, err := s.document(src)
	if err != nil {
		return "", err
	}
	return doc.Render()
}

// DocumentHTML reads the top-level document without visiting frames.
func (s *Site) DocumentHTML(ctx context.Context) (*entity.FrameContent, error) {
	return s.Root().Content(ctx)
}

func (s *Site) RootSrc() string {
	return s.rootSrc
}

func (s *Site) with(src string, fn func(p *page)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pages[src]; ok {
		fn(p)
	}
}

func (s *Site) lookup(src string) (*page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[src]
	return p, ok
}

func (s *Site) document(src string) (*dom.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[src]
	if !ok {
		return nil, fmt.Errorf("document %q not found", src)
	}
	if p.doc == nil {
		doc, err := dom.Parse(p.raw)
		if err != nil {
			return nil, err
		}
		p.doc = doc
	}
	return p.doc, nil
}

type frame struct {
	site *Site
	src  string
	name string
}

func (f *frame) Src() string  { return f.src }
func (f *frame) Name() string { return f.name }

func (f *frame) Ping(ctx context.Context) error {
	f.site.mu.Lock()
	defer f.site.mu.Unlock()
	p, ok := f.site.pages[f.src]
	if !ok {
		return fmt.Errorf("frame %q: no document", f.src)
	}
	if p.pingFailures > 0 {
		p.pingFailures--
		return fmt.Errorf("frame %q: not ready", f.src)
	}
	return nil
}

func (f *frame) Content(ctx context.Context) (*entity.FrameContent, error) {
	p, ok := f.site.lookup(f.src)
	if !ok {
		return nil, fmt.Errorf("frame %q: no document", f.src)
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.denied {
		return nil, entity.ErrAccessDenied
	}

	doc, err := f.site.document(f.src)
	if err != nil {
		return nil, err
	}
	rendered, err := doc.Render()
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", f.src, err)
	}
	title := ""
	if nodes := doc.Query("title"); len(nodes) > 0 {
		title = strings.TrimSpace(doc.Text(nodes[0]))
	}
	if strings.TrimSpace(p.raw) == "" {
		rendered = ""
	}
	return &entity.FrameContent{
		HTML:   rendered,
		Title:  title,
		URL:    f.src,
		Domain: domainOf(f.src),
	}, nil
}

func (f *frame) Children(ctx context.Context) ([]output.FrameHandle, error) {
	p, ok := f.site.lookup(f.src)
	if !ok {
		return nil, fmt.Errorf("frame %q: no document", f.src)
	}
	if p.denied {
		return nil, entity.ErrAccessDenied
	}
	doc, err := f.site.document(f.src)
	if err != nil {
		return nil, err
	}
	var children []output.FrameHandle
	for _, n := range doc.Query("iframe, frame") {
		src, _ := doc.Attr(n, "src")
		name, _ := doc.Attr(n, "name")
		children = append(children, &frame{site: f.site, src: src, name: name})
	}
	return children, nil
}

func domainOf(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
