// Package companion answers page channel messages from inside the tab: it
// walks the frame tree, detects forms and fills them.
package companion

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
	"framefill/internal/usecase/discovery"
	"framefill/internal/usecase/filler"
	"framefill/internal/usecase/walker"
)

var _ output.PageChannel = (*Companion)(nil)

// Page is the live document the companion runs in.
type Page interface {
	output.FillTargetResolver
	Root() output.FrameHandle
}

type Companion struct {
	page       Page
	walker     *walker.Walker
	discoverer *discovery.Discoverer
	filler     *filler.Filler
	logger     output.LoggerPort

	fillMu sync.Mutex
}

func New(page Page, w *walker.Walker, d *discovery.Discoverer, f *filler.Filler, logger output.LoggerPort) *Companion {
	return &Companion{
		page:       page,
		walker:     w,
		discoverer: d,
		filler:     f,
		logger:     logger,
	}
}

func (c *Companion) Ping(ctx context.Context) error {
	return c.page.Root().Ping(ctx)
}

func (c *Companion) ExtractContentWithIframes(ctx context.Context) (*entity.PageExtraction, error) {
	root := c.page.Root()
	main, err := root.Content(ctx)
	if err != nil {
		return nil, fmt.Errorf("read main document: %w", err)
	}
	if main == nil || strings.TrimSpace(main.HTML) == "" {
		return nil, entity.ErrContentEmpty
	}

	frames, err := c.walker.Walk(ctx, root)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Page extracted", "url", main.URL, "frames", len(frames))
	return &entity.PageExtraction{MainPage: *main, Iframes: frames}, nil
}

// DetectForms walks the page once and returns the forms together with the
// extraction they were found in.
func (c *Companion) DetectForms(ctx context.Context) (*entity.DetectedForms, error) {
	extraction, err := c.ExtractContentWithIframes(ctx)
	if err != nil {
		return nil, err
	}
	detected, err := c.discoverer.Discover(extraction.MainPage, extraction.Iframes)
	if err != nil {
		return nil, err
	}
	detected.Page = extraction
	return detected, nil
}

// FillForms runs one fill at a time against the page.
func (c *Companion) FillForms(ctx context.Context, req entity.FillRequest) (*entity.FillReport, error) {
	c.fillMu.Lock()
	defer c.fillMu.Unlock()
	return c.filler.Fill(ctx, req), nil
}
