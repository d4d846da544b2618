// Package extraction turns a tab into one merged, cleaned and measured
// document.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"framefill/internal/application/port/input"
	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
	"framefill/internal/usecase/cleaner"
	"framefill/internal/usecase/merger"
	"framefill/internal/usecase/stats"
)

var _ input.ContentExtractor = (*Extractor)(nil)

type Extractor struct {
	channel  output.PageChannel
	fallback output.DocumentSource
	merger   *merger.Merger
	cleaner  *cleaner.Cleaner
	stats    *stats.Engine
	markdown output.MarkdownPort
	metadata output.MetadataPort
	language output.LanguagePort
	logger   output.LoggerPort
}

type Deps struct {
	Channel  output.PageChannel
	Fallback output.DocumentSource
	Merger   *merger.Merger
	Cleaner  *cleaner.Cleaner
	Stats    *stats.Engine
	Markdown output.MarkdownPort
	// Metadata and Language are optional.
	Metadata output.MetadataPort
	Language output.LanguagePort
	Logger   output.LoggerPort
}

func New(d Deps) *Extractor {
	return &Extractor{
		channel:  d.Channel,
		fallback: d.Fallback,
		merger:   d.Merger,
		cleaner:  d.Cleaner,
		stats:    d.Stats,
		markdown: d.Markdown,
		metadata: d.Metadata,
		language: d.Language,
		logger:   d.Logger,
	}
}

// Extract reads the page through the channel, falling back to a direct
// single-document read when that fails or comes back empty.
func (e *Extractor) Extract(ctx context.Context) (*entity.ExtractionResult, error) {
	page, usedFallback, err := e.read(ctx)
	if err != nil {
		return nil, err
	}
	return e.process(page, usedFallback)
}

// FromPage merges, cleans and measures an extraction that was already taken,
// such as the one form detection walked.
func (e *Extractor) FromPage(page *entity.PageExtraction) (*entity.ExtractionResult, error) {
	if page == nil || !Valid(page.MainPage.HTML) {
		return nil, entity.ErrContentEmpty
	}
	return e.process(page, false)
}

func (e *Extractor) process(page *entity.PageExtraction, usedFallback bool) (*entity.ExtractionResult, error) {
	merged, err := e.merger.Merge(page.MainPage.HTML, page.Iframes)
	if err != nil {
		return nil, fmt.Errorf("merge frames: %w", err)
	}
	cleaned, err := e.cleaner.Clean(merged.HTML)
	if err != nil {
		return nil, fmt.Errorf("clean document: %w", err)
	}
	md, err := e.markdown.Convert(cleaned.MainContent, page.MainPage.URL)
	if err != nil {
		return nil, fmt.Errorf("convert to markdown: %w", err)
	}

	contentStats, chunks := e.stats.Analyze(stats.Input{
		MainPageHTML: page.MainPage.HTML,
		Frames:       page.Iframes,
		CleanedHTML:  cleaned.HTML,
		Markdown:     md,
	})

	result := &entity.ExtractionResult{
		URL:          page.MainPage.URL,
		Title:        page.MainPage.Title,
		Frames:       page.Iframes,
		Merged:       *merged,
		Cleaned:      *cleaned,
		Markdown:     md,
		Chunks:       chunks,
		Stats:        contentStats,
		Metadata:     e.pageMetadata(merged.HTML, page.MainPage, md),
		UsedFallback: usedFallback,
	}
	if result.Title == "" {
		result.Title = result.Metadata.Title
	}

	e.logger.Info("Content extracted",
		"url", result.URL,
		"frames", len(result.Frames),
		"usedFallback", usedFallback,
		"originalSize", contentStats.OriginalSize,
		"markdownSize", contentStats.MarkdownSize,
		"chunks", contentStats.ChunkCount)
	return result, nil
}

func (e *Extractor) read(ctx context.Context) (*entity.PageExtraction, bool, error) {
	page, err := e.channel.ExtractContentWithIframes(ctx)
	if err == nil && Valid(page.MainPage.HTML) {
		return page, false, nil
	}
	if err == nil {
		err = entity.ErrContentEmpty
	}
	e.logger.Warn("Frame-aware extraction failed, reading document directly", "error", err)

	if e.fallback == nil {
		return nil, false, fmt.Errorf("extract page: %w", err)
	}
	doc, ferr := e.fallback.DocumentHTML(ctx)
	if ferr != nil {
		return nil, true, fmt.Errorf("fallback extraction: %w", errors.Join(err, ferr))
	}
	if doc == nil || !Valid(doc.HTML) {
		return nil, true, fmt.Errorf("fallback extraction: %w", entity.ErrContentEmpty)
	}
	return &entity.PageExtraction{MainPage: *doc}, true, nil
}

// Valid reports whether html is non-empty and looks like a document.
func Valid(html string) bool {
	lower := strings.ToLower(strings.TrimSpace(html))
	if lower == "" {
		return false
	}
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body")
}

func (e *Extractor) pageMetadata(html string, main entity.FrameContent, md string) entity.PageMetadata {
	meta := entity.PageMetadata{Title: main.Title}
	if e.metadata != nil {
		extracted, err := e.metadata.Extract(html, main.URL)
		if err != nil {
			e.logger.Debug("Metadata extraction failed", "error", err)
		} else {
			meta = extracted
			if meta.Title == "" {
				meta.Title = main.Title
			}
		}
	}
	if meta.Language == "" && e.language != nil {
		if lang, ok := e.language.Detect(md); ok {
			meta.Language = lang
		}
	}
	return meta
}
