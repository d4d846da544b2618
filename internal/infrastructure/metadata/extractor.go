package metadata

import (
	"fmt"
	"net/url"
	"strings"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"

	"github.com/go-shiori/go-readability"
)

var _ output.MetadataPort = (*Extractor)(nil)

// Extractor reads article metadata with readability.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(html, pageURL string) (entity.PageMetadata, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return entity.PageMetadata{}, fmt.Errorf("parse page url: %w", err)
	}

	article, err := readability.NewParser().Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return entity.PageMetadata{}, fmt.Errorf("readability: %w", err)
	}

	return entity.PageMetadata{
		Title:    strings.TrimSpace(article.Title),
		Byline:   strings.TrimSpace(article.Byline),
		Excerpt:  strings.TrimSpace(article.Excerpt),
		SiteName: strings.TrimSpace(article.SiteName),
	}, nil
}
