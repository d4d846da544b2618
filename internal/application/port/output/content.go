package output

import "framefill/internal/domain/entity"

type MarkdownPort interface {
	Convert(html, pageURL string) (string, error)
}

type MetadataPort interface {
	Extract(html, pageURL string) (entity.PageMetadata, error)
}

type LanguagePort interface {
	Detect(text string) (string, bool)
}

type TokenCounterPort interface {
	Count(text string) int
}
