package output

import (
	"context"

	"framefill/internal/domain/entity"
)

// DocumentSource reads the top-level document directly, without frames.
type DocumentSource interface {
	DocumentHTML(ctx context.Context) (*entity.FrameContent, error)
}

// BrowserPort is a single live tab.
type BrowserPort interface {
	FillTargetResolver
	DocumentSource

	Navigate(ctx context.Context, url string) error
	Root() FrameHandle
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	CurrentURL() string
	Close()
}
