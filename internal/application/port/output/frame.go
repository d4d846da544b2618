package output

import (
	"context"

	"framefill/internal/domain/entity"
)

// FrameHandle is one browsing context in a frame hierarchy. The root
// handle is the top-level page.
type FrameHandle interface {
	Src() string
	Name() string
	// Ping is the liveness probe run before Content.
	Ping(ctx context.Context) error
	// Content returns entity.ErrAccessDenied when isolation blocks the read.
	Content(ctx context.Context) (*entity.FrameContent, error)
	Children(ctx context.Context) ([]FrameHandle, error)
}
