package output

import (
	"context"

	"framefill/internal/domain/entity"
)

// PageChannel reaches the page-side companion of one tab. Calls fail with
// entity.ErrTimeout when the companion does not answer in time.
type PageChannel interface {
	Ping(ctx context.Context) error
	ExtractContentWithIframes(ctx context.Context) (*entity.PageExtraction, error)
	DetectForms(ctx context.Context) (*entity.DetectedForms, error)
	FillForms(ctx context.Context, req entity.FillRequest) (*entity.FillReport, error)
}
