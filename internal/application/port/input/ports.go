package input

import (
	"context"

	"framefill/internal/domain/entity"
)

type ContentExtractor interface {
	Extract(ctx context.Context) (*entity.ExtractionResult, error)
}

type AnalyzeRequest struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

type MapRequest struct {
	Language string `json:"language"`
}

// FormPipeline drives detect -> analyze -> map -> fill for one tab.
type FormPipeline interface {
	Detect(ctx context.Context) (*entity.DetectedForms, error)
	Analyze(ctx context.Context, req AnalyzeRequest) (*entity.RelevanceResult, error)
	Map(ctx context.Context, req MapRequest) (*entity.FieldMappingResult, error)
	Fill(ctx context.Context, opts entity.FillOptions) (*entity.FillReport, error)
	Retry(ctx context.Context) error
	Status() entity.SessionStatus
}
