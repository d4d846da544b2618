package output

import (
	"context"

	"framefill/internal/domain/entity"
)

// ReasoningPort is the external collaborator that picks the relevant form
// and maps free text onto its fields.
type ReasoningPort interface {
	AnalyzeRelevance(ctx context.Context, req entity.RelevanceRequest) (*entity.RelevanceResult, error)
	AnalyzeFieldMapping(ctx context.Context, req entity.FieldMappingRequest) (*entity.FieldMappingResult, error)
}
