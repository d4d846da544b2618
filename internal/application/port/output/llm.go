package output

import (
	"context"

	"framefill/internal/domain/entity"
)

type LLMPort interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest.Model overrides the adapter's default model when set.
type ChatRequest struct {
	Model       string
	Messages    []entity.Message
	Temperature float32
	JSONMode    bool
}

type ChatResponse struct {
	Message entity.Message
}
