package prompts

import (
	"encoding/json"
	"fmt"

	"framefill/internal/domain/entity"

	"github.com/tmc/langchaingo/prompts"
)

// Rendered is a system and user message pair.
type Rendered struct {
	System string
	User   string
}

// Relevance renders the stage 1 prompt. pageHTML should already be
// truncated to fit the model context.
func Relevance(req entity.RelevanceRequest, pageHTML string) (Rendered, error) {
	summary, err := indent(req.Summary)
	if err != nil {
		return Rendered{}, err
	}
	forms, err := indent(req.Forms)
	if err != nil {
		return Rendered{}, err
	}

	user, err := prompts.NewPromptTemplate(RelevanceInput, []string{"content", "summary", "forms", "page"}).
		Format(map[string]any{
			"content": req.Content,
			"summary": summary,
			"forms":   forms,
			"page":    pageHTML,
		})
	if err != nil {
		return Rendered{}, fmt.Errorf("render relevance prompt: %w", err)
	}
	return Rendered{System: RelevancePrompt, User: user}, nil
}

// Mapping renders the stage 2 prompt.
func Mapping(req entity.FieldMappingRequest) (Rendered, error) {
	system, err := prompts.NewPromptTemplate(MappingPrompt, []string{"language"}).
		Format(map[string]any{"language": req.Language})
	if err != nil {
		return Rendered{}, fmt.Errorf("render mapping system prompt: %w", err)
	}

	form, err := indent(req.SelectedForm)
	if err != nil {
		return Rendered{}, err
	}
	user, err := prompts.NewPromptTemplate(MappingInput, []string{"content", "form", "rationale"}).
		Format(map[string]any{
			"content":   req.Content,
			"form":      form,
			"rationale": req.Prior.Rationale,
		})
	if err != nil {
		return Rendered{}, fmt.Errorf("render mapping prompt: %w", err)
	}
	return Rendered{System: system, User: user}, nil
}

func indent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode prompt data: %w", err)
	}
	return string(data), nil
}
