package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
	"framefill/internal/infrastructure/prompts"
)

var _ output.ReasoningPort = (*Adapter)(nil)

type Config struct {
	// MaxPageHTML caps the page HTML sent with the relevance request.
	MaxPageHTML int
	Temperature float32
}

func DefaultConfig() Config {
	return Config{
		MaxPageHTML: 20000,
		Temperature: 0,
	}
}

// Adapter answers both reasoning stages with a chat model in JSON mode.
type Adapter struct {
	llm    output.LLMPort
	logger output.LoggerPort
	cfg    Config
}

func New(llm output.LLMPort, logger output.LoggerPort, cfg Config) *Adapter {
	return &Adapter{
		llm:    llm,
		logger: logger,
		cfg:    cfg,
	}
}

type relevanceReply struct {
	Success        bool   `json:"success"`
	SelectedFormID string `json:"selectedFormId"`
	Rationale      string `json:"rationale"`
}

type mappingReply struct {
	Success  bool                `json:"success"`
	Mappings []entity.FieldValue `json:"mappings"`
}

func (a *Adapter) AnalyzeRelevance(ctx context.Context, req entity.RelevanceRequest) (*entity.RelevanceResult, error) {
	if len(req.Forms) == 0 {
		return &entity.RelevanceResult{Rationale: "no fillable forms on the page"}, nil
	}

	rendered, err := prompts.Relevance(req, truncate(req.PageHTML, a.cfg.MaxPageHTML))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrAnalysis, err)
	}

	var reply relevanceReply
	if err := a.ask(ctx, req.Model, rendered, &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrAnalysis, err)
	}

	result := &entity.RelevanceResult{
		Success:   reply.Success,
		Rationale: reply.Rationale,
	}
	if !reply.Success {
		return result, nil
	}

	result.SelectedForm = entity.FormDescriptor{ID: reply.SelectedFormID}
	for _, form := range req.Forms {
		if form.ID == reply.SelectedFormID {
			result.SelectedForm = form
			break
		}
	}

	a.logger.Info("Relevance analyzed",
		"selected_form", reply.SelectedFormID,
		"forms", len(req.Forms),
	)
	return result, nil
}

func (a *Adapter) AnalyzeFieldMapping(ctx context.Context, req entity.FieldMappingRequest) (*entity.FieldMappingResult, error) {
	rendered, err := prompts.Mapping(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMapping, err)
	}

	var reply mappingReply
	if err := a.ask(ctx, req.Model, rendered, &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMapping, err)
	}

	result := &entity.FieldMappingResult{Success: reply.Success}
	seen := make(map[string]bool, len(reply.Mappings))
	for _, m := range reply.Mappings {
		if _, ok := req.SelectedForm.Field(m.FieldID); !ok {
			a.logger.Warn("Dropping mapping for unknown field", "field_id", m.FieldID)
			continue
		}
		if seen[m.FieldID] {
			continue
		}
		seen[m.FieldID] = true
		result.Mappings = append(result.Mappings, m)
	}

	a.logger.Info("Field mapping analyzed",
		"form_id", req.SelectedForm.ID,
		"mappings", len(result.Mappings),
		"dropped", len(reply.Mappings)-len(result.Mappings),
	)
	return result, nil
}

func (a *Adapter) ask(ctx context.Context, model string, rendered prompts.Rendered, dst any) error {
	resp, err := a.llm.Chat(ctx, output.ChatRequest{
		Model: model,
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: rendered.System},
			{Role: entity.RoleUser, Content: rendered.User},
		},
		Temperature: a.cfg.Temperature,
		JSONMode:    true,
	})
	if err != nil {
		return err
	}
	return parseJSON(resp.Message.Content, dst)
}

// parseJSON reads the outermost object, tolerating prose or code fences
// around it.
func parseJSON(response string, dst any) error {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), dst); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n<!-- truncated -->"
}
