package entity

// RelevanceResult is the stage 1 outcome.
type RelevanceResult struct {
	Success      bool           `json:"success"`
	SelectedForm FormDescriptor `json:"selectedForm"`
	Rationale    string         `json:"rationale"`
}

type FieldValue struct {
	FieldID string `json:"fieldId"`
	Value   string `json:"value"`
}

// FieldMappingResult is the stage 2 outcome.
type FieldMappingResult struct {
	Success  bool         `json:"success"`
	Mappings []FieldValue `json:"mappings"`
}

type RelevanceRequest struct {
	Content  string           `json:"content"`
	Summary  FormSummary      `json:"formSummary"`
	PageHTML string           `json:"pageHtml"`
	Model    string           `json:"model"`
	Forms    []FormDescriptor `json:"forms"`
}

type FieldMappingRequest struct {
	Content      string          `json:"content"`
	SelectedForm FormDescriptor  `json:"selectedForm"`
	Model        string          `json:"model"`
	Language     string          `json:"language"`
	Prior        RelevanceResult `json:"priorResult"`
}
