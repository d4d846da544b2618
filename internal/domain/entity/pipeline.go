package entity

type PipelineState string

const (
	StateIdle            PipelineState = "IDLE"
	StateFormsDetected   PipelineState = "FORMS_DETECTED"
	StateContentAnalyzed PipelineState = "CONTENT_ANALYZED"
	StateFieldsMapped    PipelineState = "FIELDS_MAPPED"
	StateFilled          PipelineState = "FILLED"
)

type Stage string

const (
	StageDetect  Stage = "detect"
	StageAnalyze Stage = "analyze"
	StageMap     Stage = "map"
	StageFill    Stage = "fill"
)

// SessionStatus is a snapshot of a pipeline session. State is the last
// state reached successfully; FailedStage is set while a stage awaits retry.
type SessionStatus struct {
	ID          string              `json:"id"`
	State       PipelineState       `json:"state"`
	Phase       string              `json:"phase"`
	FailedStage Stage               `json:"failedStage,omitempty"`
	LastError   string              `json:"lastError,omitempty"`
	Forms       []FormDescriptor    `json:"forms,omitempty"`
	Relevance   *RelevanceResult    `json:"relevance,omitempty"`
	Mapping     *FieldMappingResult `json:"mapping,omitempty"`
	Fill        *FillReport         `json:"fill,omitempty"`
}

// FailedPhase renders the FAILED_AT_<state> name for a failure at state.
func FailedPhase(state PipelineState) string {
	return "FAILED_AT_" + string(state)
}
