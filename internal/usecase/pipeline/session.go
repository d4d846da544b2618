// Package pipeline runs the detect -> analyze -> map -> fill state machine
// for one tab.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"framefill/internal/application/port/input"
	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
	"framefill/internal/usecase/discovery"

	"github.com/google/uuid"
)

var _ input.FormPipeline = (*Session)(nil)

const DefaultLanguage = "English"

type Config struct {
	// Model is used when a request leaves it empty.
	Model string
	// Language forces the stage 2 language; empty means detect from content.
	Language string
}

// PageProcessor cleans the extraction that form detection walked.
type PageProcessor interface {
	FromPage(page *entity.PageExtraction) (*entity.ExtractionResult, error)
}

type Deps struct {
	Channel   output.PageChannel
	Reasoning output.ReasoningPort
	// Extractor supplies the cleaned page HTML for stage 1. Optional.
	Extractor PageProcessor
	// Language detects the language of the user content. Optional.
	Language output.LanguagePort
	Logger   output.LoggerPort
}

// Session is one pipeline run against one tab. Stages run one at a time;
// Detect may be called at any point and supersedes whatever is in flight.
type Session struct {
	id        string
	cfg       Config
	channel   output.PageChannel
	reasoning output.ReasoningPort
	extractor PageProcessor
	language  output.LanguagePort
	logger    output.LoggerPort

	mu          sync.Mutex
	busy        bool
	generation  uint64
	cancel      context.CancelFunc
	state       entity.PipelineState
	failedStage entity.Stage
	lastErr     error

	detected     *entity.DetectedForms
	pageHTML     string
	selectedForm *entity.FormDescriptor
	relevance    *entity.RelevanceResult
	mapping      *entity.FieldMappingResult
	fill         *entity.FillReport

	// analyzed is the request behind the current relevance result; the
	// *Req fields hold the latest inputs for Retry.
	analyzed   input.AnalyzeRequest
	analyzeReq input.AnalyzeRequest
	mapReq     input.MapRequest
	fillOpts   entity.FillOptions
}

func NewSession(cfg Config, d Deps) *Session {
	id := uuid.New().String()
	return &Session{
		id:        id,
		cfg:       cfg,
		channel:   d.Channel,
		reasoning: d.Reasoning,
		extractor: d.Extractor,
		language:  d.Language,
		logger:    d.Logger.WithField("session", id),
		state:     entity.StateIdle,
	}
}

func (s *Session) ID() string {
	return s.id
}

// run is a stage invocation holding the session for its duration.
type run struct {
	ctx        context.Context
	cancel     context.CancelFunc
	generation uint64
}

// begin claims the session for stage. capture, when set, runs under the
// same lock so the stage reads its inputs from the state it was allowed in.
func (s *Session) begin(ctx context.Context, stage entity.Stage, capture func()) (*run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stage == entity.StageDetect {
		s.generation++
		if s.cancel != nil {
			s.cancel()
		}
	} else {
		if s.busy {
			return nil, entity.ErrStageInProgress
		}
		if err := s.allowed(stage); err != nil {
			return nil, err
		}
	}

	if capture != nil {
		capture()
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.busy = true
	s.cancel = cancel
	return &run{ctx: runCtx, cancel: cancel, generation: s.generation}, nil
}

// end releases the session. It reports false when a newer Detect took
// over, in which case the caller must not touch session state.
func (s *Session) end(r *run) bool {
	r.cancel()
	if r.generation != s.generation {
		return false
	}
	s.busy = false
	s.cancel = nil
	return true
}

func (s *Session) allowed(stage entity.Stage) error {
	var ok bool
	switch stage {
	case entity.StageAnalyze:
		ok = s.detected != nil
	case entity.StageMap:
		ok = s.relevance != nil
	case entity.StageFill:
		ok = s.mapping != nil
	}
	if !ok {
		return fmt.Errorf("%w: cannot %s from %s", entity.ErrInvalidTransition, stage, s.state)
	}
	return nil
}

// fail records a stage failure. The session falls back to the state the
// stage started from and drops results that depended on an earlier run of
// it, so later stages cannot proceed on stale input.
func (s *Session) fail(stage entity.Stage, err error) error {
	switch stage {
	case entity.StageAnalyze:
		s.selectedForm = nil
		s.relevance = nil
		s.mapping = nil
		s.fill = nil
		s.state = entity.StateFormsDetected
	case entity.StageMap:
		s.mapping = nil
		s.fill = nil
		s.state = entity.StateContentAnalyzed
	case entity.StageFill:
		s.fill = nil
		s.state = entity.StateFieldsMapped
	}

	stageErr := &entity.StageError{Stage: stage, Err: err}
	s.failedStage = stage
	s.lastErr = stageErr
	s.logger.Error("Pipeline stage failed", "stage", stage, "state", s.state, "error", err)
	return stageErr
}

func (s *Session) succeed(stage entity.Stage, state entity.PipelineState) {
	s.state = state
	s.failedStage = ""
	s.lastErr = nil
	s.logger.Info("Pipeline stage completed", "stage", stage, "state", state)
}

// Detect rediscovers forms and starts the session over from FORMS_DETECTED.
func (s *Session) Detect(ctx context.Context) (*entity.DetectedForms, error) {
	r, err := s.begin(ctx, entity.StageDetect, nil)
	if err != nil {
		return nil, err
	}

	detected, derr := s.channel.DetectForms(r.ctx)
	pageHTML := ""
	if derr == nil {
		pageHTML = s.cleanedPage(detected.Page)
		forms := *detected
		forms.Page = nil
		detected = &forms
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.end(r) {
		return nil, entity.ErrSessionReset
	}

	s.detected = nil
	s.pageHTML = ""
	s.selectedForm = nil
	s.relevance = nil
	s.mapping = nil
	s.fill = nil
	s.state = entity.StateIdle

	if derr != nil {
		return nil, s.fail(entity.StageDetect, derr)
	}
	s.detected = detected
	s.pageHTML = pageHTML
	s.succeed(entity.StageDetect, entity.StateFormsDetected)
	return detected, nil
}

// cleanedPage cleans the extraction detection already walked.
func (s *Session) cleanedPage(page *entity.PageExtraction) string {
	if s.extractor == nil || page == nil {
		return ""
	}
	result, err := s.extractor.FromPage(page)
	if err != nil {
		s.logger.Warn("Page extraction for analysis failed", "error", err)
		return ""
	}
	return result.Cleaned.HTML
}

// Analyze is stage 1: pick the form the content belongs to.
func (s *Session) Analyze(ctx context.Context, req input.AnalyzeRequest) (*entity.RelevanceResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", entity.ErrInvalidTransition)
	}
	var (
		detected *entity.DetectedForms
		pageHTML string
	)
	r, err := s.begin(ctx, entity.StageAnalyze, func() {
		s.analyzeReq = req
		detected = s.detected
		pageHTML = s.pageHTML
	})
	if err != nil {
		return nil, err
	}

	model := s.model(req.Model)
	result, callErr := s.reasoning.AnalyzeRelevance(r.ctx, entity.RelevanceRequest{
		Content:  req.Content,
		Summary:  discovery.Summarize(detected),
		PageHTML: pageHTML,
		Model:    model,
		Forms:    discovery.EligibleForms(detected.Forms),
	})
	var selected *entity.FormDescriptor
	if callErr == nil {
		selected, callErr = selectedForm(detected, result)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.end(r) {
		return nil, entity.ErrSessionReset
	}
	if callErr != nil {
		return nil, s.fail(entity.StageAnalyze, callErr)
	}

	s.analyzed = req
	s.selectedForm = selected
	s.relevance = result
	s.mapping = nil
	s.fill = nil
	s.succeed(entity.StageAnalyze, entity.StateContentAnalyzed)
	return result, nil
}

// selectedForm matches the collaborator's choice against the detected
// forms and keeps only its eligible fields.
func selectedForm(detected *entity.DetectedForms, result *entity.RelevanceResult) (*entity.FormDescriptor, error) {
	if result == nil || !result.Success {
		reason := "no relevant form"
		if result != nil && result.Rationale != "" {
			reason = result.Rationale
		}
		return nil, fmt.Errorf("%w: %s", entity.ErrAnalysis, reason)
	}
	for _, form := range detected.Forms {
		if form.ID == result.SelectedForm.ID {
			form.Fields = form.EligibleFields()
			return &form, nil
		}
	}
	return nil, fmt.Errorf("%w: selected form %q was not detected", entity.ErrAnalysis, result.SelectedForm.ID)
}

// Map is stage 2: turn the content into values for the selected form.
func (s *Session) Map(ctx context.Context, req input.MapRequest) (*entity.FieldMappingResult, error) {
	var (
		analyzeReq input.AnalyzeRequest
		form       entity.FormDescriptor
		prior      entity.RelevanceResult
	)
	r, err := s.begin(ctx, entity.StageMap, func() {
		s.mapReq = req
		analyzeReq = s.analyzed
		form = *s.selectedForm
		prior = *s.relevance
	})
	if err != nil {
		return nil, err
	}

	result, callErr := s.reasoning.AnalyzeFieldMapping(r.ctx, entity.FieldMappingRequest{
		Content:      analyzeReq.Content,
		SelectedForm: form,
		Model:        s.model(analyzeReq.Model),
		Language:     s.targetLanguage(req.Language, analyzeReq.Content),
		Prior:        prior,
	})
	if callErr == nil && (result == nil || !result.Success) {
		callErr = fmt.Errorf("%w: collaborator returned no mappings", entity.ErrMapping)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.end(r) {
		return nil, entity.ErrSessionReset
	}
	if callErr != nil {
		return nil, s.fail(entity.StageMap, callErr)
	}

	s.mapping = result
	s.fill = nil
	s.succeed(entity.StageMap, entity.StateFieldsMapped)
	return result, nil
}

func (s *Session) targetLanguage(requested, content string) string {
	if requested != "" {
		return requested
	}
	if s.cfg.Language != "" {
		return s.cfg.Language
	}
	if s.language != nil {
		if lang, ok := s.language.Detect(content); ok {
			return lang
		}
	}
	return DefaultLanguage
}

func (s *Session) model(requested string) string {
	if requested != "" {
		return requested
	}
	return s.cfg.Model
}

// Fill applies the mapping to the page. Per-field failures are data in the
// report; only a failed channel call fails the stage.
func (s *Session) Fill(ctx context.Context, opts entity.FillOptions) (*entity.FillReport, error) {
	var req entity.FillRequest
	r, err := s.begin(ctx, entity.StageFill, func() {
		s.fillOpts = opts
		req = entity.FillRequest{
			Fields:   s.selectedForm.Fields,
			Mappings: s.mapping.Mappings,
			Options:  opts,
		}
	})
	if err != nil {
		return nil, err
	}

	report, callErr := s.channel.FillForms(r.ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.end(r) {
		return nil, entity.ErrSessionReset
	}
	if callErr != nil {
		return nil, s.fail(entity.StageFill, callErr)
	}

	s.fill = report
	s.succeed(entity.StageFill, entity.StateFilled)
	if !report.Success {
		s.logger.Warn("Fill finished with failures", "failed", len(report.Failed()))
	}
	return report, nil
}

// Retry re-runs the stage that failed last, with the inputs it had.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	stage := s.failedStage
	analyzeReq, mapReq, fillOpts := s.analyzeReq, s.mapReq, s.fillOpts
	s.mu.Unlock()

	var err error
	switch stage {
	case entity.StageDetect:
		_, err = s.Detect(ctx)
	case entity.StageAnalyze:
		_, err = s.Analyze(ctx, analyzeReq)
	case entity.StageMap:
		_, err = s.Map(ctx, mapReq)
	case entity.StageFill:
		_, err = s.Fill(ctx, fillOpts)
	default:
		return fmt.Errorf("%w: nothing to retry", entity.ErrInvalidTransition)
	}
	return err
}

func (s *Session) Status() entity.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := entity.SessionStatus{
		ID:          s.id,
		State:       s.state,
		Phase:       string(s.state),
		FailedStage: s.failedStage,
		Relevance:   s.relevance,
		Mapping:     s.mapping,
		Fill:        s.fill,
	}
	if s.failedStage != "" {
		status.Phase = entity.FailedPhase(s.state)
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	if s.detected != nil {
		status.Forms = s.detected.Forms
	}
	return status
}

// IsStageError reports whether err is a stage failure that Retry can redo.
func IsStageError(err error) bool {
	var stageErr *entity.StageError
	return errors.As(err, &stageErr)
}
