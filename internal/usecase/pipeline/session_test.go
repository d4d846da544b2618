package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"framefill/internal/application/port/input"
	"framefill/internal/domain/entity"
	"framefill/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contactForm = entity.FormDescriptor{
	ID:     "main-form0",
	Source: entity.SourceMain,
	Fields: []entity.FieldDescriptor{
		{ID: "main-form0-field0", Name: "email", Type: "email", Category: "contact", Visible: true, Editable: true, Selector: "#email"},
		{ID: "main-form0-field1", Name: "csrf", Type: "hidden", Editable: true},
		{ID: "main-form0-field2", Name: "comments", Type: "textarea", Category: "freetext", Visible: true, Editable: true},
	},
}

type fakeChannel struct {
	mu        sync.Mutex
	detectErr error
	fillErr   error
	fillBlock chan struct{}
	fills     []entity.FillRequest
	report    *entity.FillReport
	page      *entity.PageExtraction
	extracts  int
}

func (f *fakeChannel) Ping(ctx context.Context) error { return nil }

func (f *fakeChannel) ExtractContentWithIframes(ctx context.Context) (*entity.PageExtraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extracts++
	return nil, errors.New("not used")
}

func (f *fakeChannel) DetectForms(ctx context.Context) (*entity.DetectedForms, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	return &entity.DetectedForms{
		Forms:     []entity.FormDescriptor{contactForm},
		PageURL:   "https://example.com/contact",
		PageTitle: "Contact",
		Page:      f.page,
	}, nil
}

func (f *fakeChannel) FillForms(ctx context.Context, req entity.FillRequest) (*entity.FillReport, error) {
	f.mu.Lock()
	f.fills = append(f.fills, req)
	block := f.fillBlock
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fillErr != nil {
		return nil, f.fillErr
	}
	if f.report != nil {
		return f.report, nil
	}
	report := &entity.FillReport{Success: true}
	for _, m := range req.Mappings {
		report.Outcomes = append(report.Outcomes, entity.FillOutcome{FieldID: m.FieldID, Applied: true, AppliedValue: m.Value})
	}
	return report, nil
}

type fakeReasoning struct {
	mu           sync.Mutex
	relevanceErr error
	mappingErr   error
	selectID     string
	block        chan struct{}
	relevanceReq []entity.RelevanceRequest
	mappingReq   []entity.FieldMappingRequest
}

func (f *fakeReasoning) AnalyzeRelevance(ctx context.Context, req entity.RelevanceRequest) (*entity.RelevanceResult, error) {
	f.mu.Lock()
	f.relevanceReq = append(f.relevanceReq, req)
	block, err, id := f.block, f.relevanceErr, f.selectID
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = "main-form0"
	}
	return &entity.RelevanceResult{
		Success:      true,
		SelectedForm: entity.FormDescriptor{ID: id},
		Rationale:    "it asks for an email",
	}, nil
}

func (f *fakeReasoning) AnalyzeFieldMapping(ctx context.Context, req entity.FieldMappingRequest) (*entity.FieldMappingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mappingReq = append(f.mappingReq, req)
	if f.mappingErr != nil {
		return nil, f.mappingErr
	}
	return &entity.FieldMappingResult{
		Success: true,
		Mappings: []entity.FieldValue{
			{FieldID: "main-form0-field0", Value: "ada@example.com"},
			{FieldID: "main-form0-field2", Value: "Loved it."},
		},
	}, nil
}

type fakeProcessor struct {
	pages []*entity.PageExtraction
}

func (f *fakeProcessor) FromPage(page *entity.PageExtraction) (*entity.ExtractionResult, error) {
	f.pages = append(f.pages, page)
	return &entity.ExtractionResult{Cleaned: entity.CleanedDocument{HTML: "<form>cleaned " + page.MainPage.URL + "</form>"}}, nil
}

type fakeLanguage struct {
	lang string
}

func (f fakeLanguage) Detect(string) (string, bool) { return f.lang, f.lang != "" }

func newSession(ch *fakeChannel, r *fakeReasoning) *Session {
	return NewSession(Config{Model: "test-model"}, Deps{
		Channel:   ch,
		Reasoning: r,
		Logger:    logger.NewNop(),
	})
}

func analyzeReq() input.AnalyzeRequest {
	return input.AnalyzeRequest{Content: "My email is ada@example.com and I loved it."}
}

func TestSession_HappyPath(t *testing.T) {
	ch, r := &fakeChannel{}, &fakeReasoning{}
	s := newSession(ch, r)
	ctx := context.Background()

	assert.Equal(t, entity.StateIdle, s.Status().State)

	detected, err := s.Detect(ctx)
	require.NoError(t, err)
	assert.Len(t, detected.Forms, 1)
	assert.Equal(t, entity.StateFormsDetected, s.Status().State)

	relevance, err := s.Analyze(ctx, analyzeReq())
	require.NoError(t, err)
	assert.Equal(t, "main-form0", relevance.SelectedForm.ID)
	assert.Equal(t, entity.StateContentAnalyzed, s.Status().State)

	require.Len(t, r.relevanceReq, 1)
	sent := r.relevanceReq[0]
	assert.Equal(t, "test-model", sent.Model)
	assert.Equal(t, 1, sent.Summary.TotalForms)
	assert.Equal(t, 2, sent.Summary.TotalFields)
	assert.Equal(t, "Contact", sent.Summary.PageTitle)

	mapping, err := s.Map(ctx, input.MapRequest{})
	require.NoError(t, err)
	assert.Len(t, mapping.Mappings, 2)
	assert.Equal(t, entity.StateFieldsMapped, s.Status().State)

	require.Len(t, r.mappingReq, 1)
	stage2 := r.mappingReq[0]
	assert.Equal(t, DefaultLanguage, stage2.Language)
	assert.Equal(t, *relevance, stage2.Prior)
	assert.Len(t, stage2.SelectedForm.Fields, 2)
	assert.Equal(t, analyzeReq().Content, stage2.Content)

	report, err := s.Fill(ctx, entity.FillOptions{Backup: true, Validate: true})
	require.NoError(t, err)
	assert.True(t, report.Success)

	status := s.Status()
	assert.Equal(t, entity.StateFilled, status.State)
	assert.Equal(t, "FILLED", status.Phase)
	assert.Empty(t, status.LastError)
	require.Len(t, ch.fills, 1)
	assert.True(t, ch.fills[0].Options.Validate)
	assert.Len(t, ch.fills[0].Fields, 2)
}

func TestSession_Stage1FailureIsRetryable(t *testing.T) {
	ch, r := &fakeChannel{}, &fakeReasoning{relevanceErr: errors.New("upstream 503")}
	s := newSession(ch, r)
	ctx := context.Background()

	_, err := s.Detect(ctx)
	require.NoError(t, err)

	_, err = s.Analyze(ctx, analyzeReq())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Stage 1 failed: "), err.Error())
	assert.True(t, IsStageError(err))

	status := s.Status()
	assert.Equal(t, entity.StateFormsDetected, status.State)
	assert.Equal(t, "FAILED_AT_FORMS_DETECTED", status.Phase)
	assert.Equal(t, entity.StageAnalyze, status.FailedStage)
	assert.Len(t, status.Forms, 1)

	r.mu.Lock()
	r.relevanceErr = nil
	r.mu.Unlock()

	require.NoError(t, s.Retry(ctx))
	status = s.Status()
	assert.Equal(t, entity.StateContentAnalyzed, status.State)
	assert.Empty(t, status.FailedStage)
	assert.Len(t, r.relevanceReq, 2)
	assert.Equal(t, r.relevanceReq[0].Content, r.relevanceReq[1].Content)
}

func TestSession_UnknownSelectedForm(t *testing.T) {
	s := newSession(&fakeChannel{}, &fakeReasoning{selectID: "main-form9"})
	ctx := context.Background()
	_, err := s.Detect(ctx)
	require.NoError(t, err)

	_, err = s.Analyze(ctx, analyzeReq())
	assert.ErrorIs(t, err, entity.ErrAnalysis)
	assert.Equal(t, entity.StateFormsDetected, s.Status().State)
}

func TestSession_Stage2FailureKeepsStage1(t *testing.T) {
	r := &fakeReasoning{mappingErr: errors.New("malformed JSON")}
	s := newSession(&fakeChannel{}, r)
	ctx := context.Background()

	_, err := s.Detect(ctx)
	require.NoError(t, err)
	relevance, err := s.Analyze(ctx, analyzeReq())
	require.NoError(t, err)

	_, err = s.Map(ctx, input.MapRequest{Language: "German"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Stage 2 failed: "), err.Error())

	status := s.Status()
	assert.Equal(t, entity.StateContentAnalyzed, status.State)
	assert.Equal(t, relevance, status.Relevance)

	r.mu.Lock()
	r.mappingErr = nil
	r.mu.Unlock()
	require.NoError(t, s.Retry(ctx))

	assert.Equal(t, entity.StateFieldsMapped, s.Status().State)
	require.Len(t, r.mappingReq, 2)
	assert.Equal(t, "German", r.mappingReq[1].Language)
	assert.Len(t, r.relevanceReq, 1)
}

func TestSession_DetectAfterFilledResets(t *testing.T) {
	s := newSession(&fakeChannel{}, &fakeReasoning{})
	ctx := context.Background()

	_, err := s.Detect(ctx)
	require.NoError(t, err)
	_, err = s.Analyze(ctx, analyzeReq())
	require.NoError(t, err)
	_, err = s.Map(ctx, input.MapRequest{})
	require.NoError(t, err)
	_, err = s.Fill(ctx, entity.FillOptions{})
	require.NoError(t, err)
	require.Equal(t, entity.StateFilled, s.Status().State)

	_, err = s.Detect(ctx)
	require.NoError(t, err)

	status := s.Status()
	assert.Equal(t, entity.StateFormsDetected, status.State)
	assert.Nil(t, status.Mapping)
	assert.Nil(t, status.Relevance)
	assert.Nil(t, status.Fill)

	_, err = s.Map(ctx, input.MapRequest{})
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestSession_DetectFailure(t *testing.T) {
	ch := &fakeChannel{detectErr: entity.ErrTimeout}
	s := newSession(ch, &fakeReasoning{})

	_, err := s.Detect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrTimeout)
	assert.Equal(t, "FAILED_AT_IDLE", s.Status().Phase)

	ch.mu.Lock()
	ch.detectErr = nil
	ch.mu.Unlock()
	require.NoError(t, s.Retry(context.Background()))
	assert.Equal(t, entity.StateFormsDetected, s.Status().State)
}

func TestSession_InvalidTransitions(t *testing.T) {
	s := newSession(&fakeChannel{}, &fakeReasoning{})
	ctx := context.Background()

	_, err := s.Analyze(ctx, analyzeReq())
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	_, err = s.Fill(ctx, entity.FillOptions{})
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	assert.ErrorIs(t, s.Retry(ctx), entity.ErrInvalidTransition)

	_, err = s.Detect(ctx)
	require.NoError(t, err)
	_, err = s.Analyze(ctx, input.AnalyzeRequest{Content: "  "})
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestSession_ConcurrentStageRejected(t *testing.T) {
	r := &fakeReasoning{block: make(chan struct{})}
	s := newSession(&fakeChannel{}, r)
	ctx := context.Background()
	_, err := s.Detect(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(ctx, analyzeReq())
		done <- err
	}()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.relevanceReq) == 1
	}, time.Second, time.Millisecond)

	_, err = s.Analyze(ctx, analyzeReq())
	assert.ErrorIs(t, err, entity.ErrStageInProgress)

	close(r.block)
	require.NoError(t, <-done)
	assert.Equal(t, entity.StateContentAnalyzed, s.Status().State)
}

func TestSession_DetectSupersedesInFlightStage(t *testing.T) {
	r := &fakeReasoning{block: make(chan struct{})}
	s := newSession(&fakeChannel{}, r)
	ctx := context.Background()
	_, err := s.Detect(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(ctx, analyzeReq())
		done <- err
	}()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.relevanceReq) == 1
	}, time.Second, time.Millisecond)

	_, err = s.Detect(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, <-done, entity.ErrSessionReset)
	status := s.Status()
	assert.Equal(t, entity.StateFormsDetected, status.State)
	assert.Nil(t, status.Relevance)

	r.mu.Lock()
	r.block = nil
	r.mu.Unlock()
	_, err = s.Analyze(ctx, analyzeReq())
	assert.NoError(t, err)
}

func TestSession_FillOutcomes(t *testing.T) {
	t.Run("partial failure still reaches FILLED", func(t *testing.T) {
		ch := &fakeChannel{report: &entity.FillReport{Outcomes: []entity.FillOutcome{
			{FieldID: "main-form0-field0", Applied: true},
			{FieldID: "main-form0-field2", Error: "field not found"},
		}}}
		s := mappedSession(t, ch)

		report, err := s.Fill(context.Background(), entity.FillOptions{})
		require.NoError(t, err)
		assert.False(t, report.Success)
		assert.Len(t, report.Failed(), 1)
		assert.Equal(t, entity.StateFilled, s.Status().State)
	})

	t.Run("channel failure", func(t *testing.T) {
		ch := &fakeChannel{fillErr: entity.ErrTimeout}
		s := mappedSession(t, ch)

		_, err := s.Fill(context.Background(), entity.FillOptions{Highlight: true})
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "Fill failed: "))
		assert.Equal(t, entity.StateFieldsMapped, s.Status().State)
		assert.Equal(t, "FAILED_AT_FIELDS_MAPPED", s.Status().Phase)

		ch.mu.Lock()
		ch.fillErr = nil
		ch.mu.Unlock()
		require.NoError(t, s.Retry(context.Background()))
		assert.Equal(t, entity.StateFilled, s.Status().State)
		assert.True(t, ch.fills[1].Options.Highlight)
	})
}

func mappedSession(t *testing.T, ch *fakeChannel) *Session {
	t.Helper()
	s := newSession(ch, &fakeReasoning{})
	ctx := context.Background()
	_, err := s.Detect(ctx)
	require.NoError(t, err)
	_, err = s.Analyze(ctx, analyzeReq())
	require.NoError(t, err)
	_, err = s.Map(ctx, input.MapRequest{})
	require.NoError(t, err)
	return s
}

func TestSession_TargetLanguage(t *testing.T) {
	s := NewSession(Config{}, Deps{Logger: logger.NewNop(), Language: fakeLanguage{lang: "French"}})
	assert.Equal(t, "Spanish", s.targetLanguage("Spanish", "x"))
	assert.Equal(t, "French", s.targetLanguage("", "bonjour"))

	s.cfg.Language = "Italian"
	assert.Equal(t, "Italian", s.targetLanguage("", "bonjour"))

	s = NewSession(Config{}, Deps{Logger: logger.NewNop(), Language: fakeLanguage{}})
	assert.Equal(t, DefaultLanguage, s.targetLanguage("", "???"))
}

func TestSession_DetectWalksOnce(t *testing.T) {
	ch := &fakeChannel{page: &entity.PageExtraction{
		MainPage: entity.FrameContent{HTML: "<html><body><form></form></body></html>", URL: "https://example.com/contact"},
	}}
	r := &fakeReasoning{}
	proc := &fakeProcessor{}
	s := NewSession(Config{Model: "test-model"}, Deps{
		Channel:   ch,
		Reasoning: r,
		Extractor: proc,
		Logger:    logger.NewNop(),
	})
	ctx := context.Background()

	detected, err := s.Detect(ctx)
	require.NoError(t, err)
	assert.Nil(t, detected.Page)
	require.Len(t, proc.pages, 1)
	assert.Same(t, ch.page, proc.pages[0])
	assert.Zero(t, ch.extracts)

	_, err = s.Analyze(ctx, analyzeReq())
	require.NoError(t, err)
	require.Len(t, r.relevanceReq, 1)
	assert.Equal(t, "<form>cleaned https://example.com/contact</form>", r.relevanceReq[0].PageHTML)
}

func TestSession_FailedDetectDuringStage(t *testing.T) {
	t.Run("analyze", func(t *testing.T) {
		ch := &fakeChannel{}
		r := &fakeReasoning{block: make(chan struct{})}
		s := newSession(ch, r)
		ctx := context.Background()
		_, err := s.Detect(ctx)
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			_, err := s.Analyze(ctx, analyzeReq())
			done <- err
		}()
		require.Eventually(t, func() bool {
			r.mu.Lock()
			defer r.mu.Unlock()
			return len(r.relevanceReq) == 1
		}, time.Second, time.Millisecond)

		ch.mu.Lock()
		ch.detectErr = entity.ErrTimeout
		ch.mu.Unlock()
		_, err = s.Detect(ctx)
		require.ErrorIs(t, err, entity.ErrTimeout)

		assert.ErrorIs(t, <-done, entity.ErrSessionReset)
		assert.Equal(t, entity.StateIdle, s.Status().State)
		_, err = s.Analyze(ctx, analyzeReq())
		assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	})

	t.Run("fill", func(t *testing.T) {
		ch := &fakeChannel{fillBlock: make(chan struct{})}
		s := mappedSession(t, ch)
		ctx := context.Background()

		done := make(chan error, 1)
		go func() {
			_, err := s.Fill(ctx, entity.FillOptions{})
			done <- err
		}()
		require.Eventually(t, func() bool {
			ch.mu.Lock()
			defer ch.mu.Unlock()
			return len(ch.fills) == 1
		}, time.Second, time.Millisecond)

		ch.mu.Lock()
		ch.detectErr = entity.ErrTimeout
		ch.mu.Unlock()
		_, err := s.Detect(ctx)
		require.ErrorIs(t, err, entity.ErrTimeout)

		assert.ErrorIs(t, <-done, entity.ErrSessionReset)
		_, err = s.Fill(ctx, entity.FillOptions{})
		assert.ErrorIs(t, err, entity.ErrInvalidTransition)
		_, err = s.Map(ctx, input.MapRequest{})
		assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	})
}

func TestSession_FailedRerunDropsLaterResults(t *testing.T) {
	r := &fakeReasoning{}
	s := mappedSession(t, &fakeChannel{})
	s.reasoning = r
	ctx := context.Background()

	r.mu.Lock()
	r.relevanceErr = errors.New("upstream 503")
	r.mu.Unlock()
	_, err := s.Analyze(ctx, analyzeReq())
	require.Error(t, err)

	status := s.Status()
	assert.Equal(t, entity.StateFormsDetected, status.State)
	assert.Equal(t, entity.StageAnalyze, status.FailedStage)
	assert.Nil(t, status.Relevance)
	assert.Nil(t, status.Mapping)

	_, err = s.Map(ctx, input.MapRequest{})
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	_, err = s.Fill(ctx, entity.FillOptions{})
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
}
