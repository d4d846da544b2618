package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"framefill/internal/application/port/input"
	"framefill/internal/domain/entity"
)

type navigateRequest struct {
	URL string `json:"url"`
}

type fillRequest struct {
	Backup    *bool `json:"backup"`
	Validate  *bool `json:"validate"`
	Highlight *bool `json:"highlight"`
}

// options defaults every flag to true.
func (f fillRequest) options() entity.FillOptions {
	flag := func(v *bool) bool { return v == nil || *v }
	return entity.FillOptions{
		Backup:    flag(f.Backup),
		Validate:  flag(f.Validate),
		Highlight: flag(f.Highlight),
	}
}

type errorResponse struct {
	Error  string                `json:"error"`
	Status *entity.SessionStatus `json:"status,omitempty"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if s.navigator == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "navigation is not available"})
		return
	}
	var req navigateRequest
	if err := decode(r, &req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url required"})
		return
	}
	if err := s.navigator.Navigate(r.Context(), req.URL); err != nil {
		s.fail(w, "navigate", err)
		return
	}
	writeJSON(w, http.StatusOK, navigateRequest{URL: s.navigator.CurrentURL()})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if s.extractor == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "extraction is not available"})
		return
	}
	result, err := s.extractor.Extract(r.Context())
	if err != nil {
		s.fail(w, "extract", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	detected, err := s.pipeline.Detect(r.Context())
	if err != nil {
		s.fail(w, "detect", err)
		return
	}
	writeJSON(w, http.StatusOK, detected)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req input.AnalyzeRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	result, err := s.pipeline.Analyze(r.Context(), req)
	if err != nil {
		s.fail(w, "analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	var req input.MapRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	result, err := s.pipeline.Map(r.Context(), req)
	if err != nil {
		s.fail(w, "map", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	var req fillRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	report, err := s.pipeline.Fill(r.Context(), req.options())
	if err != nil {
		s.fail(w, "fill", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Retry(r.Context()); err != nil {
		s.fail(w, "retry", err)
		return
	}
	writeJSON(w, http.StatusOK, s.pipeline.Status())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Status())
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	code := statusCode(err)
	s.logger.Warn("Request failed", "op", op, "status", code, "error", err)

	resp := errorResponse{Error: err.Error()}
	if code == http.StatusUnprocessableEntity || code == http.StatusConflict {
		status := s.pipeline.Status()
		resp.Status = &status
	}
	writeJSON(w, code, resp)
}

func statusCode(err error) int {
	var stageErr *entity.StageError
	switch {
	case errors.Is(err, entity.ErrStageInProgress),
		errors.Is(err, entity.ErrInvalidTransition),
		errors.Is(err, entity.ErrSessionReset):
		return http.StatusConflict
	case errors.Is(err, entity.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &stageErr), errors.Is(err, entity.ErrContentEmpty):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// decode accepts an empty body as the zero value.
func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
