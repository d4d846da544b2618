// Package httpapi exposes one form pipeline session over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"framefill/internal/application/port/input"
	"framefill/internal/application/port/output"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
)

// Navigator moves the tab the session works on. Optional.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL() string
}

type Deps struct {
	Pipeline  input.FormPipeline
	Extractor input.ContentExtractor
	Navigator Navigator
	Logger    output.LoggerPort
}

type Server struct {
	pipeline  input.FormPipeline
	extractor input.ContentExtractor
	navigator Navigator
	logger    output.LoggerPort
}

func New(d Deps) *Server {
	return &Server{
		pipeline:  d.Pipeline,
		extractor: d.Extractor,
		navigator: d.Navigator,
		logger:    d.Logger,
	}
}

// Router builds the chi router with access logging under serviceName.
func (s *Server) Router(serviceName string) http.Handler {
	accessLog := httplog.NewLogger(serviceName, httplog.Options{
		JSON:    true,
		Concise: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(accessLog))
	r.Use(middleware.Recoverer)

	s.RegisterHTTP(r)
	return r
}

func (s *Server) RegisterHTTP(r chi.Router) {
	r.Post("/navigate", s.handleNavigate)
	r.Post("/extract", s.handleExtract)
	r.Post("/detect", s.handleDetect)
	r.Post("/analyze", s.handleAnalyze)
	r.Post("/map", s.handleMap)
	r.Post("/fill", s.handleFill)
	r.Post("/retry", s.handleRetry)
	r.Get("/state", s.handleState)
}
