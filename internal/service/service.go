// Package service implements the request/response core of the model server:
// prompt validation, generation through the engine handle and post-processing
// of the generated text.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/modelserver/internal/engine"
	"github.com/kalambet/modelserver/internal/observability"
)

// Generator is the slice of the engine handle the service depends on.
type Generator interface {
	Generate(ctx context.Context, prompt string, params engine.Params) (string, error)
	ModelID() string
}

// HealthStatus is the liveness report returned by GET /health.
type HealthStatus struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// Result is a successful generation.
type Result struct {
	Text string
}

// Service validates prompts and runs them through a Generator with fixed
// sampling parameters.
type Service struct {
	gen    Generator
	params engine.Params
	logger *slog.Logger
}

// New creates a Service. params are applied to every call and are not
// overridable per request.
func New(gen Generator, params engine.Params, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, params: params, logger: logger}
}

// Health reports the service as healthy along with the loaded model id. It
// never touches the engine, so it answers even while a generation is running.
func (s *Service) Health() HealthStatus {
	return HealthStatus{Status: "healthy", Model: s.gen.ModelID()}
}

// Generate runs prompt through the engine and strips the echoed prompt from
// the output. Engine failures are returned as *engine.GenerationError.
func (s *Service) Generate(ctx context.Context, prompt string) (Result, error) {
	observability.EngineWaiting.Inc()
	start := time.Now()
	raw, err := s.gen.Generate(ctx, prompt, s.params)
	observability.EngineWaiting.Dec()
	observability.GenerationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		observability.GenerationsTotal.WithLabelValues("error").Inc()
		var genErr *engine.GenerationError
		if !errors.As(err, &genErr) {
			err = &engine.GenerationError{Err: err}
		}
		return Result{}, err
	}
	observability.GenerationsTotal.WithLabelValues("success").Inc()

	text := StripEcho(raw, prompt)
	s.logger.Debug("generation complete", "prompt_len", len(prompt), "raw_len", len(raw), "response_len", len(text))
	return Result{Text: text}, nil
}

// StripEcho removes prompt from the start of raw when raw begins with it
// exactly, then trims surrounding whitespace. Otherwise raw is returned
// unchanged.
func StripEcho(raw, prompt string) string {
	if !strings.HasPrefix(raw, prompt) {
		return raw
	}
	return strings.TrimSpace(raw[len(prompt):])
}
