package engine

import (
	"fmt"
	"log/slog"
)

// BackendConfig selects and configures the generation engine backend.
type BackendConfig struct {
	Name        string
	BaseURL     string
	PullMissing bool
	Logger      *slog.Logger
}

// NewLoader returns the Loader for the configured backend. Only "ollama" is
// currently supported.
func NewLoader(cfg BackendConfig) (Loader, error) {
	switch cfg.Name {
	case "", "ollama":
		return NewOllamaLoader(cfg.BaseURL, cfg.PullMissing, cfg.Logger)
	default:
		return nil, fmt.Errorf("unsupported engine backend: %q", cfg.Name)
	}
}
