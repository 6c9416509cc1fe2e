package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kalambet/modelserver/internal/ollama"
)

// OllamaLoader loads models on an Ollama server.
type OllamaLoader struct {
	client      *ollama.Client
	pullMissing bool
	logger      *slog.Logger
}

// NewOllamaLoader creates an OllamaLoader backed by an Ollama server at baseURL.
func NewOllamaLoader(baseURL string, pullMissing bool, logger *slog.Logger) (*OllamaLoader, error) {
	c, err := ollama.New(baseURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaLoader{client: c, pullMissing: pullMissing, logger: logger}, nil
}

// Load makes sure modelID is present and loaded, then returns a Runner for it.
func (l *OllamaLoader) Load(ctx context.Context, modelID string, device Device) (Runner, error) {
	if err := ollama.EnsureReady(ctx, l.client, modelID, l.pullMissing, deviceOptions(device), l.logger); err != nil {
		return nil, err
	}
	return &ollamaRunner{client: l.client, model: modelID, device: device}, nil
}

type ollamaRunner struct {
	client *ollama.Client
	model  string
	device Device
}

// Run issues one generation per requested sequence, one after another.
func (r *ollamaRunner) Run(ctx context.Context, prompt string, params Params) ([]Sequence, error) {
	opts := ollamaOptions(params, r.device)
	n := params.NumReturnSequences
	if n < 1 {
		n = 1
	}
	seqs := make([]Sequence, 0, n)
	for i := 0; i < n; i++ {
		out, err := r.client.Generate(ctx, r.model, prompt, opts)
		if err != nil {
			return nil, fmt.Errorf("sequence %d: %w", i, err)
		}
		seqs = append(seqs, Sequence{GeneratedText: out})
	}
	return seqs, nil
}

// ollamaOptions maps Params onto Ollama model options. Greedy decoding
// (DoSample false) is expressed as temperature 0.
func ollamaOptions(p Params, device Device) map[string]any {
	opts := deviceOptions(device)
	opts["num_predict"] = p.MaxLength
	opts["top_p"] = p.TopP
	if p.DoSample {
		opts["temperature"] = p.Temperature
	} else {
		opts["temperature"] = 0
	}
	return opts
}

func deviceOptions(device Device) map[string]any {
	opts := map[string]any{}
	if device == DeviceCPU {
		opts["num_gpu"] = 0
	}
	return opts
}
