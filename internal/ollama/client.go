package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// Client communicates with an Ollama server through the official api client.
type Client struct {
	api *api.Client
}

// New creates a Client targeting the given Ollama base URL.
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing ollama base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ollama base url %q", baseURL)
	}
	// No client timeout: a generation may legitimately run for minutes.
	return &Client{api: api.NewClient(u, &http.Client{})}, nil
}

// IsRunning reports whether the Ollama server answers its heartbeat.
func (c *Client) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.api.Heartbeat(ctx) == nil
}

// ListModels returns the names of all models available in the local Ollama instance.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := c.api.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("requesting model list: %w", err)
	}

	names := make([]string, len(resp.Models))
	for i, m := range resp.Models {
		names[i] = m.Name
	}
	return names, nil
}

// HasModel reports whether the given model name is present locally.
func (c *Client) HasModel(ctx context.Context, name string) bool {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false
	}
	for _, m := range models {
		// Ollama may return "deepseek-r1:latest"; match without tag suffix.
		if m == name || strings.HasPrefix(m, name+":") {
			return true
		}
	}
	return false
}

// PullProgress is one line of the streamed pull response.
type PullProgress struct {
	Status    string
	Total     int64
	Completed int64
}

// PullModel downloads a model, reading the streamed progress to completion.
// The optional progress callback receives each progress line; pass nil to ignore.
func (c *Client) PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error {
	stream := true
	req := &api.PullRequest{Model: name, Stream: &stream}
	err := c.api.Pull(ctx, req, func(p api.ProgressResponse) error {
		if onProgress != nil {
			onProgress(PullProgress{Status: p.Status, Total: p.Total, Completed: p.Completed})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("pulling model %s: %w", name, err)
	}
	return nil
}

// ErrEmptyResponse is returned when the server completes a generation
// without producing a final response.
var ErrEmptyResponse = errors.New("ollama returned no response")

// Generate runs a single non-streaming completion of prompt. The prompt is
// sent raw so the server applies no chat template around it.
func (c *Client) Generate(ctx context.Context, model, prompt string, options map[string]any) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   model,
		Prompt:  prompt,
		Raw:     true,
		Stream:  &stream,
		Options: options,
	}

	var (
		sb   strings.Builder
		done bool
	)
	err := c.api.Generate(ctx, req, func(r api.GenerateResponse) error {
		sb.WriteString(r.Response)
		done = done || r.Done
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	if !done {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
