package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Loader constructs a Runner for a named model. It is the expensive,
// fallible startup step of the external generation engine.
type Loader interface {
	Load(ctx context.Context, modelID string, device Device) (Runner, error)
}

// Runner turns a prompt into one or more generated sequences. Runners are
// not assumed to be reentrant.
type Runner interface {
	Run(ctx context.Context, prompt string, params Params) ([]Sequence, error)
}

// ErrNoSequences is wrapped in a GenerationError when a runner succeeds
// without producing output.
var ErrNoSequences = errors.New("engine returned no sequences")

// Options tunes a Handle.
type Options struct {
	// MaxConcurrency bounds simultaneous Runner.Run calls. Values below 1
	// are treated as 1, which fully serializes generation.
	MaxConcurrency int
}

// Handle owns the single generation engine instance of the process. It is
// read-only after Initialize and safe for concurrent use.
type Handle struct {
	runner  Runner
	modelID string
	device  Device
	sem     *semaphore.Weighted
}

// Initialize loads modelID on device through loader. It is meant to be
// called exactly once at startup; any error is an *InitError.
func Initialize(ctx context.Context, loader Loader, modelID string, device Device, opts Options) (*Handle, error) {
	if loader == nil {
		return nil, &InitError{ModelID: modelID, Device: device, Err: errors.New("no engine loader configured")}
	}
	runner, err := loader.Load(ctx, modelID, device)
	if err != nil {
		return nil, &InitError{ModelID: modelID, Device: device, Err: err}
	}
	if runner == nil {
		return nil, &InitError{ModelID: modelID, Device: device, Err: errors.New("loader returned no runner")}
	}
	return newHandle(runner, modelID, device, opts), nil
}

// NewHandle wraps an already constructed Runner. Used when the caller owns
// engine construction, such as tests substituting a stub engine.
func NewHandle(runner Runner, modelID string, device Device, opts Options) *Handle {
	return newHandle(runner, modelID, device, opts)
}

func newHandle(runner Runner, modelID string, device Device, opts Options) *Handle {
	n := opts.MaxConcurrency
	if n < 1 {
		n = 1
	}
	return &Handle{
		runner:  runner,
		modelID: modelID,
		device:  device,
		sem:     semaphore.NewWeighted(int64(n)),
	}
}

// ModelID returns the identifier of the loaded model.
func (h *Handle) ModelID() string { return h.modelID }

// Device returns the device preference the engine was loaded with.
func (h *Handle) Device() Device { return h.device }

// Generate runs prompt through the engine and returns the text of the first
// sequence. It blocks for the full inference and never retries. Every
// failure, including a panic inside the runner, is a *GenerationError.
func (h *Handle) Generate(ctx context.Context, prompt string, params Params) (text string, err error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", &GenerationError{Err: fmt.Errorf("waiting for engine: %w", err)}
	}
	defer h.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			text, err = "", &GenerationError{Err: fmt.Errorf("engine panic: %v", r)}
		}
	}()

	seqs, err := h.runner.Run(ctx, prompt, params)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	if len(seqs) == 0 {
		return "", &GenerationError{Err: ErrNoSequences}
	}
	return seqs[0].GeneratedText, nil
}
