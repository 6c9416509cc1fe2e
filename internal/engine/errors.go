package engine

import "fmt"

// InitError reports that the engine could not be constructed. It is fatal:
// the process must not start serving.
type InitError struct {
	ModelID string
	Device  Device
	Err     error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("loading model %s on %s: %v", e.ModelID, e.Device, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// GenerationError reports a failure inside a generate call. The handle
// stays usable after it.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
