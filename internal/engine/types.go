package engine

import "fmt"

// Device is the preferred compute device for the engine. Whether the
// preference is feasible is decided by the backend.
type Device string

const (
	DeviceCPU Device = "cpu"
	DeviceGPU Device = "gpu"
)

// DeviceFromGPUFlag maps the boolean deployment flag to a Device.
func DeviceFromGPUFlag(useGPU bool) Device {
	if useGPU {
		return DeviceGPU
	}
	return DeviceCPU
}

// Params are the sampling parameters attached to every generation call.
type Params struct {
	MaxLength          int
	Temperature        float64
	TopP               float64
	DoSample           bool
	NumReturnSequences int
}

// DefaultParams returns the deployment defaults.
func DefaultParams() Params {
	return Params{
		MaxLength:          500,
		Temperature:        0.7,
		TopP:               0.9,
		DoSample:           true,
		NumReturnSequences: 1,
	}
}

// Validate checks every parameter against its allowed range.
func (p Params) Validate() error {
	if p.MaxLength <= 0 {
		return fmt.Errorf("max_length must be positive, got %d", p.MaxLength)
	}
	if p.Temperature <= 0 || p.Temperature > 2 {
		return fmt.Errorf("temperature must be in (0, 2], got %v", p.Temperature)
	}
	if p.TopP <= 0 || p.TopP > 1 {
		return fmt.Errorf("top_p must be in (0, 1], got %v", p.TopP)
	}
	if p.NumReturnSequences < 1 {
		return fmt.Errorf("num_return_sequences must be at least 1, got %d", p.NumReturnSequences)
	}
	return nil
}

// Sequence is one generated output of a Runner.
type Sequence struct {
	GeneratedText string `json:"generated_text"`
}
