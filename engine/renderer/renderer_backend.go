package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/headless"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeHeadless selects the in-process backend. Nothing is drawn and every submission completes
	// immediately, which keeps the frame loop and its synchronization running without a window or GPU.
	BackendTypeHeadless
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeHeadless:
		return "headless"
	default:
		return "wgpu"
	}
}

// ParseBackendType maps a settings value to a backend type. Matching is case-insensitive.
//
// Parameters:
//   - s: "wgpu" or "headless"
//
// Returns:
//   - RendererBackendType: the backend type
//   - error: an error if s names no backend
func ParseBackendType(s string) (RendererBackendType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wgpu", "webgpu", "":
		return BackendTypeWGPU, nil
	case "headless":
		return BackendTypeHeadless, nil
	default:
		return 0, fmt.Errorf("unknown renderer backend %q", s)
	}
}

// SurfaceSource provides the platform surface the WebGPU backend renders into. The engine window implements it.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
}

// OpenDevice creates the device root for the selected backend.
//
// Parameters:
//   - backendType: the backend to open
//   - source: the window surface, required for BackendTypeWGPU and ignored otherwise
//   - options: functional options for the WebGPU backend
//
// Returns:
//   - gpu.Device: the device
//   - error: an error if the backend could not be initialized
func OpenDevice(backendType RendererBackendType, source SurfaceSource, options ...WGPUBackendOption) (gpu.Device, error) {
	switch backendType {
	case BackendTypeHeadless:
		return headless.NewDevice(headless.WithAutoComplete(true)), nil
	case BackendTypeWGPU:
		if source == nil {
			return nil, errors.New("the wgpu backend needs a window surface")
		}
		return NewWGPUDevice(source.SurfaceDescriptor(), options...)
	default:
		return nil, fmt.Errorf("unsupported renderer backend %d", backendType)
	}
}
