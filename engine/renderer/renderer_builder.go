package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithFramesInFlight sets the preferred number of frames the CPU may record ahead of the GPU.
//
// Parameters:
//   - n: the preferred frame count; the surface limits still apply
//
// Returns:
//   - RendererBuilderOption: a function that applies the frame count option to a renderer
func WithFramesInFlight(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.framesInFlight = n
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the gpu.PresentMode to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode gpu.PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithClearColor sets the color each frame is cleared to.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(c common.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
	}
}

// WithColorFormat sets the preferred surface color format. Pipelines are built for the format the surface
// actually negotiates.
//
// Parameters:
//   - format: the preferred color format
//
// Returns:
//   - RendererBuilderOption: a function that applies the color format option to a renderer
func WithColorFormat(format gpu.Format) RendererBuilderOption {
	return func(r *renderer) {
		r.colorFormat = format
	}
}

// WithLogger sets the logger used by the renderer and everything it builds.
func WithLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WGPUBackendOption is a functional option applied to the WebGPU backend during NewWGPUDevice.
type WGPUBackendOption func(*wgpuRendererBackendImpl)

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - WGPUBackendOption: a function that applies the option to the backend
func WithForceSoftwareRenderer(force bool) WGPUBackendOption {
	return func(b *wgpuRendererBackendImpl) {
		b.forceFallbackAdapter = force
	}
}

// WithBackendLogger sets the logger that reports device loss.
func WithBackendLogger(logger *slog.Logger) WGPUBackendOption {
	return func(b *wgpuRendererBackendImpl) {
		if logger != nil {
			b.logger = logger
		}
	}
}
