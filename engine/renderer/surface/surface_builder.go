package surface

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

// ManagerBuilderOption is a functional option used to configure a Manager during construction.
type ManagerBuilderOption func(*Manager)

// WithDesiredImages sets the preferred number of presentable images. The surface limits still apply.
//
// Parameters:
//   - n: the preferred image count
//
// Returns:
//   - ManagerBuilderOption: a function that sets the desired image count
func WithDesiredImages(n int) ManagerBuilderOption {
	return func(m *Manager) {
		m.desiredImages = n
	}
}

// WithPresentMode sets the presentation mode.
//
// Parameters:
//   - mode: the present mode
//
// Returns:
//   - ManagerBuilderOption: a function that sets the present mode
func WithPresentMode(mode gpu.PresentMode) ManagerBuilderOption {
	return func(m *Manager) {
		m.presentMode = mode
	}
}

// WithFormat sets the preferred color format. The surface's first format is used if it is unsupported.
//
// Parameters:
//   - format: the preferred color format
//
// Returns:
//   - ManagerBuilderOption: a function that sets the color format
func WithFormat(format gpu.Format) ManagerBuilderOption {
	return func(m *Manager) {
		m.format = format
	}
}

// WithDepthFormat sets the format of the per-image depth attachments.
//
// Parameters:
//   - format: a depth format
//
// Returns:
//   - ManagerBuilderOption: a function that sets the depth format
func WithDepthFormat(format gpu.Format) ManagerBuilderOption {
	return func(m *Manager) {
		if format.IsDepth() {
			m.depthFormat = format
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ManagerBuilderOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}
