package presenter

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/surface"
)

// PresenterBuilderOption is a functional option used to configure a Presenter during construction.
type PresenterBuilderOption func(*Presenter)

// WithFramesInFlight sets the preferred number of frame slots. The surface's image count limits still apply, and
// the negotiated count never changes afterwards.
//
// Parameters:
//   - n: the preferred number of slots
//
// Returns:
//   - PresenterBuilderOption: option function to apply
func WithFramesInFlight(n int) PresenterBuilderOption {
	return func(p *Presenter) {
		p.surfaceOptions = append(p.surfaceOptions, surface.WithDesiredImages(n))
	}
}

// WithPresentMode sets the presentation mode.
//
// Parameters:
//   - mode: the present mode
//
// Returns:
//   - PresenterBuilderOption: option function to apply
func WithPresentMode(mode gpu.PresentMode) PresenterBuilderOption {
	return func(p *Presenter) {
		p.surfaceOptions = append(p.surfaceOptions, surface.WithPresentMode(mode))
	}
}

// WithFormat sets the preferred surface color format.
//
// Parameters:
//   - format: the color format
//
// Returns:
//   - PresenterBuilderOption: option function to apply
func WithFormat(format gpu.Format) PresenterBuilderOption {
	return func(p *Presenter) {
		p.surfaceOptions = append(p.surfaceOptions, surface.WithFormat(format))
	}
}

// WithClearColor sets the color every frame clears to.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - PresenterBuilderOption: option function to apply
func WithClearColor(c common.Color) PresenterBuilderOption {
	return func(p *Presenter) {
		p.slotOptions = append(p.slotOptions, frame.WithClearColor(c))
	}
}

// WithLogger sets the logger for the presenter, its surface and its slots.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - PresenterBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) PresenterBuilderOption {
	return func(p *Presenter) {
		if logger != nil {
			p.logger = logger
		}
	}
}
