package frame

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-pacer/common"
)

// SlotBuilderOption is a functional option used to configure a Slot during construction.
type SlotBuilderOption func(*Slot)

// WithClearColor sets the color the render pass clears to.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - SlotBuilderOption: a function that sets the clear color
func WithClearColor(c common.Color) SlotBuilderOption {
	return func(s *Slot) {
		s.clear = c
	}
}

// WithLogger sets the logger used for slot diagnostics.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - SlotBuilderOption: a function that sets the logger
func WithLogger(logger *slog.Logger) SlotBuilderOption {
	return func(s *Slot) {
		if logger != nil {
			s.logger = logger
		}
	}
}
