package window

import "github.com/Carmen-Shannon/oxy-pacer/common"

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height uint32) WindowBuilderOption {
	return func(w *engineWindow) {
		w.size = common.Extent2D{Width: width, Height: height}
	}
}

// WithMinSize sets the minimum size the user can resize the window to.
//
// Parameters:
//   - width: minimum width in pixels, 0 for no bound
//   - height: minimum height in pixels, 0 for no bound
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(width, height uint32) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minSize = common.Extent2D{Width: width, Height: height}
	}
}

// WithMaxSize sets the maximum size the user can resize the window to.
//
// Parameters:
//   - width: maximum width in pixels, 0 for no bound
//   - height: maximum height in pixels, 0 for no bound
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMaxSize(width, height uint32) WindowBuilderOption {
	return func(w *engineWindow) {
		w.maxSize = common.Extent2D{Width: width, Height: height}
	}
}
