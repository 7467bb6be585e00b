package window

import (
	"runtime"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input state for the frame loop.
// Wraps platform-specific window implementations with a common interface.
//
// A Window is not safe for concurrent use; it belongs to the goroutine that created it, which on most platforms
// must be the main OS thread.
type Window interface {
	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// PollEvents advances the input state by one tick and delivers pending platform events without blocking.
	PollEvents()

	// Resized reports whether the framebuffer size changed since the last call. The flag is cleared by reading it.
	//
	// Returns:
	//   - bool: true once per size change
	Resized() bool

	// Size returns the current framebuffer size in pixels. A minimized window reports a zero extent.
	//
	// Returns:
	//   - common.Extent2D: the framebuffer size
	Size() common.Extent2D

	// Input returns the keyboard and mouse state updated by PollEvents.
	//
	// Returns:
	//   - *Input: the input state
	Input() *Input

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	// minSize and maxSize bound interactive resizing; a zero dimension leaves that bound free.
	minSize common.Extent2D
	maxSize common.Extent2D

	// size is the framebuffer size in pixels, which differs from the window size on high-DPI displays.
	size    common.Extent2D
	resized bool

	input *Input

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}

func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:   "oxy-pacer",
		minSize: common.Extent2D{Width: 320, Height: 200},
		size:    common.Extent2D{Width: 1280, Height: 720},
		input:   NewInput(),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) PollEvents() {
	w.input.Tick()
	platformPollEvents(w)
	runtime.Gosched()
}

func (w *engineWindow) Resized() bool {
	r := w.resized
	w.resized = false
	return r
}

func (w *engineWindow) Size() common.Extent2D {
	return w.size
}

func (w *engineWindow) Input() *Input {
	return w.input
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

// framebufferResized records a new framebuffer size. Repeated reports of the same size do not raise the flag.
func (w *engineWindow) framebufferResized(width, height int) {
	next := common.Extent2D{Width: uint32(max(width, 0)), Height: uint32(max(height, 0))}
	if next == w.size {
		return
	}
	w.size = next
	w.resized = true
}
