package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/presenter"
	"github.com/Carmen-Shannon/oxy-pacer/engine/scene"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	device    gpu.Device
	table     *pipeline.Table
	presenter *presenter.Presenter
	logger    *slog.Logger

	// Pre-creation config collected from builder options
	framesInFlight int
	presentMode    gpu.PresentMode
	colorFormat    gpu.Format
	clearColor     common.Color

	released bool
}

// Renderer defines the interface for the rendering system.
//
// The Renderer owns the pipeline table and the presenter built on a device, and records one frame per
// RenderFrame call. It is driven from the goroutine that owns the window.
type Renderer interface {
	// RenderFrame acquires the next frame slot, uploads and draws the snapshot into it, and presents it.
	//
	// Parameters:
	//   - snap: the scene snapshot to draw
	//
	// Returns:
	//   - error: an error wrapping gpu.ErrRecreateNeeded when HandleResize must run before the next frame; any other
	//     error is fatal
	RenderFrame(snap *scene.Snapshot) error

	// HandleResize recreates the surface and everything sized to it for a new window size.
	//
	// Parameters:
	//   - extent: the new window size in pixels
	//
	// Returns:
	//   - error: an error if recreation failed
	HandleResize(extent common.Extent2D) error

	// ResetScene drops every cached per-frame resource, e.g. after a level change.
	//
	// Returns:
	//   - error: an error if the device could not go idle
	ResetScene() error

	// Pipelines returns the pipeline table materials index into.
	//
	// Returns:
	//   - *pipeline.Table: the pipeline table
	Pipelines() *pipeline.Table

	// Presenter returns the presenter that paces frames.
	//
	// Returns:
	//   - *presenter.Presenter: the presenter
	Presenter() *presenter.Presenter

	// Device returns the device root.
	//
	// Returns:
	//   - gpu.Device: the device
	Device() gpu.Device

	// Release waits for the device to go idle and destroys the presenter, the pipelines and the device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer builds the presenter and the default pipeline table on device.
//
// Parameters:
//   - device: the device root, from OpenDevice or a test device; the renderer takes ownership
//   - extent: the initial window size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: an error if the presenter or a pipeline could not be created
func NewRenderer(device gpu.Device, extent common.Extent2D, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:             &sync.Mutex{},
		device:         device,
		logger:         slog.Default(),
		framesInFlight: 3,
		presentMode:    gpu.PresentModeFifo,
		colorFormat:    gpu.FormatBGRA8UnormSrgb,
		clearColor:     common.Color{R: 0.1, G: 0.1, B: 0.1, A: 1},
	}
	for _, opt := range options {
		opt(r)
	}

	p, err := presenter.New(device, extent,
		presenter.WithFramesInFlight(r.framesInFlight),
		presenter.WithPresentMode(r.presentMode),
		presenter.WithFormat(r.colorFormat),
		presenter.WithClearColor(r.clearColor),
		presenter.WithLogger(r.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}
	r.presenter = p

	table, err := pipeline.NewDefaultTable(device, pipeline.WithColorFormat(p.Surface().Format()))
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("failed to create pipelines: %w", err)
	}
	r.table = table

	r.logger.Info("renderer ready",
		slog.Int("frames", len(p.Slots())),
		slog.Int("pipelines", table.Len()),
		slog.String("extent", p.Extent().String()),
	)
	return r, nil
}

func (r *renderer) RenderFrame(snap *scene.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, _, err := r.presenter.NextFrame()
	if err != nil {
		return err
	}
	if err := slot.Begin(snap); err != nil {
		return err
	}
	if err := slot.Draw(snap, r.table); err != nil {
		return err
	}
	if err := slot.End(); err != nil {
		return err
	}
	return r.presenter.Present(slot)
}

func (r *renderer) HandleResize(extent common.Extent2D) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presenter.HandleResize(extent)
}

func (r *renderer) ResetScene() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presenter.ResetScene()
}

func (r *renderer) Pipelines() *pipeline.Table {
	return r.table
}

func (r *renderer) Presenter() *presenter.Presenter {
	return r.presenter
}

func (r *renderer) Device() gpu.Device {
	return r.device
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	r.presenter.Release()
	r.table.Release()
	r.device.Release()
}

// IsRecreateNeeded reports whether err asks the caller to run HandleResize before the next frame.
//
// Parameters:
//   - err: an error from RenderFrame
//
// Returns:
//   - bool: true for surface invalidation
func IsRecreateNeeded(err error) bool {
	return errors.Is(err, gpu.ErrRecreateNeeded)
}
