package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/config"
	"github.com/Carmen-Shannon/oxy-pacer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pacer/engine/scene"
	"github.com/Carmen-Shannon/oxy-pacer/engine/window"
)

// minimizedPoll is how long the loop sleeps between polls while the window has no drawable area.
const minimizedPoll = 20 * time.Millisecond

// engine implements the Engine interface.
// Coordinates the fixed-rate tick goroutine with the frame loop on the calling goroutine.
type engine struct {
	settings config.Settings
	logger   *slog.Logger

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	ran     bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window          window.Window
	ownsWindow      bool
	renderer        renderer.Renderer
	scene           scene.Scene
	recreatePending bool

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        int
	frames           atomic.Int64
}

// Engine is the main entry point for the engine.
// It owns the window, the renderer and the scene, and paces frames through the renderer's presenter.
type Engine interface {
	// Window returns the window, or nil when running headless without one.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer frames are drawn with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Scene returns the scene drawn each frame.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// Settings returns the settings the engine was built from.
	//
	// Returns:
	//   - config.Settings: the settings
	Settings() config.Settings

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick. It runs on the tick goroutine, concurrently
	// with the frame loop.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called on the frame loop before each snapshot is taken.
	// Input read here reflects the current poll tick.
	//
	// Parameters:
	//   - callback: function to call each frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Frames returns the number of frames presented so far.
	//
	// Returns:
	//   - int: the presented frame count
	Frames() int

	// Run drives the frame loop on the calling goroutine until the window closes, Quit is called, ctx is done,
	// the configured frame count is reached, or a fatal error occurs. When it returns the renderer has been
	// released and an owned window closed. Run may only be called once.
	//
	// With a GLFW window Run must be called from the goroutine that created the engine, which is locked to the
	// main OS thread.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//
	// Returns:
	//   - error: the fatal error that stopped the loop, or nil on a normal stop
	Run(ctx context.Context) error

	// Quit signals the frame loop and the tick goroutine to stop.
	// Safe to call multiple times and from any goroutine; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Anything not supplied through options is built from the settings: the window (unless the backend is
// headless), the device, the renderer and an empty scene.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if the settings are invalid or a component could not be created
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		settings:        config.Default(),
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		engineTickRate:  time.Second / 60,
	}
	for _, opt := range options {
		opt(e)
	}

	if err := e.settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if e.logger == nil {
		logger, err := e.settings.Logger(os.Stderr)
		if err != nil {
			return nil, err
		}
		e.logger = logger
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}

	if e.renderer == nil {
		if err := e.openRenderer(); err != nil {
			if e.ownsWindow {
				_ = e.window.Close()
			}
			return nil, err
		}
	}
	if e.scene == nil {
		e.scene = scene.NewScene(e.settings.Window.Title, scene.WithComputeWorkers(e.settings.Engine.ComputeWorkers))
	}
	return e, nil
}

// openRenderer creates the window when the backend presents to one, then the device and the renderer.
func (e *engine) openRenderer() error {
	s := e.settings
	backend, err := s.BackendType()
	if err != nil {
		return err
	}
	presentMode, err := s.PresentMode()
	if err != nil {
		return err
	}

	extent := s.Extent()
	var source renderer.SurfaceSource
	if backend == renderer.BackendTypeWGPU {
		if e.window == nil {
			w, err := window.NewWindow(
				window.WithTitle(s.Window.Title),
				window.WithSize(s.Window.Width, s.Window.Height),
				window.WithMinSize(s.Window.MinWidth, s.Window.MinHeight),
				window.WithMaxSize(s.Window.MaxWidth, s.Window.MaxHeight),
			)
			if err != nil {
				return err
			}
			e.window = w
			e.ownsWindow = true
		}
		source = e.window
	}
	if e.window != nil {
		extent = e.window.Size()
	}

	device, err := renderer.OpenDevice(backend, source,
		renderer.WithForceSoftwareRenderer(s.Renderer.SoftwareAdapter),
		renderer.WithBackendLogger(e.logger),
	)
	if err != nil {
		return fmt.Errorf("failed to open %s device: %w", backend, err)
	}

	r, err := renderer.NewRenderer(device, extent,
		renderer.WithFramesInFlight(s.Renderer.FramesInFlight),
		renderer.WithPresentMode(presentMode),
		renderer.WithClearColor(s.ClearColor()),
		renderer.WithLogger(e.logger),
	)
	if err != nil {
		device.Release()
		return err
	}
	e.renderer = r
	return nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Settings() config.Settings {
	return e.settings
}

func (e *engine) Frames() int {
	return int(e.frames.Load())
}

func (e *engine) Run(ctx context.Context) (err error) {
	if e.ran {
		return errors.New("engine has already run")
	}
	e.ran = true
	e.running.Store(true)

	e.wg.Add(1)
	go e.handleEngine()

	defer func() {
		e.signalQuit()
		e.wg.Wait()
		e.teardown()
	}()
	// An invariant violation in the frame loop stops the engine instead of crashing the process.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("frame loop recovered from panic", slog.Any("panic", r))
			err = fmt.Errorf("frame loop panicked: %v", r)
		}
	}()

	e.logger.Info("engine running",
		slog.String("extent", e.renderer.Presenter().Extent().String()),
		slog.Int("frames_in_flight", len(e.renderer.Presenter().Slots())),
	)
	return e.handleRender(ctx)
}

// Quit signals all engine goroutines to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

func (e *engine) teardown() {
	e.renderer.Release()
	if e.ownsWindow {
		if err := e.window.Close(); err != nil {
			e.logger.Warn("failed to close window", slog.Any("error", err))
		}
	}
	e.logger.Info("engine stopped", slog.Int("frames", e.Frames()))
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		}
	}
}

// handleRender is the frame loop. Each iteration polls the window, recreates the presenter when the window was
// resized or the surface went stale, and renders one frame.
func (e *engine) handleRender(ctx context.Context) error {
	lastRender := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.quitChannel:
			return nil
		default:
		}

		frameStart := time.Now()
		if e.window != nil {
			if !e.window.IsRunning() {
				return nil
			}
			e.window.PollEvents()
			if stop, err := e.handleInput(); stop || err != nil {
				return err
			}
			if e.window.Resized() {
				e.recreatePending = true
			}
		}

		if e.recreatePending {
			extent := e.targetExtent()
			if extent.IsZero() {
				e.sleep(ctx, minimizedPoll)
				continue
			}
			if err := e.renderer.HandleResize(extent); err != nil {
				return fmt.Errorf("failed to recreate presenter at %s: %w", extent, err)
			}
			e.recreatePending = false
			e.logger.Debug("presenter recreated",
				slog.String("requested", extent.String()),
				slog.String("extent", e.renderer.Presenter().Extent().String()),
			)
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now
		if e.renderCallback != nil {
			e.renderCallback(dt)
		}

		err := e.renderer.RenderFrame(e.scene.Snapshot())
		if renderer.IsRecreateNeeded(err) {
			e.recreatePending = true
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to render frame %d: %w", e.Frames(), err)
		}

		frames := e.frames.Add(1)
		if e.profilingEnabled.Load() {
			e.profiler.Tick(e.renderer.Presenter().Stats())
		}
		if e.maxFrames > 0 && frames >= int64(e.maxFrames) {
			return nil
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(frameStart); remaining > 0 {
				e.sleep(ctx, remaining)
			}
		}
	}
}

// handleInput applies the engine's own key bindings: Esc quits, R drops every cached per-frame resource.
func (e *engine) handleInput() (bool, error) {
	in := e.window.Input()
	if in.Key(common.KeyEsc) == window.JustPressed {
		e.signalQuit()
		return true, nil
	}
	if in.Key(common.KeyR) == window.JustPressed {
		if err := e.renderer.ResetScene(); err != nil {
			return true, fmt.Errorf("failed to reset scene resources: %w", err)
		}
		e.logger.Info("scene resources reset")
	}
	return false, nil
}

func (e *engine) targetExtent() common.Extent2D {
	if e.window != nil {
		return e.window.Size()
	}
	return e.renderer.Presenter().Requested()
}

func (e *engine) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-e.quitChannel:
	case <-t.C:
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickInterval(fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// Non-blocking send - if channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameInterval(fps)
}

func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

func frameInterval(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
