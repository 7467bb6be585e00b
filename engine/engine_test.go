package engine

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/config"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/headless"
	"github.com/Carmen-Shannon/oxy-pacer/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func headlessSettings() config.Settings {
	s := config.Default()
	s.Renderer.Backend = "headless"
	s.Window.Width = 320
	s.Window.Height = 240
	s.Engine.ComputeWorkers = 1
	return s
}

// fakeWindow scripts window events per poll tick.
type fakeWindow struct {
	running bool
	size    common.Extent2D
	resized bool
	input   *window.Input
	polls   int
	onPoll  func(w *fakeWindow, poll int)
}

func newFakeWindow(onPoll func(w *fakeWindow, poll int)) *fakeWindow {
	return &fakeWindow{
		running: true,
		size:    common.Extent2D{Width: 320, Height: 240},
		input:   window.NewInput(),
		onPoll:  onPoll,
	}
}

func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) IsRunning() bool                            { return w.running }
func (w *fakeWindow) Size() common.Extent2D                      { return w.size }
func (w *fakeWindow) Input() *window.Input                       { return w.input }

func (w *fakeWindow) PollEvents() {
	w.input.Tick()
	w.polls++
	if w.onPoll != nil {
		w.onPoll(w, w.polls)
	}
}

func (w *fakeWindow) Resized() bool {
	r := w.resized
	w.resized = false
	return r
}

func (w *fakeWindow) Close() error {
	w.running = false
	return nil
}

func (w *fakeWindow) resize(width, height uint32) {
	w.size = common.Extent2D{Width: width, Height: height}
	w.resized = true
}

func newHeadlessRenderer(t *testing.T, frames int) (*headless.Device, renderer.Renderer) {
	t.Helper()
	d := headless.NewDevice(headless.WithAutoComplete(true))
	r, err := renderer.NewRenderer(d, common.Extent2D{Width: 320, Height: 240},
		renderer.WithFramesInFlight(frames), renderer.WithLogger(quiet))
	require.NoError(t, err)
	return d, r
}

func TestNewEngineRejectsInvalidSettings(t *testing.T) {
	s := headlessSettings()
	s.Renderer.FramesInFlight = 0
	_, err := NewEngine(WithSettings(s), WithLogger(quiet))
	assert.ErrorContains(t, err, "frames_in_flight")
}

func TestRunStopsAfterMaxFrames(t *testing.T) {
	s := headlessSettings()
	s.Engine.MaxFrames = 5
	e, err := NewEngine(WithSettings(s), WithLogger(quiet))
	require.NoError(t, err)
	assert.Nil(t, e.Window())

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 5, e.Frames())
	assert.Equal(t, 5, e.Renderer().Presenter().Stats().Frames)
	assert.Equal(t, common.Extent2D{Width: 320, Height: 240}, e.Renderer().Presenter().Extent())

	assert.Error(t, e.Run(context.Background()), "run is single use")
}

func TestRunReturnsOnContextCancel(t *testing.T) {
	e, err := NewEngine(WithSettings(headlessSettings()), WithLogger(quiet))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	e.SetRenderCallback(func(float32) {
		calls++
		if calls == 3 {
			cancel()
		}
	})
	require.NoError(t, e.Run(ctx))
	assert.Equal(t, 3, e.Frames())
}

func TestRunRecreatesAfterOutOfDatePresent(t *testing.T) {
	d, r := newHeadlessRenderer(t, 2)
	d.FailNextPresent(gpu.ErrSurfaceOutOfDate)

	e, err := NewEngine(WithSettings(headlessSettings()), WithRenderer(r), WithMaxFrames(3), WithLogger(quiet))
	require.NoError(t, err)
	require.NoError(t, e.Run(context.Background()))

	stats := r.Presenter().Stats()
	assert.Equal(t, 3, stats.Frames)
	assert.Equal(t, 1, stats.RecreateSignals)
	assert.Equal(t, 1, stats.Recreations)
	assert.Equal(t, 2, d.Stats().Configures)
}

func TestRunRecreatesAfterOutOfDateAcquire(t *testing.T) {
	d, r := newHeadlessRenderer(t, 3)
	d.FailNextAcquire(gpu.ErrSurfaceOutOfDate)

	e, err := NewEngine(WithSettings(headlessSettings()), WithRenderer(r), WithMaxFrames(2), WithLogger(quiet))
	require.NoError(t, err)
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, 1, r.Presenter().Stats().Recreations)
	assert.Equal(t, []int{0, 1}, d.Presented())
}

func TestRunFailsOnDeviceLost(t *testing.T) {
	d, r := newHeadlessRenderer(t, 2)
	d.Lose()

	e, err := NewEngine(WithSettings(headlessSettings()), WithRenderer(r), WithLogger(quiet))
	require.NoError(t, err)
	err = e.Run(context.Background())
	require.ErrorIs(t, err, gpu.ErrDeviceLost)
	assert.True(t, gpu.IsFatal(err))
	assert.Zero(t, e.Frames())
}

func TestRunRecoversPanic(t *testing.T) {
	d, r := newHeadlessRenderer(t, 2)
	e, err := NewEngine(WithSettings(headlessSettings()), WithRenderer(r), WithLogger(quiet))
	require.NoError(t, err)
	e.SetRenderCallback(func(float32) { panic("boom") })

	err = e.Run(context.Background())
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 1, d.Stats().WaitIdles, "renderer is released after a panic")
}

func TestEscapeQuits(t *testing.T) {
	w := newFakeWindow(func(w *fakeWindow, poll int) {
		if poll == 3 {
			w.input.KeyDown(common.KeyEsc)
		}
	})
	_, r := newHeadlessRenderer(t, 2)
	e, err := NewEngine(WithSettings(headlessSettings()), WithWindow(w), WithRenderer(r), WithLogger(quiet))
	require.NoError(t, err)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 2, e.Frames())
	assert.True(t, w.running, "a supplied window stays open")
}

func TestClosedWindowStopsLoop(t *testing.T) {
	w := newFakeWindow(func(w *fakeWindow, poll int) {
		if poll == 2 {
			w.running = false
		}
	})
	_, r := newHeadlessRenderer(t, 2)
	e, err := NewEngine(WithSettings(headlessSettings()), WithWindow(w), WithRenderer(r), WithLogger(quiet))
	require.NoError(t, err)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 2, e.Frames())
}

func TestResetKeyDropsCaches(t *testing.T) {
	w := newFakeWindow(func(w *fakeWindow, poll int) {
		if poll == 2 {
			w.input.KeyDown(common.KeyR)
		}
	})
	d, r := newHeadlessRenderer(t, 2)
	e, err := NewEngine(WithSettings(headlessSettings()), WithWindow(w), WithRenderer(r),
		WithMaxFrames(3), WithLogger(quiet))
	require.NoError(t, err)

	require.NoError(t, e.Run(context.Background()))
	// one for the reset, one for the release
	assert.Equal(t, 2, d.Stats().WaitIdles)
}

func TestWindowResizeRecreatesAtNewSize(t *testing.T) {
	w := newFakeWindow(func(w *fakeWindow, poll int) {
		if poll == 2 {
			w.resize(800, 600)
		}
	})
	_, r := newHeadlessRenderer(t, 3)
	e, err := NewEngine(WithSettings(headlessSettings()), WithWindow(w), WithRenderer(r),
		WithMaxFrames(3), WithLogger(quiet))
	require.NoError(t, err)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, common.Extent2D{Width: 800, Height: 600}, r.Presenter().Extent())
	assert.Equal(t, 1, r.Presenter().Stats().Recreations)
	assert.Len(t, r.Presenter().Slots(), 3)
}

func TestMinimizedWindowSkipsFrames(t *testing.T) {
	w := newFakeWindow(func(w *fakeWindow, poll int) {
		switch poll {
		case 2:
			w.resize(0, 0)
		case 4:
			w.resize(640, 480)
		}
	})
	_, r := newHeadlessRenderer(t, 2)
	e, err := NewEngine(WithSettings(headlessSettings()), WithWindow(w), WithRenderer(r),
		WithMaxFrames(3), WithLogger(quiet))
	require.NoError(t, err)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 5, w.polls)
	assert.Equal(t, 1, r.Presenter().Stats().Recreations)
	assert.Equal(t, common.Extent2D{Width: 640, Height: 480}, r.Presenter().Extent())
}

func TestTickCallbackRunsUntilQuit(t *testing.T) {
	e, err := NewEngine(WithSettings(headlessSettings()), WithTickRate(500), WithRenderFrameLimit(200),
		WithLogger(quiet))
	require.NoError(t, err)

	var ticks atomic.Int32
	e.SetTickCallback(func(dt float32) {
		if ticks.Add(1) == 3 {
			e.Quit()
		}
	})

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop after quit")
	}
	assert.GreaterOrEqual(t, ticks.Load(), int32(3))
}
