package presenter

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/headless"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pacer/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ext(w, h uint32) common.Extent2D {
	return common.Extent2D{Width: w, Height: h}
}

type harness struct {
	device    *headless.Device
	presenter *Presenter
	table     *pipeline.Table
	scene     scene.Scene
}

func newHarness(t *testing.T, frames int, options ...headless.DeviceBuilderOption) *harness {
	t.Helper()
	d := headless.NewDevice(append([]headless.DeviceBuilderOption{headless.WithAutoComplete(true)}, options...)...)
	p, err := New(d, ext(640, 480), WithFramesInFlight(frames))
	require.NoError(t, err)
	t.Cleanup(p.Release)

	table, err := pipeline.NewDefaultTable(d)
	require.NoError(t, err)

	s := scene.NewScene("presenter-test", scene.WithComputeWorkers(1))
	s.AddCamera(scene.DefaultCamera)
	tri := s.AddModel(&scene.Primitive{Vertices: make([]scene.Vertex, 3)})
	_, err = s.AddNode(tri, common.IdentityTransform)
	require.NoError(t, err)

	return &harness{device: d, presenter: p, table: table, scene: s}
}

// record fills an acquired slot with the current scene.
func (h *harness) record(t *testing.T, slot *frame.Slot) {
	t.Helper()
	snap := h.scene.Snapshot()
	require.NoError(t, slot.Begin(snap))
	require.NoError(t, slot.Draw(snap, h.table))
	require.NoError(t, slot.End())
}

// render runs one full frame and returns the slot index and the present error.
func (h *harness) render(t *testing.T) (int, error) {
	t.Helper()
	slot, idx, err := h.presenter.NextFrame()
	require.NoError(t, err)
	h.record(t, slot)
	return idx, h.presenter.Present(slot)
}

func TestNewCreatesOneSlotPerImage(t *testing.T) {
	h := newHarness(t, 3)
	slots := h.presenter.Slots()
	require.Len(t, slots, 3)
	for i, slot := range slots {
		assert.Equal(t, i, slot.Index())
		assert.Equal(t, i, slot.Framebuffer().Image().Index())
		assert.Equal(t, frame.StateIdle, slot.State())
	}
	// Three slots with two semaphores each, plus the spare.
	assert.Equal(t, 7, h.device.Stats().SemaphoresCreated)
	assert.Equal(t, ext(640, 480), h.presenter.Extent())
}

func TestFramesInFlightIsClampedToSurfaceLimits(t *testing.T) {
	h := newHarness(t, 8, headless.WithImageCountRange(2, 3))
	assert.Len(t, h.presenter.Slots(), 3)

	h = newHarness(t, 1, headless.WithImageCountRange(2, 3))
	assert.Len(t, h.presenter.Slots(), 2)
}

func TestSlotsRotateAndBlockOnlyOnReuse(t *testing.T) {
	h := newHarness(t, 3, headless.WithAutoComplete(false))

	for want := 0; want < 3; want++ {
		idx, err := h.render(t)
		require.NoError(t, err)
		assert.Equal(t, want, idx)
	}
	assert.Equal(t, 0, h.device.Stats().BlockingWaits, "the first use of each slot must not block")
	assert.Equal(t, 3, h.device.Pending())

	type result struct {
		slot *frame.Slot
		idx  int
		err  error
	}
	done := make(chan result, 1)
	go func() {
		slot, idx, err := h.presenter.NextFrame()
		done <- result{slot, idx, err}
	}()

	require.Eventually(t, func() bool { return h.device.Stats().Waiters == 1 }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("next frame returned while slot 0 was still executing")
	default:
	}

	h.device.Complete(1)
	var r result
	select {
	case r = <-done:
	case <-time.After(time.Second):
		t.Fatal("next frame did not return after slot 0 completed")
	}
	require.NoError(t, r.err)
	assert.Equal(t, 0, r.idx)
	assert.Equal(t, 1, h.device.Stats().BlockingWaits)

	status, err := r.slot.Fence().Status()
	require.NoError(t, err)
	assert.Equal(t, gpu.FenceSignaled, status, "a reused slot's previous submission must be complete")
	assert.Equal(t, 2, h.device.Pending(), "slots 1 and 2 are still in flight")

	h.record(t, r.slot)
	require.NoError(t, h.presenter.Present(r.slot))
	assert.Equal(t, []int{0, 1, 2, 0}, h.device.Presented())
	assert.Equal(t, 1, h.presenter.Stats().Waits)
}

func TestFenceIsResetBeforeEverySubmission(t *testing.T) {
	h := newHarness(t, 2)
	for i := 0; i < 6; i++ {
		_, err := h.render(t)
		require.NoError(t, err)
	}
	for _, slot := range h.presenter.Slots() {
		assert.Equal(t, 3, slot.Stats().Frames)
		assert.NoError(t, slot.Fence().Consistent())
	}
	assert.Equal(t, 6, h.presenter.Stats().Frames)
	assert.Equal(t, 6, h.device.Stats().Submits)
}

func TestOutOfDatePresentRecreatesAtClampedExtent(t *testing.T) {
	h := newHarness(t, 2, headless.WithExtentRange(ext(1, 1), ext(1024, 768)))

	_, err := h.render(t)
	require.NoError(t, err)

	h.device.FailNextPresent(gpu.ErrSurfaceOutOfDate)
	_, err = h.render(t)
	require.ErrorIs(t, err, gpu.ErrRecreateNeeded)
	assert.ErrorIs(t, err, gpu.ErrSurfaceOutOfDate)
	assert.Equal(t, 1, h.presenter.Stats().RecreateSignals)

	require.NoError(t, h.presenter.HandleResize(ext(2000, 500)))
	assert.Equal(t, ext(1024, 500), h.presenter.Extent())
	assert.Equal(t, ext(2000, 500), h.presenter.Requested())

	slot, idx, err := h.presenter.NextFrame()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, ext(1024, 500), slot.Framebuffer().Extent())
	h.record(t, slot)
	require.NoError(t, h.presenter.Present(slot))
}

func TestOutOfDateAcquireRequestsRecreation(t *testing.T) {
	h := newHarness(t, 2)
	h.device.FailNextAcquire(gpu.ErrSurfaceSuboptimal)

	slot, _, err := h.presenter.NextFrame()
	assert.Nil(t, slot)
	require.ErrorIs(t, err, gpu.ErrRecreateNeeded)
	assert.ErrorIs(t, err, gpu.ErrSurfaceSuboptimal)

	require.NoError(t, h.presenter.HandleResize(ext(320, 240)))
	_, err = h.render(t)
	require.NoError(t, err)
}

func TestRecreationKeepsSlotsAndCaches(t *testing.T) {
	h := newHarness(t, 3)
	for i := 0; i < 3; i++ {
		_, err := h.render(t)
		require.NoError(t, err)
	}

	before := h.presenter.Slots()
	type snapshot struct {
		imageAcquired, workComplete any
		cached, allocations         int
	}
	states := make([]snapshot, len(before))
	for i, slot := range before {
		require.NotZero(t, slot.Caches().Len())
		states[i] = snapshot{
			imageAcquired: slot.ImageAcquired(),
			workComplete:  slot.WorkComplete(),
			cached:        slot.Caches().Len(),
			allocations:   slot.Caches().Buffers.Allocations(),
		}
	}
	stats := h.device.Stats()

	require.NoError(t, h.presenter.HandleResize(ext(800, 600)))

	after := h.presenter.Slots()
	require.Len(t, after, len(before))
	for i, slot := range after {
		assert.Same(t, before[i], slot)
		assert.NotSame(t, states[i].imageAcquired, slot.ImageAcquired())
		assert.Same(t, states[i].workComplete, slot.WorkComplete())
		assert.Equal(t, states[i].cached, slot.Caches().Len())
		assert.Equal(t, ext(800, 600), slot.Framebuffer().Extent())
	}
	now := h.device.Stats()
	assert.Equal(t, len(after)+1, now.SemaphoresCreated-stats.SemaphoresCreated)
	assert.Equal(t, len(after)+1, now.SemaphoresReleased-stats.SemaphoresReleased)
	assert.Equal(t, len(after), now.AttachmentsCreated-stats.AttachmentsCreated)
	assert.Equal(t, 1, now.WaitIdles-stats.WaitIdles)

	for i := 0; i < 3; i++ {
		_, err := h.render(t)
		require.NoError(t, err)
	}
	for i, slot := range after {
		assert.Equal(t, states[i].allocations, slot.Caches().Buffers.Allocations(), "a resize must not reallocate cached buffers")
	}
	assert.Equal(t, 1, h.presenter.Stats().Recreations)
}

func TestResizeAfterAbandonedFrame(t *testing.T) {
	h := newHarness(t, 2)
	_, _, err := h.presenter.NextFrame()
	require.NoError(t, err)

	// The surface still holds the abandoned image until the chain is rebuilt.
	require.NoError(t, h.presenter.HandleResize(ext(320, 200)))
	assert.Equal(t, 2, h.device.Stats().Configures)
	for i := 0; i < 4; i++ {
		_, err := h.render(t)
		require.NoError(t, err)
	}
}

func TestNextFrameTwiceWithoutPresentPanics(t *testing.T) {
	h := newHarness(t, 2)
	_, _, err := h.presenter.NextFrame()
	require.NoError(t, err)
	assert.PanicsWithValue(t, "renderer invariant violated: next frame while frame 0 has not been presented", func() {
		_, _, _ = h.presenter.NextFrame()
	})
}

func TestDeviceLostDuringWaitIsFatal(t *testing.T) {
	h := newHarness(t, 2, headless.WithAutoComplete(false))
	for i := 0; i < 2; i++ {
		_, err := h.render(t)
		require.NoError(t, err)
	}

	done := make(chan error, 1)
	go func() {
		_, _, err := h.presenter.NextFrame()
		done <- err
	}()
	require.Eventually(t, func() bool { return h.device.Stats().Waiters == 1 }, time.Second, time.Millisecond)
	h.device.Lose()

	select {
	case err := <-done:
		require.ErrorIs(t, err, gpu.ErrDeviceLost)
		assert.True(t, gpu.IsFatal(err))
		assert.NotErrorIs(t, err, gpu.ErrRecreateNeeded)
	case <-time.After(time.Second):
		t.Fatal("next frame did not return after device loss")
	}
}

func TestResetSceneClearsCaches(t *testing.T) {
	h := newHarness(t, 2)
	for i := 0; i < 2; i++ {
		_, err := h.render(t)
		require.NoError(t, err)
	}
	require.NoError(t, h.presenter.ResetScene())
	for _, slot := range h.presenter.Slots() {
		assert.Zero(t, slot.Caches().Len())
	}
	_, err := h.render(t)
	require.NoError(t, err)
}

func TestReleaseWaitsIdleOnce(t *testing.T) {
	d := headless.NewDevice(headless.WithAutoComplete(false))
	p, err := New(d, ext(64, 64))
	require.NoError(t, err)

	slot, _, err := p.NextFrame()
	require.NoError(t, err)
	require.NoError(t, slot.Begin(&scene.Snapshot{Generation: 1}))
	require.NoError(t, slot.End())
	require.NoError(t, p.Present(slot))
	require.Equal(t, 1, d.Pending())

	p.Release()
	assert.Equal(t, 0, d.Pending())
	assert.Equal(t, 1, d.Stats().WaitIdles)
	p.Release()
	assert.Equal(t, 1, d.Stats().WaitIdles)
}
