// Package frame holds the reusable per-frame bundle of command recorder, synchronization and resource caches.
package frame

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/resource_cache"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/sync_primitive"
	"github.com/Carmen-Shannon/oxy-pacer/engine/scene"
)

// State is the lifecycle state of a slot.
type State int

const (
	// StateIdle means the slot's previous submission has been waited on and it can be recorded into.
	StateIdle State = iota
	// StateRecording means Begin was called and commands are being recorded.
	StateRecording
	// StateSubmitted means the recording was handed to the queue and may still be executing.
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PresentTarget queues a rendered image for display.
type PresentTarget interface {
	Present(queue gpu.Queue, imageIndex int, wait gpu.SemaphoreHandle) error
}

// Stats counts the work a slot has done.
type Stats struct {
	Frames int
	// Waits counts fence waits that had a submission to wait for.
	Waits int
	// Uploads counts uniform and geometry uploads performed by update passes.
	Uploads int
	// BindingWrites counts descriptor binding writes performed by draw passes.
	BindingWrites int
	Draws         int
}

// stamp records what a cached buffer was last filled from.
type stamp struct {
	version uint64
	extent  common.Extent2D
}

// Slot is one frame in flight. It is driven by a single goroutine: the presenter picks it, the engine loop records
// into it, and the presenter submits it.
type Slot struct {
	index  int
	device gpu.Device
	logger *slog.Logger

	recorder      gpu.Recorder
	fence         sync_primitive.Fence
	imageAcquired *sync_primitive.Semaphore
	workComplete  *sync_primitive.Semaphore
	caches        *resource_cache.Set

	framebuffer gpu.Framebuffer
	clear       common.Color

	state State
	ended bool

	uploaded   map[resource_cache.ResourceKey]stamp
	generation uint64

	stats Stats
}

// NewSlot creates the slot at index with a pre-signaled fence so that its first use never blocks.
//
// Parameters:
//   - device: the owning device
//   - index: the slot index, equal to the image index it renders to
//   - options: functional options for the slot
//
// Returns:
//   - *Slot: the slot, Idle
//   - error: a wrapped gpu.ErrDeviceLost or gpu.ErrOutOfMemory if any primitive could not be created
func NewSlot(device gpu.Device, index int, options ...SlotBuilderOption) (*Slot, error) {
	s := &Slot{
		index:    index,
		device:   device,
		logger:   slog.Default(),
		clear:    common.Color{A: 1},
		uploaded: make(map[resource_cache.ResourceKey]stamp),
	}
	for _, opt := range options {
		opt(s)
	}

	var err error
	if s.recorder, err = device.CreateRecorder(fmt.Sprintf("Frame %d", index)); err != nil {
		return nil, fmt.Errorf("frame %d: failed to create recorder: %w", index, err)
	}
	if s.fence, err = sync_primitive.NewFence(device, true); err != nil {
		s.Release()
		return nil, fmt.Errorf("frame %d: %w", index, err)
	}
	if s.imageAcquired, err = sync_primitive.NewSemaphore(device); err != nil {
		s.Release()
		return nil, fmt.Errorf("frame %d: %w", index, err)
	}
	if s.workComplete, err = sync_primitive.NewSemaphore(device); err != nil {
		s.Release()
		return nil, fmt.Errorf("frame %d: %w", index, err)
	}
	s.caches = resource_cache.NewSet(device, index)
	return s, nil
}

func (s *Slot) Index() int {
	return s.index
}

func (s *Slot) State() State {
	return s.state
}

func (s *Slot) Fence() sync_primitive.Fence {
	return s.fence
}

// ImageAcquired returns the semaphore the slot's submission waits on.
func (s *Slot) ImageAcquired() *sync_primitive.Semaphore {
	return s.imageAcquired
}

// WorkComplete returns the semaphore presentation waits on.
func (s *Slot) WorkComplete() *sync_primitive.Semaphore {
	return s.workComplete
}

func (s *Slot) Caches() *resource_cache.Set {
	return s.caches
}

func (s *Slot) Framebuffer() gpu.Framebuffer {
	return s.framebuffer
}

// Recorder returns the slot's command recorder.
func (s *Slot) Recorder() gpu.Recorder {
	return s.recorder
}

func (s *Slot) Stats() Stats {
	return s.stats
}

// Acquire makes the slot ready for recording. If its previous submission has not been waited on yet, Acquire
// blocks until the device signals the fence. This is the only place a slot moves from Submitted back to Idle.
//
// Returns:
//   - error: a wrapped gpu.ErrDeviceLost if the wait failed; the slot stays Submitted in that case
func (s *Slot) Acquire() error {
	gpu.Assert(s.state != StateRecording, "frame %d acquired while recording", s.index)
	if s.fence.CanWait() {
		s.stats.Waits++
	}
	if err := s.fence.Wait(); err != nil {
		return fmt.Errorf("frame %d: %w", s.index, err)
	}
	s.state = StateIdle
	return nil
}

// SwapImageAcquired installs spare as the slot's image-acquired semaphore and returns the previous one. The
// presenter acquires an image before it knows which slot will render it, so acquisition signals a spare semaphore
// that is then swapped into the chosen slot.
//
// Parameters:
//   - spare: a semaphore just signaled by image acquisition
//
// Returns:
//   - *sync_primitive.Semaphore: the slot's previous semaphore, now unsignaled and free for reuse
func (s *Slot) SwapImageAcquired(spare *sync_primitive.Semaphore) *sync_primitive.Semaphore {
	gpu.Assert(s.state == StateIdle, "frame %d semaphore swapped while %s", s.index, s.state)
	old := s.imageAcquired
	s.imageAcquired = spare
	return old
}

// RecreateImageAcquired replaces the image-acquired semaphore, whose signal state is unknown after the surface was
// invalidated. The work-complete semaphore is kept because queued presentation may still reference it.
//
// Returns:
//   - error: a wrapped gpu.ErrDeviceLost or gpu.ErrOutOfMemory if the semaphore could not be created
func (s *Slot) RecreateImageAcquired() error {
	gpu.Assert(s.state != StateRecording, "frame %d semaphore recreated while recording", s.index)
	sem, err := sync_primitive.NewSemaphore(s.device)
	if err != nil {
		return fmt.Errorf("frame %d: %w", s.index, err)
	}
	s.imageAcquired.Release()
	s.imageAcquired = sem
	return nil
}

// BindFramebuffer points the slot at the framebuffer of its image. Draws render in the framebuffer's native
// orientation; any surface rotation is left to presentation.
//
// Parameters:
//   - fb: the framebuffer for the slot's image
func (s *Slot) BindFramebuffer(fb gpu.Framebuffer) {
	s.framebuffer = fb
}

// Begin runs the update pass for snap and opens the recorder and render pass.
//
// Parameters:
//   - snap: the scene snapshot for this frame
//
// Returns:
//   - error: an error if an upload, the fence reset or the recorder failed
func (s *Slot) Begin(snap *scene.Snapshot) error {
	gpu.Assert(s.state == StateIdle, "frame %d begin while %s", s.index, s.state)
	gpu.Assert(s.framebuffer != nil, "frame %d begin without a framebuffer", s.index)

	if err := s.fence.Wait(); err != nil {
		return fmt.Errorf("frame %d: %w", s.index, err)
	}
	if err := s.fence.Reset(); err != nil {
		return fmt.Errorf("frame %d: %w", s.index, err)
	}

	if snap.Generation != s.generation {
		if s.generation != 0 {
			s.ResetCaches()
		}
		s.generation = snap.Generation
	}
	if err := s.update(snap); err != nil {
		return fmt.Errorf("frame %d: update pass failed: %w", s.index, err)
	}

	if err := s.recorder.Begin(); err != nil {
		return fmt.Errorf("frame %d: %w", s.index, err)
	}
	if err := s.recorder.BeginPass(s.framebuffer, s.clear); err != nil {
		return fmt.Errorf("frame %d: %w", s.index, err)
	}
	s.state = StateRecording
	s.ended = false
	return nil
}

// End closes the render pass and the recorder.
//
// Returns:
//   - error: an error if the recorder rejected the end
func (s *Slot) End() error {
	gpu.Assert(s.state == StateRecording && !s.ended, "frame %d end while %s", s.index, s.state)
	s.recorder.EndPass()
	if err := s.recorder.End(); err != nil {
		return fmt.Errorf("frame %d: %w", s.index, err)
	}
	s.ended = true
	return nil
}

// Present submits the recording and queues imageIndex for display. The submission waits on the image-acquired
// semaphore, signals the work-complete semaphore and the slot's fence; presentation waits on work-complete.
//
// Parameters:
//   - queue: the device queue
//   - target: the surface that displays the image
//   - imageIndex: the acquired image index
//
// Returns:
//   - error: the presentation error, including gpu.ErrSurfaceOutOfDate and gpu.ErrSurfaceSuboptimal, or a submission error
func (s *Slot) Present(queue gpu.Queue, target PresentTarget, imageIndex int) error {
	gpu.Assert(s.state == StateRecording && s.ended, "frame %d present while %s", s.index, s.state)

	err := queue.Submit(gpu.SubmitInfo{
		Recorder: s.recorder,
		Wait:     s.imageAcquired.Handle(),
		Signal:   s.workComplete.Handle(),
		Fence:    s.fence.Handle(),
	})
	if err != nil {
		// Nothing reached the queue, so the reset fence is still usable.
		s.state = StateIdle
		return fmt.Errorf("frame %d: submit failed: %w", s.index, err)
	}
	s.fence.MarkSubmitted()
	s.state = StateSubmitted
	s.stats.Frames++

	if err := target.Present(queue, imageIndex, s.workComplete.Handle()); err != nil {
		return fmt.Errorf("frame %d: %w", s.index, err)
	}
	return nil
}

// ResetCaches drops every cached resource. The slot's previous submission must have completed.
func (s *Slot) ResetCaches() {
	gpu.Assert(s.state != StateRecording, "frame %d caches reset while recording", s.index)
	s.caches.Clear()
	s.uploaded = make(map[resource_cache.ResourceKey]stamp)
	s.logger.Debug("frame caches reset", slog.Int("frame", s.index))
}

// Release destroys everything the slot owns. The device must be idle.
func (s *Slot) Release() {
	if s.caches != nil {
		s.caches.Release()
	}
	if s.fence != nil {
		s.fence.Release()
	}
	s.imageAcquired.Release()
	s.workComplete.Release()
	if s.recorder != nil {
		s.recorder.Release()
	}
}

// keyFor builds the cache key for one bind group role of an entity.
func keyFor(e *scene.Entity, camera *scene.CameraView, g pipeline.Group) resource_cache.ResourceKey {
	pid := e.Material.Pipeline
	switch g {
	case pipeline.GroupCamera:
		if camera.Present {
			return resource_cache.NewResourceKey(pid, int(g), resource_cache.WithCamera(camera.Handle))
		}
		return resource_cache.NewResourceKey(pid, int(g))
	case pipeline.GroupModel:
		return resource_cache.NewResourceKey(pid, int(g), resource_cache.WithNode(e.Node))
	case pipeline.GroupMaterial:
		if e.Material.Present {
			return resource_cache.NewResourceKey(pid, int(g), resource_cache.WithMaterial(e.Material.Handle))
		}
		return resource_cache.NewResourceKey(pid, int(g))
	default:
		panic(fmt.Sprintf("frame: unknown bind group role %s", g))
	}
}

const (
	// geometry streams live after the bind group roles in the key's group component
	groupVertices = int(pipeline.GroupMaterial) + 1 + iota
	groupIndices
)

func vertexKey(e *scene.Entity) resource_cache.ResourceKey {
	return resource_cache.NewResourceKey(e.Material.Pipeline, groupVertices, resource_cache.WithModel(e.Model))
}

func indexKey(e *scene.Entity) resource_cache.ResourceKey {
	return resource_cache.NewResourceKey(e.Material.Pipeline, groupIndices, resource_cache.WithModel(e.Model))
}
