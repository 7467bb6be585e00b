// Package presenter is the frame loop's single entry point into the renderer core. It rotates frame slots over
// the surface's images and owns the recovery path when the surface is invalidated.
package presenter

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/frame"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/surface"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/sync_primitive"
)

// Stats summarizes presenter activity.
type Stats struct {
	// Frames counts successful presentations.
	Frames int
	// Acquisitions counts slots handed out by NextFrame.
	Acquisitions int
	// Waits counts slot acquisitions that had an outstanding submission to wait for.
	Waits int
	// Recreations counts completed HandleResize calls.
	Recreations int
	// RecreateSignals counts ErrRecreateNeeded results from NextFrame and Present.
	RecreateSignals int
}

// Presenter hands out frame slots, submits and presents them, and recreates the surface on request.
//
// It is driven by a single goroutine. NextFrame and Present alternate; HandleResize may be called between them
// at any point, including after NextFrame returned a slot that was never presented.
type Presenter struct {
	device gpu.Device
	logger *slog.Logger

	surface *surface.Manager
	slots   []*frame.Slot
	// spare is signaled by each image acquisition and then swapped into the chosen slot.
	spare *sync_primitive.Semaphore

	// outstanding is the slot returned by NextFrame that has not been presented yet.
	outstanding      *frame.Slot
	outstandingImage int

	requested common.Extent2D

	surfaceOptions []surface.ManagerBuilderOption
	slotOptions    []frame.SlotBuilderOption

	stats    Stats
	released bool
}

// New builds the surface image chain and one frame slot per image.
//
// Parameters:
//   - device: the device root; it must outlive the presenter
//   - requested: the initial window size
//   - options: functional options for the presenter
//
// Returns:
//   - *Presenter: the presenter
//   - error: an error if the surface could not be configured or a slot could not be created
func New(device gpu.Device, requested common.Extent2D, options ...PresenterBuilderOption) (*Presenter, error) {
	p := &Presenter{
		device:    device,
		logger:    slog.Default(),
		requested: requested,
	}
	for _, opt := range options {
		opt(p)
	}

	sm, err := surface.NewManager(device, requested, append([]surface.ManagerBuilderOption{surface.WithLogger(p.logger)}, p.surfaceOptions...)...)
	if err != nil {
		return nil, err
	}
	p.surface = sm

	slotOptions := append([]frame.SlotBuilderOption{frame.WithLogger(p.logger)}, p.slotOptions...)
	for i := 0; i < sm.ImageCount(); i++ {
		slot, err := frame.NewSlot(device, i, slotOptions...)
		if err != nil {
			p.Release()
			return nil, err
		}
		slot.BindFramebuffer(sm.Framebuffer(i))
		p.slots = append(p.slots, slot)
	}
	if p.spare, err = sync_primitive.NewSemaphore(device); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

// NextFrame acquires the next presentable image and returns the slot that renders to it, once the slot's
// previous submission has completed. Blocks only when that submission is still executing.
//
// Returns:
//   - *frame.Slot: the slot, Idle and ready for Begin
//   - int: the acquired image index
//   - error: an error wrapping gpu.ErrRecreateNeeded if the surface must be recreated first, or a fatal error
func (p *Presenter) NextFrame() (*frame.Slot, int, error) {
	gpu.Assert(!p.released, "next frame after release")
	gpu.Assert(p.outstanding == nil, "next frame while frame %d has not been presented", p.outstandingImage)

	idx, err := p.surface.AcquireNextImage(p.spare.Handle())
	if err != nil {
		if gpu.IsSurfaceInvalid(err) {
			p.stats.RecreateSignals++
			return nil, 0, fmt.Errorf("%w: %w", gpu.ErrRecreateNeeded, err)
		}
		return nil, 0, err
	}

	slot := p.slots[idx]
	if slot.Fence().CanWait() {
		p.stats.Waits++
	}
	if err := slot.Acquire(); err != nil {
		return nil, 0, err
	}
	p.spare = slot.SwapImageAcquired(p.spare)

	p.outstanding = slot
	p.outstandingImage = idx
	p.stats.Acquisitions++
	return slot, idx, nil
}

// Present submits the slot returned by the last NextFrame and queues its image for display.
//
// Parameters:
//   - slot: the slot returned by NextFrame, recorded and ended
//
// Returns:
//   - error: an error wrapping gpu.ErrRecreateNeeded if the surface is out of date or suboptimal, or a fatal error
func (p *Presenter) Present(slot *frame.Slot) error {
	gpu.Assert(slot != nil && slot == p.outstanding, "present of a slot that was not handed out by next frame")
	idx := p.outstandingImage
	p.outstanding = nil

	if err := slot.Present(p.device.Queue(), p.surface, idx); err != nil {
		if gpu.IsSurfaceInvalid(err) {
			p.stats.RecreateSignals++
			return fmt.Errorf("%w: %w", gpu.ErrRecreateNeeded, err)
		}
		return err
	}
	p.stats.Frames++
	return nil
}

// HandleResize recreates the surface for a new window size: the device goes idle, the images and depth
// attachments are rebuilt at the clamped extent, every slot gets a fresh image-acquired semaphore, and the slots
// are rebound to the new framebuffers. Slot count, work-complete semaphores and caches are kept.
//
// Parameters:
//   - extent: the new window size
//
// Returns:
//   - error: an error if recreation failed; the presenter is unusable after a fatal error
func (p *Presenter) HandleResize(extent common.Extent2D) error {
	gpu.Assert(!p.released, "resize after release")
	gpu.Assert(p.outstanding == nil || p.outstanding.State() != frame.StateRecording,
		"resize while frame %d is recording", p.outstandingImage)

	p.requested = extent
	if err := p.surface.Recreate(extent); err != nil {
		return err
	}

	for i, slot := range p.slots {
		if err := slot.RecreateImageAcquired(); err != nil {
			return err
		}
		slot.BindFramebuffer(p.surface.Framebuffer(i))
	}
	spare, err := sync_primitive.NewSemaphore(p.device)
	if err != nil {
		return err
	}
	p.spare.Release()
	p.spare = spare

	p.outstanding = nil
	p.stats.Recreations++
	return nil
}

// ResetScene drops every slot's cached resources after the device goes idle.
//
// Returns:
//   - error: an error if the device wait failed
func (p *Presenter) ResetScene() error {
	gpu.Assert(p.outstanding == nil || p.outstanding.State() != frame.StateRecording, "scene reset while recording")
	if err := p.device.WaitIdle(); err != nil {
		return fmt.Errorf("failed to wait for device idle before scene reset: %w", err)
	}
	for _, slot := range p.slots {
		slot.ResetCaches()
	}
	return nil
}

// Release waits for the device to go idle and then destroys the slots and the surface. Safe to call twice.
func (p *Presenter) Release() {
	if p.released {
		return
	}
	p.released = true
	if err := p.device.WaitIdle(); err != nil {
		p.logger.Warn("device wait before presenter release failed", slog.Any("err", err))
	}
	for _, slot := range p.slots {
		slot.Release()
	}
	p.spare.Release()
	if p.surface != nil {
		p.surface.Release()
	}
}

// Slots returns the frame slots in image order.
func (p *Presenter) Slots() []*frame.Slot {
	return append([]*frame.Slot(nil), p.slots...)
}

// Extent returns the extent of the current image chain, in the surface's native orientation.
func (p *Presenter) Extent() common.Extent2D {
	return p.surface.Extent()
}

// Requested returns the window size last passed to New or HandleResize.
func (p *Presenter) Requested() common.Extent2D {
	return p.requested
}

// Surface returns the surface manager.
func (p *Presenter) Surface() *surface.Manager {
	return p.surface
}

func (p *Presenter) Stats() Stats {
	return p.stats
}
