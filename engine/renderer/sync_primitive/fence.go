package sync_primitive

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

// Fence is a CPU-observable completion signal for one queue submission at a time.
//
// The canWait flag tracks whether a submission has been made that has not been waited on yet. It is a fast path
// that avoids touching the device when there is nothing to wait for, and it is kept in lock-step with the device state:
// whenever canWait is false the fence's mirrored status equals what the device reports (see Consistent).
type Fence interface {
	// Wait blocks until the device signals the fence, with no timeout, then clears the can-wait flag.
	// It is a no-op when nothing has been submitted since the last wait.
	//
	// Returns:
	//   - error: ErrDeviceLost if the device was lost; the can-wait flag stays set in that case
	Wait() error

	// Reset clears the can-wait flag and returns the fence to Unsignaled so it can guard a new submission.
	//
	// Returns:
	//   - error: an error if the device rejects the reset
	Reset() error

	// MarkSubmitted records that the fence was handed to a queue submission.
	// Panics if the fence was not reset first or is already guarding a submission.
	MarkSubmitted()

	// CanWait reports whether a submission is outstanding that has not been waited on.
	//
	// Returns:
	//   - bool: true if Wait would talk to the device
	CanWait() bool

	// Status queries the true device-side state of the fence.
	//
	// Returns:
	//   - gpu.FenceStatus: the device-reported status
	//   - error: ErrDeviceLost if the device was lost
	Status() (gpu.FenceStatus, error)

	// Consistent checks that the can-wait flag agrees with the device. When no wait is possible the device must
	// report exactly the state the fence last observed.
	//
	// Returns:
	//   - error: a description of the divergence, or nil
	Consistent() error

	// Handle returns the device handle for queue submissions.
	//
	// Returns:
	//   - gpu.FenceHandle: the underlying device fence
	Handle() gpu.FenceHandle

	// Release destroys the device fence.
	Release()
}

type fence struct {
	handle  gpu.FenceHandle
	canWait bool
	// observed mirrors the device status as of the last Wait, Reset or creation.
	observed gpu.FenceStatus
	// waiting guards the one-pending-wait-per-fence rule.
	waiting atomic.Bool
}

var _ Fence = &fence{}

// NewFence creates a fence on the device.
//
// Parameters:
//   - device: the owning device
//   - signaled: create the fence pre-signaled so its first use requires no wait
//
// Returns:
//   - Fence: the new fence
//   - error: ErrOutOfMemory or ErrDeviceLost if creation failed
func NewFence(device gpu.Device, signaled bool) (Fence, error) {
	h, err := device.CreateFence(signaled)
	if err != nil {
		return nil, fmt.Errorf("failed to create fence: %w", err)
	}
	f := &fence{handle: h, observed: gpu.FenceUnsignaled}
	if signaled {
		f.observed = gpu.FenceSignaled
	}
	return f, nil
}

func (f *fence) Wait() error {
	if !f.canWait {
		return nil
	}
	if !f.waiting.CompareAndSwap(false, true) {
		panic("fence: concurrent wait on the same fence")
	}
	defer f.waiting.Store(false)

	if err := f.handle.Wait(); err != nil {
		return fmt.Errorf("failed to wait for fence: %w", err)
	}
	f.canWait = false
	f.observed = gpu.FenceSignaled
	return nil
}

func (f *fence) Reset() error {
	gpu.Assert(!f.waiting.Load(), "fence reset during a wait")
	if err := f.handle.Reset(); err != nil {
		return fmt.Errorf("failed to reset fence: %w", err)
	}
	f.canWait = false
	f.observed = gpu.FenceUnsignaled
	return nil
}

func (f *fence) MarkSubmitted() {
	gpu.Assert(!f.canWait, "fence submitted twice without a wait")
	gpu.Assert(f.observed == gpu.FenceUnsignaled, "fence submitted without a reset")
	f.canWait = true
}

func (f *fence) CanWait() bool {
	return f.canWait
}

func (f *fence) Status() (gpu.FenceStatus, error) {
	return f.handle.Status()
}

func (f *fence) Consistent() error {
	if f.canWait {
		return nil
	}
	status, err := f.handle.Status()
	if err != nil {
		return err
	}
	if status != f.observed {
		return fmt.Errorf("fence flag diverged: can-wait is false, fence observed %s, device reports %s", f.observed, status)
	}
	return nil
}

func (f *fence) Handle() gpu.FenceHandle {
	return f.handle
}

func (f *fence) Release() {
	f.handle.Release()
}
