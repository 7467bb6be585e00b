// Package sync_primitive wraps the device's fences and semaphores with the bookkeeping the frame slots rely on.
package sync_primitive

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

// Semaphore is a GPU-only ordering token. It has no CPU-visible state and is only referenced by submit, acquire
// and present calls.
type Semaphore struct {
	handle gpu.SemaphoreHandle
}

// NewSemaphore allocates an unsignaled semaphore.
//
// Parameters:
//   - device: the owning device
//
// Returns:
//   - *Semaphore: the new semaphore
//   - error: ErrOutOfMemory or ErrDeviceLost if creation failed
func NewSemaphore(device gpu.Device) (*Semaphore, error) {
	h, err := device.CreateSemaphore()
	if err != nil {
		return nil, fmt.Errorf("failed to create semaphore: %w", err)
	}
	return &Semaphore{handle: h}, nil
}

// Handle returns the device handle.
func (s *Semaphore) Handle() gpu.SemaphoreHandle {
	if s == nil {
		return nil
	}
	return s.handle
}

// Release destroys the device semaphore.
func (s *Semaphore) Release() {
	if s != nil && s.handle != nil {
		s.handle.Release()
		s.handle = nil
	}
}
