package resource_cache

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

// Set is the cache bundle owned by one frame slot.
type Set struct {
	Buffers     *BufferCache
	Descriptors *DescriptorCache
}

// NewSet creates the caches for the frame slot at index.
//
// Parameters:
//   - device: the owning device
//   - index: the frame slot index, used in debug labels
//
// Returns:
//   - *Set: the empty cache set
func NewSet(device gpu.Device, index int) *Set {
	label := fmt.Sprintf("Frame %d", index)
	return &Set{
		Buffers:     NewBufferCache(device, label),
		Descriptors: NewDescriptorCache(device, label),
	}
}

// Len returns the total number of cached resources.
func (s *Set) Len() int {
	return s.Buffers.Len() + s.Descriptors.Len()
}

// Clear drops every cached resource. Used when the scene is reset.
func (s *Set) Clear() {
	s.Descriptors.Clear()
	s.Buffers.Clear()
}

// Release releases every cached resource. The device must be idle.
func (s *Set) Release() {
	s.Descriptors.Release()
	s.Buffers.Release()
}
