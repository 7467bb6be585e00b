package resource_cache

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

// DescriptorCache maps resource keys to descriptor sets wrapped in bind group providers.
type DescriptorCache struct {
	device  gpu.Device
	label   string
	entries map[ResourceKey]bind_group_provider.BindGroupProvider

	allocations int
}

// NewDescriptorCache creates an empty descriptor cache on device.
//
// Parameters:
//   - device: the device descriptor sets are allocated from
//   - label: prefix for descriptor set debug labels
//
// Returns:
//   - *DescriptorCache: the cache
func NewDescriptorCache(device gpu.Device, label string) *DescriptorCache {
	return &DescriptorCache{
		device:  device,
		label:   label,
		entries: make(map[ResourceKey]bind_group_provider.BindGroupProvider),
	}
}

// GetOrCreateDescriptor returns the provider for key, allocating a descriptor set with layout on the first request.
// The created flag tells the caller that the set is empty and its bindings must be written now; a provider returned
// with created false was populated on an earlier frame and is reused as-is.
//
// Parameters:
//   - key: the resource key
//   - layout: the layout used when the set is allocated
//
// Returns:
//   - bind_group_provider.BindGroupProvider: the provider for key
//   - bool: true if the provider was allocated by this call
//   - error: a wrapped gpu.ErrOutOfMemory or gpu.ErrDeviceLost if the allocation failed
func (c *DescriptorCache) GetOrCreateDescriptor(key ResourceKey, layout gpu.LayoutSpec) (bind_group_provider.BindGroupProvider, bool, error) {
	if p, ok := c.entries[key]; ok {
		return p, false, nil
	}
	label := c.label + " " + key.String()
	set, err := c.device.CreateDescriptorSet(label, layout)
	if err != nil {
		return nil, false, fmt.Errorf("failed to allocate descriptor set for %s: %w", key, err)
	}
	p := bind_group_provider.NewBindGroupProvider(set, bind_group_provider.WithLabel(label))
	c.entries[key] = p
	c.allocations++
	return p, true, nil
}

// Get returns the provider for key if it exists.
func (c *DescriptorCache) Get(key ResourceKey) (bind_group_provider.BindGroupProvider, bool) {
	p, ok := c.entries[key]
	return p, ok
}

func (c *DescriptorCache) Len() int {
	return len(c.entries)
}

func (c *DescriptorCache) Allocations() int {
	return c.allocations
}

// Clear releases every descriptor set and empties the cache.
func (c *DescriptorCache) Clear() {
	for _, p := range c.entries {
		p.Release()
	}
	c.entries = make(map[ResourceKey]bind_group_provider.BindGroupProvider)
}

func (c *DescriptorCache) Release() {
	c.Clear()
}
