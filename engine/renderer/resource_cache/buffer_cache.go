package resource_cache

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

type marshaler interface {
	Marshal() []byte
}

// BufferCache maps resource keys to lazily allocated GPU buffers.
//
// Callers must request each key exactly once per update pass before uploading into it; the cache does not guard
// against churn from callers that allocate speculatively.
type BufferCache struct {
	device  gpu.Device
	label   string
	entries map[ResourceKey]gpu.Buffer

	allocations int
}

// NewBufferCache creates an empty buffer cache on device.
//
// Parameters:
//   - device: the device buffers are allocated from
//   - label: prefix for buffer debug labels
//
// Returns:
//   - *BufferCache: the cache
func NewBufferCache(device gpu.Device, label string) *BufferCache {
	return &BufferCache{
		device:  device,
		label:   label,
		entries: make(map[ResourceKey]gpu.Buffer),
	}
}

// GetOrCreate returns the uniform buffer for key, allocating one sized for T on the first request.
// On a hit the existing buffer is returned as-is; its contents are whatever was last uploaded.
//
// Parameters:
//   - c: the cache
//   - key: the resource key
//
// Returns:
//   - gpu.Buffer: the buffer for key, the same identity on every call
//   - error: a wrapped gpu.ErrOutOfMemory or gpu.ErrDeviceLost if the allocation failed
func GetOrCreate[T any](c *BufferCache, key ResourceKey) (gpu.Buffer, error) {
	size := common.SizeOf[T]()
	if buf, ok := c.entries[key]; ok {
		gpu.Assert(buf.Size() >= size, "buffer %s holds %d bytes, requested as %d", key, buf.Size(), size)
		return buf, nil
	}
	return c.allocate(key, size, gpu.BufferUsageUniform|gpu.BufferUsageCopyDst)
}

// Upload writes value into the uniform buffer for key, allocating it first if needed. Values whose pointer type has
// a Marshal() []byte method are serialized with it, anything else is copied as raw memory.
//
// Parameters:
//   - c: the cache
//   - key: the resource key
//   - value: the data to upload
//
// Returns:
//   - gpu.Buffer: the buffer the data was written to
//   - error: an error if allocation or the write failed
func Upload[T any](c *BufferCache, key ResourceKey, value T) (gpu.Buffer, error) {
	buf, err := GetOrCreate[T](c, key)
	if err != nil {
		return nil, err
	}
	var data []byte
	if m, ok := any(&value).(marshaler); ok {
		data = m.Marshal()
	} else {
		data = common.StructToBytes(&value)
	}
	if err := c.device.WriteBuffer(buf, 0, data); err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return buf, nil
}

// UploadSlice writes values into the buffer for key. When the byte length differs from the cached buffer the old
// buffer is released and a new one takes its place under the same key.
//
// Parameters:
//   - c: the cache
//   - key: the resource key
//   - usage: how the buffer will be bound, e.g. vertex or index
//   - values: the data to upload, must not be empty
//
// Returns:
//   - gpu.Buffer: the buffer the data was written to
//   - error: an error if allocation or the write failed
func UploadSlice[T any](c *BufferCache, key ResourceKey, usage gpu.BufferUsage, values []T) (gpu.Buffer, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("failed to upload %s: empty slice", key)
	}
	data := common.SliceToBytes(values)
	size := uint64(len(data))

	buf, ok := c.entries[key]
	if ok && buf.Size() != size {
		buf.Release()
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		var err error
		if buf, err = c.allocate(key, size, usage|gpu.BufferUsageCopyDst); err != nil {
			return nil, err
		}
	}
	if err := c.device.WriteBuffer(buf, 0, data); err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return buf, nil
}

func (c *BufferCache) allocate(key ResourceKey, size uint64, usage gpu.BufferUsage) (gpu.Buffer, error) {
	buf, err := c.device.CreateBuffer(c.label+" "+key.String(), size, usage)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate buffer for %s: %w", key, err)
	}
	c.entries[key] = buf
	c.allocations++
	return buf, nil
}

// Get returns the buffer for key if it exists.
func (c *BufferCache) Get(key ResourceKey) (gpu.Buffer, bool) {
	buf, ok := c.entries[key]
	return buf, ok
}

// MustGet returns the buffer for key and panics if the key was never created. A miss here means the update pass
// skipped an entity the draw pass still references.
func (c *BufferCache) MustGet(key ResourceKey) gpu.Buffer {
	buf, ok := c.entries[key]
	gpu.Assert(ok, "no buffer cached for %s", key)
	return buf
}

// Len returns the number of cached buffers.
func (c *BufferCache) Len() int {
	return len(c.entries)
}

// Allocations returns how many buffers the cache has allocated over its lifetime, reallocations included.
func (c *BufferCache) Allocations() int {
	return c.allocations
}

// Clear releases every buffer and empties the cache.
func (c *BufferCache) Clear() {
	for _, buf := range c.entries {
		buf.Release()
	}
	c.entries = make(map[ResourceKey]gpu.Buffer)
}

// Release releases every buffer. The cache must not be used afterwards.
func (c *BufferCache) Release() {
	c.Clear()
}
