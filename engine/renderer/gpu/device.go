// Package gpu declares the device root every renderer component borrows from.
//
// A Device is created once, passed by reference to the presenter, frame slots, caches and surface manager, and released last,
// after a full WaitIdle. Nothing below the device holds ownership of it.
package gpu

import "github.com/Carmen-Shannon/oxy-pacer/common"

// Device is the single ownership root for every GPU object the renderer creates.
type Device interface {
	// CreateFence allocates a CPU-waitable completion signal.
	//
	// Parameters:
	//   - signaled: create the fence already in the signaled state
	//
	// Returns:
	//   - FenceHandle: the new fence
	//   - error: ErrOutOfMemory or ErrDeviceLost on failure
	CreateFence(signaled bool) (FenceHandle, error)

	// CreateSemaphore allocates an unsignaled GPU ordering token.
	//
	// Returns:
	//   - SemaphoreHandle: the new semaphore
	//   - error: ErrOutOfMemory or ErrDeviceLost on failure
	CreateSemaphore() (SemaphoreHandle, error)

	// CreateBuffer allocates a GPU buffer.
	//
	// Parameters:
	//   - label: debug label
	//   - size: size in bytes
	//   - usage: how the buffer will be bound
	//
	// Returns:
	//   - Buffer: the new buffer
	//   - error: ErrOutOfMemory or ErrDeviceLost on failure
	CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error)

	// WriteBuffer uploads data into buf at offset. The write is ordered before any later queue submission.
	//
	// Parameters:
	//   - buf: destination buffer
	//   - offset: byte offset into buf
	//   - data: bytes to copy
	//
	// Returns:
	//   - error: an error if the write does not fit or the device is lost
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// CreateDescriptorSet allocates an empty descriptor set with the given layout.
	//
	// Parameters:
	//   - label: debug label
	//   - layout: binding layout the set must satisfy
	//
	// Returns:
	//   - DescriptorSet: the new, unwritten descriptor set
	//   - error: ErrOutOfMemory or ErrDeviceLost on failure
	CreateDescriptorSet(label string, layout LayoutSpec) (DescriptorSet, error)

	// CreateRecorder allocates a command-recording target.
	//
	// Parameters:
	//   - label: debug label
	//
	// Returns:
	//   - Recorder: the new recorder
	//   - error: ErrOutOfMemory or ErrDeviceLost on failure
	CreateRecorder(label string) (Recorder, error)

	// CreateAttachment allocates a size-dependent render attachment such as a depth buffer.
	//
	// Parameters:
	//   - label: debug label
	//   - extent: size in pixels
	//   - format: pixel format
	//
	// Returns:
	//   - Attachment: the new attachment
	//   - error: ErrOutOfMemory or ErrDeviceLost on failure
	CreateAttachment(label string, extent common.Extent2D, format Format) (Attachment, error)

	// CreateFramebuffer binds a presentable image and its attachments into a render target.
	//
	// Parameters:
	//   - image: the presentable image used as color target
	//   - attachments: additional attachments (depth, auxiliary)
	//
	// Returns:
	//   - Framebuffer: the new framebuffer
	//   - error: an error if the attachments do not match the image extent
	CreateFramebuffer(image Image, attachments []Attachment) (Framebuffer, error)

	// CreatePipeline builds the graphics pipeline for a pipeline kind.
	//
	// Parameters:
	//   - desc: pipeline description
	//
	// Returns:
	//   - PipelineHandle: the created pipeline
	//   - error: an error if the pipeline could not be built
	CreatePipeline(desc PipelineDesc) (PipelineHandle, error)

	// Queue returns the single graphics/present queue.
	Queue() Queue

	// Surface returns the presentation surface.
	Surface() Surface

	// WaitIdle blocks until the device has no outstanding work.
	//
	// Returns:
	//   - error: ErrDeviceLost if the device was lost while waiting
	WaitIdle() error

	// Release destroys the device. Callers must WaitIdle first.
	Release()
}

// FenceHandle is the device side of a fence.
type FenceHandle interface {
	// Wait blocks with no timeout until the fence is signaled.
	//
	// Returns:
	//   - error: ErrDeviceLost if the device was lost while waiting
	Wait() error

	// Reset returns the fence to the unsignaled state.
	//
	// Returns:
	//   - error: an error if the fence is still referenced by pending work
	Reset() error

	// Status queries the true device-side state of the fence without blocking.
	//
	// Returns:
	//   - FenceStatus: signaled or unsignaled
	//   - error: ErrDeviceLost if the device was lost
	Status() (FenceStatus, error)

	// Release destroys the fence.
	Release()
}

// FenceStatus is the device-side state of a fence.
type FenceStatus int

const (
	// FenceUnsignaled means work referencing the fence has not completed, or the fence was reset.
	FenceUnsignaled FenceStatus = iota
	// FenceSignaled means all work referencing the fence has completed.
	FenceSignaled
)

func (s FenceStatus) String() string {
	if s == FenceSignaled {
		return "signaled"
	}
	return "unsignaled"
}

// SemaphoreHandle is an opaque GPU ordering token with no CPU-visible state.
type SemaphoreHandle interface {
	Release()
}

// Buffer is a GPU buffer.
type Buffer interface {
	Label() string
	Size() uint64
	Release()
}

// DescriptorSet is a bound group of buffer references a shader reads through.
type DescriptorSet interface {
	// Layout returns the layout the set was created with.
	Layout() LayoutSpec

	// Write points binding at buf. Writes are expensive and should only happen on a freshly created set.
	//
	// Parameters:
	//   - binding: binding index from the layout
	//   - buf: buffer to bind
	//
	// Returns:
	//   - error: an error if the binding is not part of the layout
	Write(binding int, buf Buffer) error

	Release()
}

// Image is one presentable image owned by the surface.
type Image interface {
	Index() int
	Extent() common.Extent2D
	Format() Format
}

// Attachment is a size-dependent render target image (depth, auxiliary).
type Attachment interface {
	Extent() common.Extent2D
	Format() Format
	Release()
}

// Framebuffer binds a presentable image and its attachments for a render pass.
type Framebuffer interface {
	Image() Image
	Extent() common.Extent2D
	Release()
}

// PipelineHandle is a compiled graphics pipeline.
type PipelineHandle interface {
	Release()
}

// Recorder is a command-recording target. Commands are only valid between Begin and End.
type Recorder interface {
	Begin() error
	BeginPass(fb Framebuffer, clear common.Color) error
	SetPipeline(p PipelineHandle)
	BindDescriptors(group int, set DescriptorSet)
	BindVertexBuffer(buf Buffer)
	BindIndexBuffer(buf Buffer)
	Draw(vertexCount, instanceCount uint32)
	DrawIndexed(indexCount, instanceCount uint32)
	EndPass()
	End() error
	Release()
}

// SubmitInfo describes one queue submission.
type SubmitInfo struct {
	// Recorder holds the finished commands.
	Recorder Recorder
	// Wait is waited on before the commands write color output.
	Wait SemaphoreHandle
	// Signal is signaled when the commands complete.
	Signal SemaphoreHandle
	// Fence is signaled when the commands complete.
	Fence FenceHandle
}

// Queue is the graphics and presentation queue.
type Queue interface {
	// Submit enqueues recorded commands.
	//
	// Parameters:
	//   - info: commands and synchronization for the submission
	//
	// Returns:
	//   - error: ErrDeviceLost or ErrOutOfMemory on failure
	Submit(info SubmitInfo) error

	// Present queues imageIndex for display once wait is signaled.
	//
	// Parameters:
	//   - imageIndex: index returned by Surface.AcquireNextImage
	//   - wait: semaphore signaled by the rendering submission
	//
	// Returns:
	//   - error: ErrSurfaceOutOfDate or ErrSurfaceSuboptimal when the surface must be recreated
	Present(imageIndex int, wait SemaphoreHandle) error
}

// Surface owns the chain of presentable images.
type Surface interface {
	// Capabilities reports the surface limits used to negotiate image count and extent.
	Capabilities() (SurfaceCapabilities, error)

	// Configure destroys the current image chain and builds a new one.
	//
	// Parameters:
	//   - cfg: negotiated configuration
	//
	// Returns:
	//   - []Image: the new presentable images, len == cfg.ImageCount
	//   - error: an error if configuration fails
	Configure(cfg SurfaceConfig) ([]Image, error)

	// AcquireNextImage returns the index of the next presentable image and arranges for signal to fire when it is ready.
	//
	// Parameters:
	//   - signal: semaphore signaled when the image can be written
	//
	// Returns:
	//   - int: image index
	//   - error: ErrSurfaceOutOfDate or ErrSurfaceSuboptimal when the surface must be recreated
	AcquireNextImage(signal SemaphoreHandle) (int, error)

	Release()
}
