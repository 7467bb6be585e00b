package renderer

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

var errFenceNeverSignaled = errors.New("fence has no pending submission and would never signal")

// wgpuFence completes when the queue reports that the submission it guards is done.
type wgpuFence struct {
	b         *wgpuRendererBackendImpl
	signaled  atomic.Bool
	submitted atomic.Bool
	index     wgpu.SubmissionIndex
}

// track arms the fence for the submission at index. The work-done callback fires from a later Poll.
func (f *wgpuFence) track(index wgpu.SubmissionIndex) {
	f.index = index
	f.submitted.Store(true)
	f.b.queue.OnSubmittedWorkDone(func(wgpu.QueueWorkDoneStatus) {
		f.signaled.Store(true)
	})
}

func (f *wgpuFence) Wait() error {
	if f.signaled.Load() {
		return nil
	}
	if !f.submitted.Load() {
		return errFenceNeverSignaled
	}
	f.b.device.Poll(true, &wgpu.WrappedSubmissionIndex{
		Queue:           f.b.queue,
		SubmissionIndex: f.index,
	})
	if f.b.lost.Load() {
		return gpu.ErrDeviceLost
	}
	f.signaled.Store(true)
	return nil
}

func (f *wgpuFence) Reset() error {
	if f.submitted.Load() && !f.signaled.Load() {
		return errors.New("fence reset while its submission is still executing")
	}
	f.submitted.Store(false)
	f.signaled.Store(false)
	return nil
}

func (f *wgpuFence) Status() (gpu.FenceStatus, error) {
	if f.b.lost.Load() {
		return gpu.FenceUnsignaled, gpu.ErrDeviceLost
	}
	if !f.signaled.Load() && f.submitted.Load() {
		f.b.device.Poll(false, nil)
	}
	if f.signaled.Load() {
		return gpu.FenceSignaled, nil
	}
	return gpu.FenceUnsignaled, nil
}

func (f *wgpuFence) Release() {}

// wgpuSemaphore is an ordering token. WebGPU serializes acquire, submit and present on its own.
type wgpuSemaphore struct {
	signaled bool
	released bool
}

func (s *wgpuSemaphore) Release() {
	s.released = true
}

func asWGPUSemaphore(h gpu.SemaphoreHandle) (*wgpuSemaphore, error) {
	if h == nil {
		return nil, nil
	}
	s, ok := h.(*wgpuSemaphore)
	if !ok {
		return nil, errors.New("semaphore was not created by this device")
	}
	if s.released {
		return nil, errors.New("semaphore used after release")
	}
	return s, nil
}

type wgpuBuffer struct {
	label string
	size  uint64
	raw   *wgpu.Buffer
}

func (b *wgpuBuffer) Label() string { return b.label }
func (b *wgpuBuffer) Size() uint64  { return b.size }

func (b *wgpuBuffer) Release() {
	if b.raw != nil {
		b.raw.Release()
		b.raw = nil
	}
}

// wgpuDescriptorSet collects binding writes and builds the immutable bind group on first use after a change.
type wgpuDescriptorSet struct {
	b       *wgpuRendererBackendImpl
	label   string
	spec    gpu.LayoutSpec
	layout  *wgpu.BindGroupLayout
	entries map[int]*wgpuBuffer
	group   *wgpu.BindGroup
}

func (s *wgpuDescriptorSet) Layout() gpu.LayoutSpec {
	return s.spec
}

func (s *wgpuDescriptorSet) Write(binding int, buf gpu.Buffer) error {
	if !s.spec.Has(binding) {
		return fmt.Errorf("descriptor set %q has no binding %d", s.label, binding)
	}
	wb, ok := buf.(*wgpuBuffer)
	if !ok {
		return errors.New("descriptor write of a buffer that was not created by this device")
	}
	s.entries[binding] = wb
	if s.group != nil {
		s.group.Release()
		s.group = nil
	}
	return nil
}

func (s *wgpuDescriptorSet) bindGroup() (*wgpu.BindGroup, error) {
	if s.group != nil {
		return s.group, nil
	}
	entries := make([]wgpu.BindGroupEntry, 0, len(s.spec.Bindings))
	for _, bs := range s.spec.Bindings {
		buf, ok := s.entries[bs.Binding]
		if !ok || buf.raw == nil {
			return nil, fmt.Errorf("descriptor set %q: binding %d was never written", s.label, bs.Binding)
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(bs.Binding),
			Buffer:  buf.raw,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}
	group, err := s.b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   s.label,
		Layout:  s.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	s.group = group
	return group, nil
}

func (s *wgpuDescriptorSet) Release() {
	if s.group != nil {
		s.group.Release()
		s.group = nil
	}
}

// wgpuImage is a virtual presentable image. The texture behind it is whatever the surface handed out for the
// current acquisition.
type wgpuImage struct {
	index   int
	extent  common.Extent2D
	format  gpu.Format
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (i *wgpuImage) Index() int              { return i.index }
func (i *wgpuImage) Extent() common.Extent2D { return i.extent }
func (i *wgpuImage) Format() gpu.Format      { return i.format }

func (i *wgpuImage) releaseTexture() {
	if i.view != nil {
		i.view.Release()
		i.view = nil
	}
	if i.texture != nil {
		i.texture.Release()
		i.texture = nil
	}
}

type wgpuAttachment struct {
	extent  common.Extent2D
	format  gpu.Format
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (a *wgpuAttachment) Extent() common.Extent2D { return a.extent }
func (a *wgpuAttachment) Format() gpu.Format      { return a.format }

func (a *wgpuAttachment) Release() {
	if a.view != nil {
		a.view.Release()
		a.view = nil
	}
	if a.texture != nil {
		a.texture.Release()
		a.texture = nil
	}
}

type wgpuFramebuffer struct {
	image *wgpuImage
	depth *wgpuAttachment
}

func (f *wgpuFramebuffer) Image() gpu.Image        { return f.image }
func (f *wgpuFramebuffer) Extent() common.Extent2D { return f.image.extent }
func (f *wgpuFramebuffer) Release()                {}

type wgpuPipeline struct {
	raw    *wgpu.RenderPipeline
	layout *wgpu.PipelineLayout
}

func (p *wgpuPipeline) Release() {
	if p.raw != nil {
		p.raw.Release()
		p.raw = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
}
