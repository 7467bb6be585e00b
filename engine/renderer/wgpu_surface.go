package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuSurface exposes the window surface as a chain of virtual images. WebGPU hands out one texture at a time, so
// the image indices rotate in acquisition order and each acquisition attaches the current texture to its image.
type wgpuSurface struct {
	b       *wgpuRendererBackendImpl
	raw     *wgpu.Surface
	config  gpu.SurfaceConfig
	images  []*wgpuImage
	next    int
	current *wgpuImage
}

func (s *wgpuSurface) Capabilities() (gpu.SurfaceCapabilities, error) {
	if s.b.lost.Load() {
		return gpu.SurfaceCapabilities{}, gpu.ErrDeviceLost
	}
	raw := s.raw.GetCapabilities(s.b.adapter)
	caps := gpu.SurfaceCapabilities{
		MinImageCount:    2,
		MaxImageCount:    3,
		MinExtent:        common.Extent2D{Width: 1, Height: 1},
		MaxExtent:        common.Extent2D{Width: wgpu.DefaultLimits().MaxTextureDimension2D, Height: wgpu.DefaultLimits().MaxTextureDimension2D},
		CurrentExtent:    common.UndefinedExtent,
		CurrentTransform: common.SurfaceTransformIdentity,
	}
	for _, f := range raw.Formats {
		if format := fromWGPUFormat(f); format != gpu.FormatUndefined {
			caps.Formats = append(caps.Formats, format)
		}
	}
	return caps, nil
}

func (s *wgpuSurface) Configure(cfg gpu.SurfaceConfig) ([]gpu.Image, error) {
	if s.b.lost.Load() {
		return nil, gpu.ErrDeviceLost
	}
	// A frame abandoned between acquire and present leaves its texture with us; it belongs to the old
	// configuration and is dropped with it.
	if s.current != nil {
		s.current.releaseTexture()
		s.current = nil
	}
	raw := s.raw.GetCapabilities(s.b.adapter)
	if len(raw.AlphaModes) == 0 {
		return nil, errors.New("surface reports no alpha modes")
	}
	s.raw.Configure(s.b.adapter, s.b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      toWGPUFormat(cfg.Format),
		Width:       cfg.Extent.Width,
		Height:      cfg.Extent.Height,
		PresentMode: toWGPUPresentMode(cfg.PresentMode),
		AlphaMode:   raw.AlphaModes[0],
	})

	s.config = cfg
	s.images = make([]*wgpuImage, cfg.ImageCount)
	out := make([]gpu.Image, cfg.ImageCount)
	for i := range s.images {
		s.images[i] = &wgpuImage{index: i, extent: cfg.Extent, format: cfg.Format}
		out[i] = s.images[i]
	}
	s.next = 0
	return out, nil
}

// AcquireNextImage fetches the surface's current texture. Any failure to get one means the configuration no
// longer matches the window, so it is reported as out of date.
func (s *wgpuSurface) AcquireNextImage(signal gpu.SemaphoreHandle) (int, error) {
	if s.b.lost.Load() {
		return 0, gpu.ErrDeviceLost
	}
	if len(s.images) == 0 {
		return 0, errors.New("acquire before surface configuration")
	}
	if s.current != nil {
		return 0, fmt.Errorf("image %d acquired twice without a present", s.current.index)
	}
	sem, err := asWGPUSemaphore(signal)
	if err != nil {
		return 0, err
	}

	tex, err := s.raw.GetCurrentTexture()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", gpu.ErrSurfaceOutOfDate, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return 0, fmt.Errorf("failed to create surface texture view: %w", err)
	}

	img := s.images[s.next]
	img.texture = tex
	img.view = view
	s.current = img
	s.next = (s.next + 1) % len(s.images)
	if sem != nil {
		sem.signaled = true
	}
	return img.index, nil
}

func (s *wgpuSurface) present(imageIndex int) error {
	if s.current == nil || s.current.index != imageIndex {
		return fmt.Errorf("present of image %d which is not acquired", imageIndex)
	}
	s.raw.Present()
	s.current.releaseTexture()
	s.current = nil
	return nil
}

// Release drops any texture still held from an acquisition. The raw surface lives as long as the device.
func (s *wgpuSurface) Release() {
	if s.current != nil {
		s.current.releaseTexture()
		s.current = nil
	}
	s.images = nil
}

type wgpuQueue struct {
	b *wgpuRendererBackendImpl
}

func (q *wgpuQueue) Submit(info gpu.SubmitInfo) error {
	if q.b.lost.Load() {
		return gpu.ErrDeviceLost
	}
	rec, ok := info.Recorder.(*wgpuRecorder)
	if !ok {
		return errors.New("submit: recorder was not created by this device")
	}
	if rec.commands == nil {
		return fmt.Errorf("submit: recorder %q has nothing to submit", rec.label)
	}

	var f *wgpuFence
	if info.Fence != nil {
		if f, ok = info.Fence.(*wgpuFence); !ok {
			return errors.New("submit: fence was not created by this device")
		}
		if f.submitted.Load() || f.signaled.Load() {
			return errors.New("submit: fence must be reset before reuse")
		}
	}
	wait, err := asWGPUSemaphore(info.Wait)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	signal, err := asWGPUSemaphore(info.Signal)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if wait != nil {
		if !wait.signaled {
			return errors.New("submit: wait semaphore has no pending signal")
		}
		wait.signaled = false
	}

	index := q.b.queue.Submit(rec.commands)
	rec.commands.Release()
	rec.commands = nil

	if signal != nil {
		signal.signaled = true
	}
	if f != nil {
		f.track(index)
	}
	return nil
}

func (q *wgpuQueue) Present(imageIndex int, wait gpu.SemaphoreHandle) error {
	if q.b.lost.Load() {
		return gpu.ErrDeviceLost
	}
	sem, err := asWGPUSemaphore(wait)
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	if sem != nil {
		sem.signaled = false
	}
	return q.b.surface.present(imageIndex)
}
