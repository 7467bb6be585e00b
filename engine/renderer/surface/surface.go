// Package surface owns the chain of presentable images and everything sized to them.
package surface

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

// Manager negotiates the surface configuration once and rebuilds the image chain, the depth attachments and the
// framebuffers whenever the surface is invalidated. The image count and color format stay fixed for its lifetime.
type Manager struct {
	device  gpu.Device
	surface gpu.Surface
	logger  *slog.Logger

	desiredImages int
	presentMode   gpu.PresentMode
	format        gpu.Format
	depthFormat   gpu.Format

	imageCount int
	extent     common.Extent2D
	transform  common.SurfaceTransform

	images       []gpu.Image
	depth        []gpu.Attachment
	framebuffers []gpu.Framebuffer

	recreations int
}

// NegotiateImageCount picks the number of presentable images: at least the surface minimum and the desired count,
// capped by the surface maximum when the surface reports one.
//
// Parameters:
//   - caps: the surface capabilities
//   - desired: the caller's preferred image count
//
// Returns:
//   - int: the image count to configure
func NegotiateImageCount(caps gpu.SurfaceCapabilities, desired int) int {
	n := max(caps.MinImageCount, desired)
	if caps.MaxImageCount > 0 && n > caps.MaxImageCount {
		n = caps.MaxImageCount
	}
	return n
}

// ClampExtent resolves the extent the image chain is built with. A surface that reports a current extent dictates
// it. Otherwise the requested window size is swapped for 90 and 270 degree transforms, so that images are sized in
// the surface's native orientation, and then clamped to the surface limits.
//
// Parameters:
//   - requested: the window size in display orientation
//   - caps: the surface capabilities
//
// Returns:
//   - common.Extent2D: the extent to configure
func ClampExtent(requested common.Extent2D, caps gpu.SurfaceCapabilities) common.Extent2D {
	if caps.CurrentExtent != common.UndefinedExtent {
		return caps.CurrentExtent
	}
	e := requested
	if caps.CurrentTransform.Rotated() {
		e = e.Swapped()
	}
	return common.Extent2D{
		Width:  common.Clamp(e.Width, caps.MinExtent.Width, caps.MaxExtent.Width),
		Height: common.Clamp(e.Height, caps.MinExtent.Height, caps.MaxExtent.Height),
	}
}

// NewManager negotiates the surface configuration and builds the first image chain.
//
// Parameters:
//   - device: the owning device
//   - requested: the initial window size
//   - options: functional options for the manager
//
// Returns:
//   - *Manager: the manager
//   - error: an error if the surface could not be configured
func NewManager(device gpu.Device, requested common.Extent2D, options ...ManagerBuilderOption) (*Manager, error) {
	m := &Manager{
		device:        device,
		surface:       device.Surface(),
		logger:        slog.Default(),
		desiredImages: 3,
		presentMode:   gpu.PresentModeFifo,
		format:        gpu.FormatBGRA8UnormSrgb,
		depthFormat:   gpu.FormatDepth24Plus,
	}
	for _, opt := range options {
		opt(m)
	}

	caps, err := m.surface.Capabilities()
	if err != nil {
		return nil, fmt.Errorf("failed to query surface capabilities: %w", err)
	}
	if len(caps.Formats) == 0 {
		return nil, fmt.Errorf("surface reports no color formats")
	}
	if !slices.Contains(caps.Formats, m.format) {
		m.format = caps.Formats[0]
	}
	m.imageCount = NegotiateImageCount(caps, m.desiredImages)

	if err := m.build(requested); err != nil {
		return nil, err
	}
	m.logger.Info("surface configured",
		slog.Int("images", m.imageCount),
		slog.String("format", m.format.String()),
		slog.String("extent", m.extent.String()),
		slog.String("transform", m.transform.String()),
	)
	return m, nil
}

// Recreate rebuilds the image chain for a new requested size. It first waits for the device to go idle, then
// rebuilds the images and depth attachments with the clamped extent, then the framebuffers. Frame slot semaphores
// are the caller's responsibility.
//
// Parameters:
//   - requested: the new window size
//
// Returns:
//   - error: an error if the device wait or the reconfiguration failed
func (m *Manager) Recreate(requested common.Extent2D) error {
	if err := m.device.WaitIdle(); err != nil {
		return fmt.Errorf("failed to wait for device idle before recreation: %w", err)
	}
	if err := m.build(requested); err != nil {
		return err
	}
	m.recreations++
	m.logger.Info("surface recreated",
		slog.String("requested", requested.String()),
		slog.String("extent", m.extent.String()),
		slog.String("transform", m.transform.String()),
	)
	return nil
}

func (m *Manager) build(requested common.Extent2D) error {
	caps, err := m.surface.Capabilities()
	if err != nil {
		return fmt.Errorf("failed to query surface capabilities: %w", err)
	}
	extent := ClampExtent(requested, caps)

	images, err := m.surface.Configure(gpu.SurfaceConfig{
		Extent:      extent,
		ImageCount:  m.imageCount,
		Format:      m.format,
		PresentMode: m.presentMode,
		Transform:   caps.CurrentTransform,
	})
	if err != nil {
		return fmt.Errorf("failed to configure surface at %s: %w", extent, err)
	}
	gpu.Assert(len(images) == m.imageCount, "surface returned %d images, configured %d", len(images), m.imageCount)

	m.releaseTargets()
	m.images = images
	m.extent = extent
	m.transform = caps.CurrentTransform

	m.depth = make([]gpu.Attachment, len(images))
	m.framebuffers = make([]gpu.Framebuffer, len(images))
	for i := range images {
		if m.depth[i], err = m.device.CreateAttachment(fmt.Sprintf("Depth %d", i), extent, m.depthFormat); err != nil {
			return fmt.Errorf("failed to create depth attachment %d: %w", i, err)
		}
	}
	for i, img := range images {
		if m.framebuffers[i], err = m.device.CreateFramebuffer(img, []gpu.Attachment{m.depth[i]}); err != nil {
			return fmt.Errorf("failed to create framebuffer %d: %w", i, err)
		}
	}
	return nil
}

func (m *Manager) releaseTargets() {
	for _, fb := range m.framebuffers {
		if fb != nil {
			fb.Release()
		}
	}
	for _, a := range m.depth {
		if a != nil {
			a.Release()
		}
	}
	m.framebuffers = nil
	m.depth = nil
}

// AcquireNextImage returns the index of the next image to render into.
//
// Parameters:
//   - signal: semaphore signaled when the image is ready to be written
//
// Returns:
//   - int: the image index
//   - error: gpu.ErrSurfaceOutOfDate or gpu.ErrSurfaceSuboptimal when the surface must be recreated, or a fatal error
func (m *Manager) AcquireNextImage(signal gpu.SemaphoreHandle) (int, error) {
	idx, err := m.surface.AcquireNextImage(signal)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire image: %w", err)
	}
	gpu.Assert(idx >= 0 && idx < len(m.images), "surface acquired image %d of %d", idx, len(m.images))
	return idx, nil
}

// Present queues imageIndex for display once wait is signaled.
//
// Parameters:
//   - queue: the presentation queue
//   - imageIndex: the acquired image index
//   - wait: the semaphore signaled by the rendering submission
//
// Returns:
//   - error: gpu.ErrSurfaceOutOfDate or gpu.ErrSurfaceSuboptimal when the surface must be recreated, or a fatal error
func (m *Manager) Present(queue gpu.Queue, imageIndex int, wait gpu.SemaphoreHandle) error {
	if err := queue.Present(imageIndex, wait); err != nil {
		return fmt.Errorf("failed to present image %d: %w", imageIndex, err)
	}
	return nil
}

// ImageCount returns the negotiated number of presentable images.
func (m *Manager) ImageCount() int {
	return m.imageCount
}

// Extent returns the extent the image chain was last built with, in native orientation.
func (m *Manager) Extent() common.Extent2D {
	return m.extent
}

func (m *Manager) Format() gpu.Format {
	return m.format
}

func (m *Manager) DepthFormat() gpu.Format {
	return m.depthFormat
}

// PreTransform returns the transform to apply when composing the final image.
func (m *Manager) PreTransform() common.SurfaceTransform {
	return m.transform
}

// Framebuffer returns the framebuffer for image i.
func (m *Manager) Framebuffer(i int) gpu.Framebuffer {
	return m.framebuffers[i]
}

// Images returns the current presentable images.
func (m *Manager) Images() []gpu.Image {
	return append([]gpu.Image(nil), m.images...)
}

// Recreations returns the number of completed recreations.
func (m *Manager) Recreations() int {
	return m.recreations
}

// Release destroys the framebuffers, the attachments and the image chain. The device must be idle.
func (m *Manager) Release() {
	m.releaseTargets()
	m.images = nil
	m.surface.Release()
}
