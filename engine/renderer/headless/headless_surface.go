package headless

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

type surface struct {
	d           *Device
	config      gpu.SurfaceConfig
	images      []gpu.Image
	next        int
	failAcquire error
	// acquired is the image handed out and not yet presented, or -1.
	acquired int
}

func (s *surface) Capabilities() (gpu.SurfaceCapabilities, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if s.d.lost {
		return gpu.SurfaceCapabilities{}, gpu.ErrDeviceLost
	}
	caps := s.d.caps
	caps.Formats = append([]gpu.Format(nil), caps.Formats...)
	return caps, nil
}

// Configure rejects extents outside the reported capabilities, the same as a strict native driver would. An image
// that was acquired but never presented is dropped with the old chain.
func (s *surface) Configure(cfg gpu.SurfaceConfig) ([]gpu.Image, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if s.d.lost {
		return nil, gpu.ErrDeviceLost
	}
	caps := s.d.caps
	if cfg.ImageCount < caps.MinImageCount || (caps.MaxImageCount > 0 && cfg.ImageCount > caps.MaxImageCount) {
		return nil, fmt.Errorf("image count %d outside [%d, %d]", cfg.ImageCount, caps.MinImageCount, caps.MaxImageCount)
	}
	e := cfg.Extent
	if e.Width < caps.MinExtent.Width || e.Height < caps.MinExtent.Height ||
		e.Width > caps.MaxExtent.Width || e.Height > caps.MaxExtent.Height {
		return nil, fmt.Errorf("extent %s outside [%s, %s]", e, caps.MinExtent, caps.MaxExtent)
	}
	if len(s.d.pending) > 0 {
		return nil, errors.New("surface configured while submissions are still pending")
	}

	s.d.stats.Configures++
	s.acquired = -1
	s.config = cfg
	s.images = make([]gpu.Image, cfg.ImageCount)
	for i := range s.images {
		s.images[i] = &image{index: i, extent: cfg.Extent, format: cfg.Format}
	}
	s.next = 0
	return append([]gpu.Image(nil), s.images...), nil
}

// AcquireNextImage hands out images in strict rotation.
func (s *surface) AcquireNextImage(signal gpu.SemaphoreHandle) (int, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if s.d.lost {
		return 0, gpu.ErrDeviceLost
	}
	if err := s.failAcquire; err != nil {
		s.failAcquire = nil
		return 0, err
	}
	if len(s.images) == 0 {
		return 0, errors.New("acquire before surface configuration")
	}
	if s.acquired >= 0 {
		return 0, fmt.Errorf("image %d acquired twice without a present", s.acquired)
	}
	sem, err := asSemaphore(signal)
	if err != nil {
		return 0, err
	}
	if sem != nil {
		if sem.signaled {
			return 0, fmt.Errorf("acquire would signal semaphore %d which is already signaled", sem.id)
		}
		sem.signaled = true
	}
	idx := s.next
	s.next = (s.next + 1) % len(s.images)
	s.acquired = idx
	return idx, nil
}

func (s *surface) Release() {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.images = nil
	s.acquired = -1
}

type queue struct {
	d           *Device
	failPresent error
}

func (q *queue) Submit(info gpu.SubmitInfo) error {
	d := q.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return gpu.ErrDeviceLost
	}
	rec, ok := info.Recorder.(*Recorder)
	if !ok {
		return errors.New("submit: recorder was not created by this device")
	}
	if rec.recording {
		return fmt.Errorf("submit: recorder %q not ended", rec.label)
	}

	var f *fence
	if info.Fence != nil {
		f, ok = info.Fence.(*fence)
		if !ok {
			return errors.New("submit: fence was not created by this device")
		}
		if f.pending || f.status == gpu.FenceSignaled {
			return fmt.Errorf("submit: fence %d must be reset before reuse", f.id)
		}
	}

	wait, err := asSemaphore(info.Wait)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	signal, err := asSemaphore(info.Signal)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if wait != nil {
		if !wait.signaled {
			return fmt.Errorf("submit: wait semaphore %d has no pending signal", wait.id)
		}
		wait.signaled = false
	}
	if signal != nil {
		signal.signaled = true
	}

	d.stats.Submits++
	rec.submitted++
	if f != nil {
		if d.autoComplete {
			f.status = gpu.FenceSignaled
		} else {
			f.pending = true
			d.pending = append(d.pending, f)
		}
	}
	return nil
}

func (q *queue) Present(imageIndex int, wait gpu.SemaphoreHandle) error {
	d := q.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return gpu.ErrDeviceLost
	}
	sem, err := asSemaphore(wait)
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	if sem != nil {
		if !sem.signaled {
			return fmt.Errorf("present: wait semaphore %d has no pending signal", sem.id)
		}
		sem.signaled = false
	}
	if imageIndex < 0 || imageIndex >= len(d.surface.images) {
		return fmt.Errorf("present: image index %d out of range", imageIndex)
	}
	// The image goes back to the surface even when presentation reports the surface out of date.
	d.surface.acquired = -1
	if err := q.failPresent; err != nil {
		q.failPresent = nil
		return err
	}
	d.stats.Presents++
	d.presented = append(d.presented, imageIndex)
	return nil
}
