// Package headless implements gpu.Device entirely in process memory.
//
// No commands are executed. Submissions complete when the owner calls Complete or CompleteAll (or immediately with
// auto-complete enabled), which makes fence timing deterministic. The engine uses it for offscreen runs and every
// renderer package uses it in tests.
package headless

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

// Stats is a snapshot of the device counters.
type Stats struct {
	FencesCreated      int
	SemaphoresCreated  int
	SemaphoresReleased int
	BuffersCreated     int
	DescriptorSets     int
	DescriptorWrites   int
	AttachmentsCreated int
	Submits            int
	Presents           int
	Configures         int
	WaitIdles          int
	// BlockingWaits counts fence waits that had to block on pending work.
	BlockingWaits int
	// Waiters is the number of goroutines currently blocked in a fence wait.
	Waiters int
}

// Device is the headless gpu.Device. The exported methods beyond gpu.Device drive the simulated GPU.
type Device struct {
	mu   *sync.Mutex
	cond *sync.Cond

	caps         gpu.SurfaceCapabilities
	autoComplete bool
	lost         bool

	pending []*fence
	stats   Stats

	nextID uint64

	surface *surface
	queue   *queue

	presented []int
}

var _ gpu.Device = &Device{}

// NewDevice creates a headless device with a 2..4 image surface that accepts any extent up to 4096x4096.
//
// Parameters:
//   - options: functional options to configure the device
//
// Returns:
//   - *Device: the device
func NewDevice(options ...DeviceBuilderOption) *Device {
	mu := &sync.Mutex{}
	d := &Device{
		mu:   mu,
		cond: sync.NewCond(mu),
		caps: gpu.SurfaceCapabilities{
			MinImageCount:    2,
			MaxImageCount:    4,
			MinExtent:        common.Extent2D{Width: 1, Height: 1},
			MaxExtent:        common.Extent2D{Width: 4096, Height: 4096},
			CurrentExtent:    common.UndefinedExtent,
			CurrentTransform: common.SurfaceTransformIdentity,
			Formats:          []gpu.Format{gpu.FormatBGRA8UnormSrgb, gpu.FormatRGBA8UnormSrgb},
		},
	}
	d.surface = &surface{d: d, acquired: -1}
	d.queue = &queue{d: d}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *Device) id() uint64 {
	d.nextID++
	return d.nextID
}

func (d *Device) CreateFence(signaled bool) (gpu.FenceHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return nil, gpu.ErrDeviceLost
	}
	d.stats.FencesCreated++
	f := &fence{d: d, id: d.id(), status: gpu.FenceUnsignaled}
	if signaled {
		f.status = gpu.FenceSignaled
	}
	return f, nil
}

func (d *Device) CreateSemaphore() (gpu.SemaphoreHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return nil, gpu.ErrDeviceLost
	}
	d.stats.SemaphoresCreated++
	return &semaphore{d: d, id: d.id()}, nil
}

func (d *Device) CreateBuffer(label string, size uint64, usage gpu.BufferUsage) (gpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return nil, gpu.ErrDeviceLost
	}
	if size == 0 {
		return nil, fmt.Errorf("buffer %q: zero size", label)
	}
	d.stats.BuffersCreated++
	return &Buffer{id: d.id(), label: label, usage: usage, data: make([]byte, size)}, nil
}

func (d *Device) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return gpu.ErrDeviceLost
	}
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("buffer %q was not created by this device", buf.Label())
	}
	if b.released {
		return fmt.Errorf("buffer %q: write after release", b.label)
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("buffer %q: write of %d bytes at %d overflows size %d", b.label, len(data), offset, len(b.data))
	}
	copy(b.data[offset:], data)
	b.writes++
	return nil
}

func (d *Device) CreateDescriptorSet(label string, layout gpu.LayoutSpec) (gpu.DescriptorSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return nil, gpu.ErrDeviceLost
	}
	d.stats.DescriptorSets++
	return &descriptorSet{d: d, id: d.id(), label: label, layout: layout, bound: map[int]*Buffer{}}, nil
}

func (d *Device) CreateRecorder(label string) (gpu.Recorder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return nil, gpu.ErrDeviceLost
	}
	return &Recorder{label: label}, nil
}

func (d *Device) CreateAttachment(label string, extent common.Extent2D, format gpu.Format) (gpu.Attachment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return nil, gpu.ErrDeviceLost
	}
	if extent.IsZero() {
		return nil, fmt.Errorf("attachment %q: zero extent %s", label, extent)
	}
	d.stats.AttachmentsCreated++
	return &attachment{label: label, extent: extent, format: format}, nil
}

func (d *Device) CreateFramebuffer(img gpu.Image, attachments []gpu.Attachment) (gpu.Framebuffer, error) {
	for _, a := range attachments {
		if a.Extent() != img.Extent() {
			return nil, fmt.Errorf("framebuffer for image %d: attachment extent %s does not match image extent %s", img.Index(), a.Extent(), img.Extent())
		}
	}
	return &framebuffer{image: img, attachments: attachments}, nil
}

func (d *Device) CreatePipeline(desc gpu.PipelineDesc) (gpu.PipelineHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return nil, gpu.ErrDeviceLost
	}
	return &pipelineHandle{label: desc.Label}, nil
}

func (d *Device) Queue() gpu.Queue {
	return d.queue
}

func (d *Device) Surface() gpu.Surface {
	return d.surface
}

// WaitIdle drains the simulated queue: every pending submission completes.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.WaitIdles++
	if d.lost {
		return gpu.ErrDeviceLost
	}
	d.completeLocked(len(d.pending))
	return nil
}

func (d *Device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = nil
	d.cond.Broadcast()
}

// Complete finishes the n oldest pending submissions in submission order.
//
// Parameters:
//   - n: number of submissions to complete
func (d *Device) Complete(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.completeLocked(n)
}

// CompleteAll finishes every pending submission.
func (d *Device) CompleteAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.completeLocked(len(d.pending))
}

func (d *Device) completeLocked(n int) {
	if n > len(d.pending) {
		n = len(d.pending)
	}
	for _, f := range d.pending[:n] {
		f.pending = false
		f.status = gpu.FenceSignaled
	}
	d.pending = d.pending[n:]
	d.cond.Broadcast()
}

// Pending returns the number of submissions that have not completed.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Lose marks the device lost. Blocked fence waits return gpu.ErrDeviceLost.
func (d *Device) Lose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lost = true
	d.cond.Broadcast()
}

// SetCapabilities replaces the surface capabilities, e.g. to simulate a resize or rotation.
//
// Parameters:
//   - caps: the new capabilities
func (d *Device) SetCapabilities(caps gpu.SurfaceCapabilities) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.caps = caps
}

// FailNextAcquire makes the next AcquireNextImage return err.
func (d *Device) FailNextAcquire(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.surface.failAcquire = err
}

// FailNextPresent makes the next Present return err.
func (d *Device) FailNextPresent(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue.failPresent = err
}

// Stats returns a snapshot of the device counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Presented returns the image indices presented so far, in order.
func (d *Device) Presented() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.presented...)
}

// Config returns the last surface configuration.
func (d *Device) Config() gpu.SurfaceConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surface.config
}

type fence struct {
	d       *Device
	id      uint64
	status  gpu.FenceStatus
	pending bool
}

var errNeverSignaled = errors.New("fence has no pending submission and would never signal")

func (f *fence) Wait() error {
	d := f.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if f.status == gpu.FenceSignaled {
		return nil
	}
	if !f.pending {
		return errNeverSignaled
	}
	d.stats.BlockingWaits++
	d.stats.Waiters++
	for f.pending && !d.lost {
		d.cond.Wait()
	}
	d.stats.Waiters--
	if f.pending {
		return gpu.ErrDeviceLost
	}
	return nil
}

func (f *fence) Reset() error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if f.pending {
		return fmt.Errorf("fence %d: reset while referenced by pending work", f.id)
	}
	f.status = gpu.FenceUnsignaled
	return nil
}

func (f *fence) Status() (gpu.FenceStatus, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if f.d.lost {
		return f.status, gpu.ErrDeviceLost
	}
	return f.status, nil
}

func (f *fence) Release() {}

type semaphore struct {
	d        *Device
	id       uint64
	signaled bool
	released bool
}

func (s *semaphore) Release() {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if !s.released {
		s.released = true
		s.d.stats.SemaphoresReleased++
	}
}

func asSemaphore(h gpu.SemaphoreHandle) (*semaphore, error) {
	if h == nil {
		return nil, nil
	}
	s, ok := h.(*semaphore)
	if !ok {
		return nil, errors.New("semaphore was not created by this device")
	}
	if s.released {
		return nil, fmt.Errorf("semaphore %d used after release", s.id)
	}
	return s, nil
}

// Buffer is a headless buffer backed by a byte slice.
type Buffer struct {
	id       uint64
	label    string
	usage    gpu.BufferUsage
	data     []byte
	writes   int
	released bool
}

func (b *Buffer) Label() string { return b.label }
func (b *Buffer) Size() uint64  { return uint64(len(b.data)) }
func (b *Buffer) Release()      { b.released = true }

// ID returns the buffer's identity, stable for its lifetime.
func (b *Buffer) ID() uint64 { return b.id }

// Data returns a copy of the buffer contents.
func (b *Buffer) Data() []byte { return append([]byte(nil), b.data...) }

// Writes returns the number of uploads into the buffer.
func (b *Buffer) Writes() int { return b.writes }

type descriptorSet struct {
	d      *Device
	id     uint64
	label  string
	layout gpu.LayoutSpec
	bound  map[int]*Buffer
}

func (s *descriptorSet) Layout() gpu.LayoutSpec { return s.layout }

func (s *descriptorSet) Write(binding int, buf gpu.Buffer) error {
	if !s.layout.Has(binding) {
		return fmt.Errorf("descriptor set %q: binding %d not in layout", s.label, binding)
	}
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("descriptor set %q: foreign buffer", s.label)
	}
	s.d.mu.Lock()
	s.d.stats.DescriptorWrites++
	s.d.mu.Unlock()
	s.bound[binding] = b
	return nil
}

func (s *descriptorSet) Release() {}

type image struct {
	index  int
	extent common.Extent2D
	format gpu.Format
}

func (i *image) Index() int              { return i.index }
func (i *image) Extent() common.Extent2D { return i.extent }
func (i *image) Format() gpu.Format      { return i.format }

type attachment struct {
	label    string
	extent   common.Extent2D
	format   gpu.Format
	released bool
}

func (a *attachment) Extent() common.Extent2D { return a.extent }
func (a *attachment) Format() gpu.Format      { return a.format }
func (a *attachment) Release()                { a.released = true }

type framebuffer struct {
	image       gpu.Image
	attachments []gpu.Attachment
}

func (f *framebuffer) Image() gpu.Image        { return f.image }
func (f *framebuffer) Extent() common.Extent2D { return f.image.Extent() }
func (f *framebuffer) Release()                {}

type pipelineHandle struct {
	label string
}

func (p *pipelineHandle) Release() {}
