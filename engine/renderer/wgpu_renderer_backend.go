package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuRendererBackendImpl is the gpu.Device backed by WebGPU.
//
// WebGPU orders queue work implicitly, so semaphores are plain tokens that only carry the signal bookkeeping. Fences
// track the submission index of the work they guard and are completed by the queue's work-done callback, which the
// device delivers from Poll.
type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	logger *slog.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surface *wgpuSurface
	q       *wgpuQueue

	// layouts deduplicates bind group layouts so descriptor sets and pipelines share one object per layout.
	layouts map[string]*wgpu.BindGroupLayout

	forceFallbackAdapter bool
	lost                 atomic.Bool
}

var _ gpu.Device = &wgpuRendererBackendImpl{}

// NewWGPUDevice requests an adapter and a device compatible with the window surface and wraps them as a gpu.Device.
// The calling goroutine is locked to its OS thread, the same as the window.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor, typically from Window.SurfaceDescriptor
//   - options: functional options for the backend
//
// Returns:
//   - gpu.Device: the device
//   - error: an error if no adapter or device could be obtained
func NewWGPUDevice(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...WGPUBackendOption) (gpu.Device, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("wgpu backend requires a surface descriptor")
	}
	runtime.LockOSThread()

	b := &wgpuRendererBackendImpl{
		mu:       &sync.Mutex{},
		logger:   slog.Default(),
		instance: wgpu.CreateInstance(nil),
		layouts:  make(map[string]*wgpu.BindGroupLayout),
	}
	for _, opt := range options {
		opt(b)
	}

	raw := b.instance.CreateSurface(surfaceDescriptor)
	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    raw,
	})
	if err != nil {
		raw.Release()
		b.instance.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
		DeviceLostCallback: func(reason wgpu.DeviceLostReason, message string) {
			b.lost.Store(true)
			b.logger.Error("wgpu device lost", slog.Any("reason", reason), slog.String("message", message))
		},
	})
	if err != nil {
		a.Release()
		raw.Release()
		b.instance.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()
	b.surface = &wgpuSurface{b: b, raw: raw}
	b.q = &wgpuQueue{b: b}
	return b, nil
}

func (b *wgpuRendererBackendImpl) CreateFence(signaled bool) (gpu.FenceHandle, error) {
	if b.lost.Load() {
		return nil, gpu.ErrDeviceLost
	}
	f := &wgpuFence{b: b}
	f.signaled.Store(signaled)
	return f, nil
}

func (b *wgpuRendererBackendImpl) CreateSemaphore() (gpu.SemaphoreHandle, error) {
	if b.lost.Load() {
		return nil, gpu.ErrDeviceLost
	}
	return &wgpuSemaphore{}, nil
}

func (b *wgpuRendererBackendImpl) CreateBuffer(label string, size uint64, usage gpu.BufferUsage) (gpu.Buffer, error) {
	if b.lost.Load() {
		return nil, gpu.ErrDeviceLost
	}
	raw, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            toWGPUBufferUsage(usage),
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: buffer %q (%d bytes): %v", gpu.ErrOutOfMemory, label, size, err)
	}
	return &wgpuBuffer{label: label, size: size, raw: raw}, nil
}

func (b *wgpuRendererBackendImpl) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	wb, ok := buf.(*wgpuBuffer)
	if !ok || wb.raw == nil {
		return errors.New("write to a buffer that was not created by this device or was released")
	}
	if offset+uint64(len(data)) > wb.size {
		return fmt.Errorf("write of %d bytes at %d overflows buffer %q of %d bytes", len(data), offset, wb.label, wb.size)
	}
	if b.lost.Load() {
		return gpu.ErrDeviceLost
	}
	b.queue.WriteBuffer(wb.raw, offset, data)
	return nil
}

func (b *wgpuRendererBackendImpl) CreateDescriptorSet(label string, layout gpu.LayoutSpec) (gpu.DescriptorSet, error) {
	if b.lost.Load() {
		return nil, gpu.ErrDeviceLost
	}
	bgl, err := b.bindGroupLayout(layout)
	if err != nil {
		return nil, err
	}
	return &wgpuDescriptorSet{b: b, label: label, spec: layout, layout: bgl, entries: make(map[int]*wgpuBuffer)}, nil
}

func (b *wgpuRendererBackendImpl) CreateRecorder(label string) (gpu.Recorder, error) {
	return &wgpuRecorder{b: b, label: label}, nil
}

func (b *wgpuRendererBackendImpl) CreateAttachment(label string, extent common.Extent2D, format gpu.Format) (gpu.Attachment, error) {
	if b.lost.Load() {
		return nil, gpu.ErrDeviceLost
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              extent.Width,
			Height:             extent.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        toWGPUFormat(format),
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: attachment %q: %v", gpu.ErrOutOfMemory, label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create view for attachment %q: %w", label, err)
	}
	return &wgpuAttachment{extent: extent, format: format, texture: tex, view: view}, nil
}

func (b *wgpuRendererBackendImpl) CreateFramebuffer(img gpu.Image, attachments []gpu.Attachment) (gpu.Framebuffer, error) {
	wi, ok := img.(*wgpuImage)
	if !ok {
		return nil, errors.New("framebuffer image was not created by this device")
	}
	fb := &wgpuFramebuffer{image: wi}
	for _, a := range attachments {
		wa, ok := a.(*wgpuAttachment)
		if !ok {
			return nil, errors.New("framebuffer attachment was not created by this device")
		}
		if wa.format.IsDepth() {
			fb.depth = wa
		}
	}
	return fb, nil
}

// CreatePipeline builds a render pipeline from one WGSL module holding both stages. Pipelines with a vertex
// stride read position and normal as two float32x3 attributes at locations 0 and 1.
func (b *wgpuRendererBackendImpl) CreatePipeline(desc gpu.PipelineDesc) (gpu.PipelineHandle, error) {
	if b.lost.Load() {
		return nil, gpu.ErrDeviceLost
	}
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader for %s: %w", desc.Label, err)
	}
	defer module.Release()

	bindGroupLayouts := make([]*wgpu.BindGroupLayout, len(desc.Layouts))
	for g, spec := range desc.Layouts {
		if bindGroupLayouts[g], err = b.bindGroupLayout(spec); err != nil {
			return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
	}
	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return nil, err
	}

	var buffers []wgpu.VertexBufferLayout
	if desc.VertexStride > 0 {
		buffers = []wgpu.VertexBufferLayout{{
			ArrayStride: desc.VertexStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			},
		}}
	}
	topology := wgpu.PrimitiveTopologyTriangleList
	if desc.Lines {
		topology = wgpu.PrimitiveTopologyLineList
	}
	depthCompare := wgpu.CompareFunctionLess
	if !desc.DepthTest {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: common.Coalesce(desc.VertexEntry, "vs_main"),
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: common.Coalesce(desc.FragmentEntry, "fs_main"),
			Targets: []wgpu.ColorTargetState{{
				Format:    toWGPUFormat(desc.ColorFormat),
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: desc.DepthTest,
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		layout.Release()
		return nil, fmt.Errorf("failed to create render pipeline %s: %w", desc.Label, err)
	}
	return &wgpuPipeline{raw: created, layout: layout}, nil
}

func (b *wgpuRendererBackendImpl) Queue() gpu.Queue {
	return b.q
}

func (b *wgpuRendererBackendImpl) Surface() gpu.Surface {
	return b.surface
}

// WaitIdle blocks until every submission has completed and delivers the pending work-done callbacks.
func (b *wgpuRendererBackendImpl) WaitIdle() error {
	if b.lost.Load() {
		return gpu.ErrDeviceLost
	}
	b.device.Poll(true, nil)
	if b.lost.Load() {
		return gpu.ErrDeviceLost
	}
	return nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, l := range b.layouts {
		l.Release()
		delete(b.layouts, key)
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface.raw.Release()
	}
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}

// bindGroupLayout returns the shared layout for spec. Every binding is a uniform buffer visible to both stages.
func (b *wgpuRendererBackendImpl) bindGroupLayout(spec gpu.LayoutSpec) (*wgpu.BindGroupLayout, error) {
	bindings := append([]gpu.BindingSpec(nil), spec.Bindings...)
	sort.Slice(bindings, func(i, j int) bool { return bindings[i].Binding < bindings[j].Binding })

	var key strings.Builder
	for _, bs := range bindings {
		fmt.Fprintf(&key, "%d:%d;", bs.Binding, bs.Size)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.layouts[key.String()]; ok {
		return l, nil
	}

	entries := make([]wgpu.BindGroupLayoutEntry, len(bindings))
	for i, bs := range bindings {
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    uint32(bs.Binding),
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: bs.Size,
			},
		}
	}
	l, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   spec.Label,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	b.layouts[key.String()] = l
	return l, nil
}

func toWGPUFormat(f gpu.Format) wgpu.TextureFormat {
	switch f {
	case gpu.FormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case gpu.FormatBGRA8UnormSrgb:
		return wgpu.TextureFormatBGRA8UnormSrgb
	case gpu.FormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case gpu.FormatRGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case gpu.FormatDepth24Plus:
		return wgpu.TextureFormatDepth24Plus
	case gpu.FormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	default:
		return wgpu.TextureFormatUndefined
	}
}

func fromWGPUFormat(f wgpu.TextureFormat) gpu.Format {
	switch f {
	case wgpu.TextureFormatBGRA8Unorm:
		return gpu.FormatBGRA8Unorm
	case wgpu.TextureFormatBGRA8UnormSrgb:
		return gpu.FormatBGRA8UnormSrgb
	case wgpu.TextureFormatRGBA8Unorm:
		return gpu.FormatRGBA8Unorm
	case wgpu.TextureFormatRGBA8UnormSrgb:
		return gpu.FormatRGBA8UnormSrgb
	default:
		return gpu.FormatUndefined
	}
}

func toWGPUPresentMode(m gpu.PresentMode) wgpu.PresentMode {
	switch m {
	case gpu.PresentModeImmediate:
		return wgpu.PresentModeImmediate
	case gpu.PresentModeMailbox:
		return wgpu.PresentModeMailbox
	default:
		return wgpu.PresentModeFifo
	}
}

func toWGPUBufferUsage(u gpu.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&gpu.BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&gpu.BufferUsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	if u&gpu.BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if u&gpu.BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if u&gpu.BufferUsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	return out
}
