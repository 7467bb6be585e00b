package gpu

import "github.com/Carmen-Shannon/oxy-pacer/common"

// Format is a pixel format.
type Format int

const (
	FormatUndefined Format = iota
	FormatBGRA8Unorm
	FormatBGRA8UnormSrgb
	FormatRGBA8Unorm
	FormatRGBA8UnormSrgb
	FormatDepth24Plus
	FormatDepth32Float
)

func (f Format) String() string {
	switch f {
	case FormatBGRA8Unorm:
		return "bgra8unorm"
	case FormatBGRA8UnormSrgb:
		return "bgra8unorm-srgb"
	case FormatRGBA8Unorm:
		return "rgba8unorm"
	case FormatRGBA8UnormSrgb:
		return "rgba8unorm-srgb"
	case FormatDepth24Plus:
		return "depth24plus"
	case FormatDepth32Float:
		return "depth32float"
	default:
		return "undefined"
	}
}

// IsDepth reports whether the format is a depth format.
func (f Format) IsDepth() bool {
	return f == FormatDepth24Plus || f == FormatDepth32Float
}

// BufferUsage is a bitmask of the ways a buffer may be bound.
type BufferUsage uint32

const (
	BufferUsageUniform BufferUsage = 1 << iota
	BufferUsageStorage
	BufferUsageVertex
	BufferUsageIndex
	BufferUsageCopyDst
)

// PresentMode controls how frames are delivered to the display.
type PresentMode int

const (
	// PresentModeFifo waits for vertical blank and never tears.
	PresentModeFifo PresentMode = iota
	// PresentModeImmediate presents as soon as possible and may tear.
	PresentModeImmediate
	// PresentModeMailbox replaces the queued image on each present.
	PresentModeMailbox
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	default:
		return "fifo"
	}
}

// SurfaceCapabilities are the limits a surface reports for swapchain negotiation.
type SurfaceCapabilities struct {
	// MinImageCount is the fewest images the surface supports.
	MinImageCount int
	// MaxImageCount is the most images the surface supports, 0 meaning unbounded.
	MaxImageCount int
	// MinExtent is the smallest allowed image extent.
	MinExtent common.Extent2D
	// MaxExtent is the largest allowed image extent.
	MaxExtent common.Extent2D
	// CurrentExtent is the surface's fixed extent, or common.UndefinedExtent when the swapchain decides.
	CurrentExtent common.Extent2D
	// CurrentTransform is the orientation the presentation engine applies.
	CurrentTransform common.SurfaceTransform
	// Formats lists the supported color formats, preferred first.
	Formats []Format
}

// SurfaceConfig is a negotiated surface configuration.
type SurfaceConfig struct {
	Extent      common.Extent2D
	ImageCount  int
	Format      Format
	PresentMode PresentMode
	// Transform is the pre-rotation the presentation engine applies when it composes the image onto the display.
	Transform common.SurfaceTransform
}

// BindingSpec describes one uniform buffer binding of a descriptor layout.
type BindingSpec struct {
	Binding int
	// Size is the minimum buffer size in bytes.
	Size uint64
}

// LayoutSpec is a descriptor set layout.
type LayoutSpec struct {
	Label    string
	Bindings []BindingSpec
}

// Has reports whether the layout declares binding.
func (l LayoutSpec) Has(binding int) bool {
	for _, b := range l.Bindings {
		if b.Binding == binding {
			return true
		}
	}
	return false
}

// PipelineDesc describes a graphics pipeline to build.
type PipelineDesc struct {
	Label string
	// Source is the WGSL shader source.
	Source string
	// VertexEntry and FragmentEntry name the stage functions in Source. Empty means vs_main and fs_main.
	VertexEntry   string
	FragmentEntry string
	// Layouts are the descriptor layouts per bind group index.
	Layouts []LayoutSpec
	// VertexStride is the byte stride of one vertex, 0 for pipelines without vertex input.
	VertexStride uint64
	// Lines selects a line-list topology instead of triangles.
	Lines bool
	// DepthTest enables depth testing and writing.
	DepthTest   bool
	ColorFormat Format
}
