package pipeline

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/shader"
)

var (
	//go:embed assets/default.wgsl
	defaultSource string
	//go:embed assets/normal.wgsl
	normalSource string
	//go:embed assets/line.wgsl
	lineSource string
	//go:embed assets/fullscreen.wgsl
	fullscreenSource string
)

// Kind is the closed set of pipeline kinds a material can select.
type Kind int

const (
	// KindDefault draws lit triangle meshes with the material's base color.
	KindDefault Kind = iota
	// KindNormal draws triangle meshes colored by their world-space normals.
	KindNormal
	// KindLine draws line lists in the material's base color.
	KindLine
	// KindFullscreen draws one oversized triangle covering the viewport. It takes no vertex input.
	KindFullscreen

	kindCount
)

// Kinds lists every pipeline kind in declaration order.
var Kinds = []Kind{KindDefault, KindNormal, KindLine, KindFullscreen}

func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindNormal:
		return "normal"
	case KindLine:
		return "line"
	case KindFullscreen:
		return "fullscreen"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Group is the role of a bind group in a pipeline's layout.
type Group int

const (
	GroupCamera Group = iota
	GroupModel
	GroupMaterial
)

func (g Group) String() string {
	switch g {
	case GroupCamera:
		return "camera"
	case GroupModel:
		return "model"
	case GroupMaterial:
		return "material"
	default:
		return fmt.Sprintf("Group(%d)", int(g))
	}
}

// groupKeys maps the struct type key of an @oxy:group annotation to the bind group role it fills.
var groupKeys = map[shader.AnnotationArg]Group{
	"camera":   GroupCamera,
	"model":    GroupModel,
	"material": GroupMaterial,
}

// newPreProcessor registers the GPU structs of this package under their annotation keys.
func newPreProcessor() shader.PreProcessor {
	return shader.NewPreProcessor(
		shader.WithStruct("vertex", "VertexInput", GPUVertexSource),
		shader.WithStruct("camera", "CameraUniform", GPUCameraUniformSource),
		shader.WithStruct("model", "ModelUniform", GPUModelUniformSource),
		shader.WithStruct("material", "MaterialUniform", GPUMaterialUniformSource),
	)
}

// groupsOf derives the bind group roles from a shader's declarations. Groups must be numbered from 0 without
// gaps and each must hold a single uniform at binding 0.
func groupsOf(sh shader.Shader) ([]Group, error) {
	decls := sh.Declarations()
	groups := make([]Group, len(decls))
	seen := make([]bool, len(decls))
	for _, d := range decls {
		g, b := *d.Group, *d.Binding
		if g >= len(decls) || b != 0 || seen[g] {
			return nil, fmt.Errorf("line %d: bind groups must be numbered 0..%d with one binding each", d.Line, len(decls)-1)
		}
		role, ok := groupKeys[d.StructType()]
		if !ok {
			return nil, fmt.Errorf("line %d: %q cannot be bound as a group", d.Line, d.StructType())
		}
		groups[g] = role
		seen[g] = true
	}
	return groups, nil
}

// Layout returns the descriptor layout of a bind group role. Every role binds one uniform buffer at binding 0.
//
// Returns:
//   - gpu.LayoutSpec: the layout
func (g Group) Layout() gpu.LayoutSpec {
	var size uint64
	switch g {
	case GroupCamera:
		size = common.SizeOf[GPUCameraUniform]()
	case GroupModel:
		size = common.SizeOf[GPUModelUniform]()
	case GroupMaterial:
		size = common.SizeOf[GPUMaterialUniform]()
	}
	return gpu.LayoutSpec{Label: g.String(), Bindings: []gpu.BindingSpec{{Binding: 0, Size: size}}}
}

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	id    common.PipelineID
	kind  Kind
	label string

	handle gpu.PipelineHandle

	// groups holds the role of each bind group, indexed by group number.
	groups []Group

	colorFormat gpu.Format
	depthTest   bool
	vertexInput bool
}

// Pipeline is one compiled entry of the pipeline table.
type Pipeline interface {
	// ID returns the pipeline's index in its table.
	//
	// Returns:
	//   - common.PipelineID: the table index materials refer to
	ID() common.PipelineID

	// Kind returns the pipeline kind.
	//
	// Returns:
	//   - Kind: the kind the pipeline was built for
	Kind() Kind

	Label() string

	// Handle returns the device pipeline for binding in a recorder.
	//
	// Returns:
	//   - gpu.PipelineHandle: the compiled pipeline
	Handle() gpu.PipelineHandle

	// Groups returns the role of each bind group, indexed by group number.
	//
	// Returns:
	//   - []Group: the bind group roles
	Groups() []Group

	// VertexInput reports whether draws with this pipeline need a vertex buffer.
	//
	// Returns:
	//   - bool: false for pipelines that generate their vertices in the shader
	VertexInput() bool

	// Release destroys the device pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline compiles a pipeline of kind on device.
//
// Parameters:
//   - device: the device to compile on
//   - kind: the pipeline kind
//   - options: functional options for the pipeline
//
// Returns:
//   - Pipeline: the compiled pipeline
//   - error: an error if the kind is unknown or compilation failed
func NewPipeline(device gpu.Device, kind Kind, options ...PipelineBuilderOption) (Pipeline, error) {
	p := &pipeline{
		kind:        kind,
		label:       kind.String() + " pipeline",
		colorFormat: gpu.FormatBGRA8UnormSrgb,
		depthTest:   true,
	}
	for _, opt := range options {
		opt(p)
	}

	var raw string
	switch kind {
	case KindDefault:
		raw = defaultSource
	case KindNormal:
		raw = normalSource
	case KindLine:
		raw = lineSource
	case KindFullscreen:
		raw = fullscreenSource
	default:
		return nil, fmt.Errorf("unknown pipeline kind %s", kind)
	}
	sh, err := shader.NewShader(p.label, raw, newPreProcessor())
	if err != nil {
		return nil, err
	}
	p.groups, err = groupsOf(sh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.label, err)
	}
	if stride := sh.VertexStride(); stride != 0 && stride != common.SizeOf[GPUVertex]() {
		return nil, fmt.Errorf("%s: vertex input is %d bytes, GPUVertex is %d", p.label, stride, common.SizeOf[GPUVertex]())
	}
	p.vertexInput = sh.VertexStride() != 0

	desc := gpu.PipelineDesc{
		Label:         p.label,
		Source:        sh.Source(),
		VertexEntry:   sh.VertexEntry(),
		FragmentEntry: sh.FragmentEntry(),
		VertexStride:  sh.VertexStride(),
		Lines:         kind == KindLine,
		ColorFormat:   p.colorFormat,
		// fullscreen draws ignore depth
		DepthTest: p.depthTest && kind != KindFullscreen,
	}
	for _, g := range p.groups {
		desc.Layouts = append(desc.Layouts, g.Layout())
	}

	h, err := device.CreatePipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", p.label, err)
	}
	p.handle = h
	return p, nil
}

func (p *pipeline) ID() common.PipelineID {
	return p.id
}

func (p *pipeline) Kind() Kind {
	return p.kind
}

func (p *pipeline) Label() string {
	return p.label
}

func (p *pipeline) Handle() gpu.PipelineHandle {
	return p.handle
}

func (p *pipeline) Groups() []Group {
	return p.groups
}

func (p *pipeline) VertexInput() bool {
	return p.vertexInput
}

func (p *pipeline) Release() {
	if p.handle != nil {
		p.handle.Release()
		p.handle = nil
	}
}
