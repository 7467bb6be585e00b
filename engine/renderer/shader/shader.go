package shader

import "fmt"

// VertexInputStruct is the struct name vertex attributes are read from.
const VertexInputStruct = "VertexInput"

// shader is the implementation of the Shader interface.
type shader struct {
	label         string
	source        string
	vertexEntry   string
	fragmentEntry string
	vertexStride  uint64
	declarations  []Annotation
}

// Shader is a pre-processed WGSL render shader with the metadata a pipeline needs to compile it.
type Shader interface {
	Label() string

	// Source returns the processed WGSL source.
	//
	// Returns:
	//   - string: WGSL with every annotation expanded
	Source() string

	// VertexEntry returns the name of the @vertex function.
	VertexEntry() string

	// FragmentEntry returns the name of the @fragment function.
	FragmentEntry() string

	// VertexStride returns the packed size of the VertexInput struct, 0 when the shader reads no vertex buffer.
	//
	// Returns:
	//   - uint64: the vertex size in bytes
	VertexStride() uint64

	// Declarations returns the shader's bind group declarations in source order.
	//
	// Returns:
	//   - []Annotation: the group annotations
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader pre-processes raw WGSL and extracts its entry points and vertex layout.
//
// Parameters:
//   - label: a debug label
//   - raw: the annotated WGSL source
//   - pp: the pre-processor holding the struct registry
//
// Returns:
//   - Shader: the processed shader
//   - error: an error if pre-processing failed or an entry point is missing
func NewShader(label, raw string, pp PreProcessor) (Shader, error) {
	source, err := pp.Process(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	s := &shader{
		label:         label,
		source:        source,
		vertexEntry:   parseEntryPoint(source, vertexEntryRegex),
		fragmentEntry: parseEntryPoint(source, fragmentEntryRegex),
		declarations:  append([]Annotation(nil), pp.Declarations()...),
	}
	if s.vertexEntry == "" || s.fragmentEntry == "" {
		return nil, fmt.Errorf("%s: shader needs both a @vertex and a @fragment entry point", label)
	}
	s.vertexStride, err = parseVertexStride(source, VertexInputStruct)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return s, nil
}

func (s *shader) Label() string {
	return s.label
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) VertexEntry() string {
	return s.vertexEntry
}

func (s *shader) FragmentEntry() string {
	return s.fragmentEntry
}

func (s *shader) VertexStride() uint64 {
	return s.vertexStride
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}
