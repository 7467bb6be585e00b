// pre_processor.go implements the WGSL shader pre-processor. It scans shader source for @oxy: annotations,
// replaces them with registered struct sources or generated declarations, and collects the declarations so the
// pipeline can derive its bind group layouts from the shader itself.
package shader

import (
	"fmt"
	"strings"
)

// registryEntry pairs a WGSL struct source with the type name used in generated declarations.
type registryEntry struct {
	// Source is the raw WGSL struct definition text.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations (e.g. "CameraUniform").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry map[AnnotationArg]registryEntry

	// declarations accumulates group annotations during a Process call. Reset at the start of each call.
	declarations []Annotation
}

// PreProcessor expands @oxy: annotations in WGSL source.
type PreProcessor interface {
	// Process replaces every annotation with its WGSL output. Include annotations become the registered
	// struct's source; group annotations become @group/@binding declarations. Struct sources are injected once
	// per call no matter how many annotations reference them.
	//
	// Parameters:
	//   - source: the raw WGSL shader source containing annotations
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if an annotation is malformed, references an unregistered struct, or declares the same
	//     group and binding twice
	Process(source string) (string, error)

	// Declarations returns the group annotations of the most recent Process call in source order.
	//
	// Returns:
	//   - []Annotation: the declarations
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the structs registered through options.
//
// Parameters:
//   - options: variadic list of PreProcessorBuilderOption functions, usually WithStruct
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(options ...PreProcessorBuilderOption) PreProcessor {
	p := &preProcessor{
		structRegistry: make(map[AnnotationArg]registryEntry),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]
	included := make(map[AnnotationArg]bool)
	bound := make(map[[2]int]int)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	include := func(arg AnnotationArg, line int) (registryEntry, error) {
		entry, ok := p.structRegistry[arg]
		if !ok {
			return registryEntry{}, fmt.Errorf("line %d: unknown struct type %q", line, arg)
		}
		if !included[arg] {
			included[arg] = true
			out = append(out, entry.Source)
		}
		return entry, nil
	}

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			if _, err := include(a.Args[0], a.Line); err != nil {
				return "", err
			}
		case AnnotationTypeBindingGroup:
			key := [2]int{*a.Group, *a.Binding}
			if prev, ok := bound[key]; ok {
				return "", fmt.Errorf("line %d: group %d binding %d already declared on line %d", a.Line, key[0], key[1], prev)
			}
			bound[key] = a.Line

			entry, err := include(a.StructType(), a.Line)
			if err != nil {
				return "", err
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
				*a.Group, *a.Binding, addressSpaces[a.Args[0]], a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
