package shader

// PreProcessorBuilderOption is a functional option applied to a preProcessor during NewPreProcessor.
type PreProcessorBuilderOption func(*preProcessor)

// WithStruct registers a WGSL struct under an annotation key.
//
// Parameters:
//   - key: the struct type key annotations refer to (e.g. "camera")
//   - typeName: the WGSL type name the source declares (e.g. "CameraUniform")
//   - source: the WGSL struct definition
//
// Returns:
//   - PreProcessorBuilderOption: a function that registers the struct
func WithStruct(key AnnotationArg, typeName, source string) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.structRegistry[key] = registryEntry{Source: source, Type: typeName}
	}
}
