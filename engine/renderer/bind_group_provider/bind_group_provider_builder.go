package bind_group_provider

import "github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithLabel sets the debug label of the provider.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - BindGroupProviderOption: a function that sets the label
func WithLabel(label string) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.label = label
	}
}

// WithBuffer records a buffer that is already written at binding, without performing another write.
// Used when a descriptor set is adopted from somewhere that has populated it already.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer bound at that binding
//
// Returns:
//   - BindGroupProviderOption: a function that records the buffer for the binding
func WithBuffer(binding int, buf gpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
	}
}
