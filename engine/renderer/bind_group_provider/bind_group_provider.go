package bind_group_provider

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// set is the device descriptor set this provider fills. It is released with the provider.
	set gpu.DescriptorSet

	// buffers holds the buffers written into the set, keyed by binding index. The buffers are owned by the
	// resource cache, not by the provider.
	buffers map[int]gpu.Buffer

	// writes counts binding writes performed through this provider.
	writes int
}

// BindGroupProvider is the descriptor resource handed out by the descriptor cache. It wraps one device descriptor
// set and remembers which buffer sits at each binding.
//
// Usage pattern:
//  1. The frame slot asks the descriptor cache for the provider of a ResourceKey
//  2. When the cache reports it as freshly created, the slot calls Bind for every binding of the layout
//  3. On later frames the provider is reused as-is and only the bound buffers' contents change
//  4. The slot binds DescriptorSet() for the draw call
type BindGroupProvider interface {
	// Release releases the descriptor set. Bound buffers are left to their owner.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// DescriptorSet returns the device descriptor set for binding in a draw.
	//
	// Returns:
	//   - gpu.DescriptorSet: the descriptor set
	DescriptorSet() gpu.DescriptorSet

	// Layout returns the layout of the descriptor set.
	//
	// Returns:
	//   - gpu.LayoutSpec: the layout
	Layout() gpu.LayoutSpec

	// Bind writes buf at binding. This is the expensive part of descriptor management and should only be done once
	// per binding for a freshly created provider.
	//
	// Parameters:
	//   - binding: the binding index from the layout
	//   - buf: the buffer to bind
	//
	// Returns:
	//   - error: an error if the binding is not part of the layout
	Bind(binding int, buf gpu.Buffer) error

	// Buffer returns the buffer at binding, or nil if the binding was never written.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Buffer: the bound buffer or nil
	Buffer(binding int) gpu.Buffer

	// Buffers returns a copy of the binding to buffer map.
	//
	// Returns:
	//   - map[int]gpu.Buffer: bound buffers keyed by binding index
	Buffers() map[int]gpu.Buffer

	// Complete reports whether every binding of the layout has been written.
	//
	// Returns:
	//   - bool: true if the provider can be used in a draw
	Complete() bool

	// Writes returns how many binding writes were performed through this provider.
	Writes() int
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider wraps a freshly allocated descriptor set.
//
// Parameters:
//   - set: the descriptor set to wrap
//   - options: functional options for the provider
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(set gpu.DescriptorSet, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   "Bind Group",
		set:     set,
		buffers: make(map[int]gpu.Buffer),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) DescriptorSet() gpu.DescriptorSet {
	return p.set
}

func (p *bindGroupProvider) Layout() gpu.LayoutSpec {
	return p.set.Layout()
}

func (p *bindGroupProvider) Bind(binding int, buf gpu.Buffer) error {
	if buf == nil {
		return fmt.Errorf("%s: nil buffer for binding %d", p.label, binding)
	}
	if err := p.set.Write(binding, buf); err != nil {
		return fmt.Errorf("%s: failed to write binding %d: %w", p.label, binding, err)
	}
	p.buffers[binding] = buf
	p.writes++
	return nil
}

func (p *bindGroupProvider) Buffer(binding int) gpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]gpu.Buffer {
	cp := make(map[int]gpu.Buffer, len(p.buffers))
	for k, v := range p.buffers {
		cp[k] = v
	}
	return cp
}

func (p *bindGroupProvider) Complete() bool {
	for _, b := range p.set.Layout().Bindings {
		if _, ok := p.buffers[b.Binding]; !ok {
			return false
		}
	}
	return true
}

func (p *bindGroupProvider) Writes() int {
	return p.writes
}

func (p *bindGroupProvider) Release() {
	if p.set != nil {
		p.set.Release()
	}
	p.buffers = make(map[int]gpu.Buffer)
}

// String lists the bound bindings in order, for logging.
func (p *bindGroupProvider) String() string {
	bindings := make([]int, 0, len(p.buffers))
	for b := range p.buffers {
		bindings = append(bindings, b)
	}
	sort.Ints(bindings)
	return fmt.Sprintf("%s%v", p.label, bindings)
}
