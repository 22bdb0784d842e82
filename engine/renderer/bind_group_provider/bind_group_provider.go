package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label prefixed to the GPU objects created for this provider.
	label string

	// bindGroup is the GPU bind group, or nil until the backend builds it.
	bindGroup *wgpu.BindGroup
	// buffers holds the GPU buffers bound by this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// sizes records the byte size each buffer was created with, keyed by binding index.
	sizes map[int]uint64
}

// BindGroupProvider owns the buffers of one bind group and the bind group built over them.
//
// Usage pattern:
//  1. The backend creates a provider per pipeline bind group
//  2. The backend creates buffers and stores them via SetBuffer()
//  3. The backend builds the bind group from the pipeline layout and stores it via SetBindGroup()
//  4. Replacing a buffer clears the bind group so it is rebuilt before the next dispatch
type BindGroupProvider interface {
	// Release releases every buffer and the bind group held by this provider.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the bind group, or nil if it has not been built or was invalidated.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// Buffer returns the buffer bound at binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// BufferSize returns the size the buffer at binding was created with, or 0.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - uint64: the buffer size in bytes
	BufferSize(binding int) uint64

	// Buffers returns all buffers keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.Buffer: the buffers keyed by binding index
	Buffers() map[int]*wgpu.Buffer

	// SetBindGroup stores the bind group, releasing any previous one.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBuffer stores a buffer for a binding, releasing the buffer it replaces and invalidating
	// the bind group.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	//   - size: the buffer size in bytes
	SetBuffer(binding int, buf *wgpu.Buffer, size uint64)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: debug label for the provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
		sizes:   make(map[int]uint64),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) BufferSize(binding int) uint64 {
	return p.sizes[binding]
}

func (p *bindGroupProvider) Buffers() map[int]*wgpu.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer, size uint64) {
	if old := p.buffers[binding]; old != nil && old != buf {
		old.Release()
	}
	p.buffers[binding] = buf
	p.sizes[binding] = size
	p.SetBindGroup(nil)
}

func (p *bindGroupProvider) Release() {
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
		delete(p.sizes, i)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
}
