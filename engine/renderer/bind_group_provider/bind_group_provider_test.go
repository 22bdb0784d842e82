package bind_group_provider

import "testing"

func TestBindGroupProviderBookkeeping(t *testing.T) {
	p := NewBindGroupProvider("trace", WithBuffer(5, nil, 256))
	if got := p.Label(); got != "trace" {
		t.Errorf("Label() = %q, want trace", got)
	}
	if got := p.BufferSize(5); got != 256 {
		t.Errorf("BufferSize(5) = %d, want 256", got)
	}
	if p.BindGroup() != nil {
		t.Error("BindGroup() is set before the backend built one")
	}

	p.SetBuffer(5, nil, 1024)
	if got := p.BufferSize(5); got != 1024 {
		t.Errorf("BufferSize(5) after SetBuffer = %d, want 1024", got)
	}

	p.Release()
	if got := len(p.Buffers()); got != 0 {
		t.Errorf("len(Buffers()) after Release = %d, want 0", got)
	}
	if got := p.BufferSize(5); got != 0 {
		t.Errorf("BufferSize(5) after Release = %d, want 0", got)
	}
}
