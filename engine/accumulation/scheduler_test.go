package accumulation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSchedulerSequence(t *testing.T) {
	s := NewScheduler()

	var got []uint32
	for range 5 {
		got = append(got, s.NextSampleIndex())
	}
	if diff := cmp.Diff([]uint32{0, 1, 2, 3, 4}, got); diff != "" {
		t.Errorf("sample indices (-want +got):\n%s", diff)
	}
	if c := s.Current(); c != 5 {
		t.Errorf("Current() = %d, want 5", c)
	}
}

func TestSchedulerResetOnCameraResolved(t *testing.T) {
	s := NewScheduler()
	for range 3 {
		s.NextSampleIndex()
	}

	s.OnCameraResolved()
	if c := s.Current(); c != 0 {
		t.Fatalf("Current() after reset = %d, want 0", c)
	}

	var got []uint32
	for range 3 {
		got = append(got, s.NextSampleIndex())
	}
	if diff := cmp.Diff([]uint32{0, 1, 2}, got); diff != "" {
		t.Errorf("sample indices after reset (-want +got):\n%s", diff)
	}
}
