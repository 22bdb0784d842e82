// Package accumulation tracks how many progressive-refinement samples the render backend has blended
// since the camera last changed.
package accumulation

import "sync"

// Scheduler hands out accumulation sample indices. The backend blends sample n into its running
// average with weight 1/(n+1), so index 0 discards all previous history.
type Scheduler interface {
	// OnCameraResolved resets the counter to zero. Call it on the frame the camera changes.
	OnCameraResolved()

	// NextSampleIndex returns the current counter value and then increments it.
	//
	// Returns:
	//   - uint32: the sample index for the next dispatch
	NextSampleIndex() uint32

	// Current returns the counter without advancing it.
	//
	// Returns:
	//   - uint32: the index the next call to NextSampleIndex will return
	Current() uint32
}

type schedulerImpl struct {
	mu    *sync.Mutex
	frame uint32
}

var _ Scheduler = &schedulerImpl{}

// NewScheduler creates a Scheduler whose first sample index is 0.
//
// Returns:
//   - Scheduler: the new scheduler
func NewScheduler() Scheduler {
	return &schedulerImpl{
		mu: &sync.Mutex{},
	}
}

func (s *schedulerImpl) OnCameraResolved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = 0
}

func (s *schedulerImpl) NextSampleIndex() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.frame
	s.frame++
	return n
}

func (s *schedulerImpl) Current() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}
