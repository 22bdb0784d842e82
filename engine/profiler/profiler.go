package profiler

import (
	"runtime"
	"time"

	"github.com/golang/glog"
)

// Profiler tracks frame rate, accumulation progress and memory statistics.
// Outputs stats through glog at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	now            func() time.Time
}

// NewProfiler creates a new Profiler that logs once per second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return NewProfilerWithInterval(time.Second)
}

// NewProfilerWithInterval creates a new Profiler that logs every interval.
//
// Parameters:
//   - interval: time between log lines; values <= 0 log on every tick
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfilerWithInterval(interval time.Duration) *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		now:            time.Now,
	}
}

// Tick should be called once per frame after the sample is launched.
// Logs FPS, the accumulated sample count, heap usage, allocation rate and GC pauses when the update
// interval has elapsed.
//
// Parameters:
//   - sample: the accumulation index of the frame just traced
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(sample uint32) bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	seconds := elapsed.Seconds()
	if seconds <= 0 {
		seconds = 1e-9
	}
	fps := float64(p.frameCount) / seconds

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	glog.Infof("profiler: FPS %.2f | samples %d | heap %.2f MB | alloc rate %.2f MB/s | GC %d (last %d µs, max %d µs) | sys %.2f MB",
		fps, sample+1, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
