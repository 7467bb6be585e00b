package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/presenter"
)

// Report is one interval's worth of frame pacing and memory statistics.
type Report struct {
	FPS float64
	// Frames, Waits and Recreations are presenter counter deltas over the interval.
	Frames      int
	Waits       int
	Recreations int
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	// LastPauseUs and MaxPauseUs are GC pauses in microseconds; MaxPauseUs covers the interval only.
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Profiler tracks frame rate, frame slot pacing and memory statistics.
// Logs a Report at a configurable interval.
type Profiler struct {
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	readMem  bool

	lastTime       time.Time
	last           presenter.Stats
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	lastReport     Report
}

// NewProfiler creates a new Profiler. The interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		interval: time.Second,
		now:      time.Now,
		logger:   slog.Default(),
		readMem:  true,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per presented frame with the presenter's cumulative counters.
// Logs a Report when the interval has elapsed.
//
// Parameters:
//   - stats: the presenter's counters after the frame
//
// Returns:
//   - bool: true if a report was logged this tick
func (p *Profiler) Tick(stats presenter.Stats) bool {
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.interval || elapsed <= 0 {
		return false
	}

	r := Report{
		Frames:      stats.Frames - p.last.Frames,
		Waits:       stats.Waits - p.last.Waits,
		Recreations: stats.Recreations - p.last.Recreations,
	}
	r.FPS = float64(r.Frames) / elapsed.Seconds()
	if p.readMem {
		p.sampleMemory(&r, elapsed)
	}

	p.logger.Info("profiler",
		slog.Float64("fps", r.FPS),
		slog.Int("waits", r.Waits),
		slog.Int("recreations", r.Recreations),
		slog.Float64("heap_mb", r.HeapMB),
		slog.Float64("alloc_rate_mb", r.AllocRateMB),
		slog.Any("gc", r.GCCount),
		slog.Any("gc_last_us", r.LastPauseUs),
		slog.Any("gc_max_us", r.MaxPauseUs),
		slog.Float64("sys_mb", r.SysMB),
	)

	p.lastTime = currentTime
	p.last = stats
	p.lastReport = r
	return true
}

func (p *Profiler) sampleMemory(r *Report, elapsed time.Duration) {
	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, TotalAlloc only grows and tracks churn, Sys is the process footprint.
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	r.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		r.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}
	r.GCCount = gcCount

	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}

// LastReport returns the most recently logged report.
func (p *Profiler) LastReport() Report {
	return p.lastReport
}
