package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/presenter"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsDeltasPerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var buf bytes.Buffer
	p := NewProfiler(
		WithClock(clock.now),
		WithInterval(time.Second),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithMemoryStats(false),
	)

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.False(t, p.Tick(presenter.Stats{Frames: 30}))

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.True(t, p.Tick(presenter.Stats{Frames: 60, Waits: 57, Recreations: 1}))
	r := p.LastReport()
	assert.Equal(t, 60, r.Frames)
	assert.InDelta(t, 60.0, r.FPS, 1e-9)
	assert.Equal(t, 57, r.Waits)
	assert.Equal(t, 1, r.Recreations)
	assert.Contains(t, buf.String(), "fps=60")

	clock.t = clock.t.Add(2 * time.Second)
	assert.True(t, p.Tick(presenter.Stats{Frames: 120, Waits: 117, Recreations: 1}))
	r = p.LastReport()
	assert.Equal(t, 60, r.Frames)
	assert.InDelta(t, 30.0, r.FPS, 1e-9)
	assert.Zero(t, r.Recreations)
}

func TestMemorySampling(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(
		WithClock(clock.now),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	)
	clock.t = clock.t.Add(time.Second)
	assert.True(t, p.Tick(presenter.Stats{Frames: 1}))
	assert.Greater(t, p.LastReport().SysMB, 0.0)
}
