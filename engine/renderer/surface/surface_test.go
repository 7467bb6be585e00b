package surface

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ext(w, h uint32) common.Extent2D {
	return common.Extent2D{Width: w, Height: h}
}

func TestClampExtent(t *testing.T) {
	base := gpu.SurfaceCapabilities{
		MinExtent:     ext(100, 100),
		MaxExtent:     ext(1920, 1080),
		CurrentExtent: common.UndefinedExtent,
	}
	rotated := base
	rotated.CurrentTransform = common.SurfaceTransformRotate90
	rotated.MaxExtent = ext(1080, 1920)
	fixed := base
	fixed.CurrentExtent = ext(800, 600)

	tests := []struct {
		name      string
		requested common.Extent2D
		caps      gpu.SurfaceCapabilities
		want      common.Extent2D
	}{
		{"within limits", ext(640, 480), base, ext(640, 480)},
		{"too large", ext(4000, 3000), base, ext(1920, 1080)},
		{"too small", ext(10, 50), base, ext(100, 100)},
		{"minimized", ext(0, 0), base, ext(100, 100)},
		{"rotated swaps before clamping", ext(1920, 1080), rotated, ext(1080, 1920)},
		{"rotated and clamped", ext(3000, 500), rotated, ext(500, 1920)},
		{"current extent wins", ext(640, 480), fixed, ext(800, 600)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampExtent(tt.requested, tt.caps))
		})
	}
}

func TestNegotiateImageCount(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		desired  int
		want     int
	}{
		{"desired within range", 2, 4, 3, 3},
		{"desired below minimum", 3, 4, 2, 3},
		{"desired above maximum", 2, 3, 5, 3},
		{"unbounded maximum", 2, 0, 8, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := gpu.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
			assert.Equal(t, tt.want, NegotiateImageCount(caps, tt.desired))
		})
	}
}

func TestNewManagerBuildsTargets(t *testing.T) {
	d := headless.NewDevice()
	m, err := NewManager(d, ext(640, 480), WithDesiredImages(3))
	require.NoError(t, err)

	assert.Equal(t, 3, m.ImageCount())
	assert.Equal(t, ext(640, 480), m.Extent())
	assert.Len(t, m.Images(), 3)
	assert.Equal(t, 3, d.Stats().AttachmentsCreated)
	for i := 0; i < 3; i++ {
		assert.Equal(t, i, m.Framebuffer(i).Image().Index())
		assert.Equal(t, ext(640, 480), m.Framebuffer(i).Extent())
	}
}

func TestFormatFallsBackToSurfacePreference(t *testing.T) {
	d := headless.NewDevice()
	m, err := NewManager(d, ext(64, 64), WithFormat(gpu.FormatRGBA8Unorm))
	require.NoError(t, err)
	assert.Equal(t, gpu.FormatBGRA8UnormSrgb, m.Format())

	m, err = NewManager(d, ext(64, 64), WithFormat(gpu.FormatRGBA8UnormSrgb))
	require.NoError(t, err)
	assert.Equal(t, gpu.FormatRGBA8UnormSrgb, m.Format())
}

func TestRecreateKeepsImageCountAndClamps(t *testing.T) {
	d := headless.NewDevice(headless.WithExtentRange(ext(1, 1), ext(1024, 768)))
	m, err := NewManager(d, ext(640, 480), WithDesiredImages(2))
	require.NoError(t, err)

	require.NoError(t, m.Recreate(ext(2000, 300)))
	assert.Equal(t, 2, m.ImageCount())
	assert.Equal(t, ext(1024, 300), m.Extent())
	assert.Equal(t, ext(1024, 300), d.Config().Extent)
	assert.Equal(t, 2, d.Config().ImageCount)
	assert.Equal(t, 1, d.Stats().WaitIdles)
	assert.Equal(t, 1, m.Recreations())
	assert.Equal(t, ext(1024, 300), m.Framebuffer(1).Extent())
}

func TestRecreateDrainsPendingWork(t *testing.T) {
	d := headless.NewDevice()
	m, err := NewManager(d, ext(640, 480))
	require.NoError(t, err)

	f, err := d.CreateFence(false)
	require.NoError(t, err)
	rec, err := d.CreateRecorder("pending")
	require.NoError(t, err)
	require.NoError(t, rec.Begin())
	require.NoError(t, rec.End())
	require.NoError(t, d.Queue().Submit(gpu.SubmitInfo{Recorder: rec, Fence: f}))
	require.Equal(t, 1, d.Pending())

	require.NoError(t, m.Recreate(ext(800, 600)))
	assert.Equal(t, 0, d.Pending())
	status, err := f.Status()
	require.NoError(t, err)
	assert.Equal(t, gpu.FenceSignaled, status)
}

func TestRotatedSurfaceReportsPreTransform(t *testing.T) {
	d := headless.NewDevice(headless.WithTransform(common.SurfaceTransformRotate270))
	m, err := NewManager(d, ext(800, 600))
	require.NoError(t, err)
	assert.Equal(t, common.SurfaceTransformRotate270, m.PreTransform())
	assert.Equal(t, ext(600, 800), m.Extent())
	assert.Equal(t, common.SurfaceTransformRotate270, d.Config().Transform, "composition applies the rotation")
}

func TestAcquireWrapsSurfaceErrors(t *testing.T) {
	d := headless.NewDevice()
	m, err := NewManager(d, ext(64, 64))
	require.NoError(t, err)

	d.FailNextAcquire(gpu.ErrSurfaceOutOfDate)
	_, err = m.AcquireNextImage(nil)
	assert.ErrorIs(t, err, gpu.ErrSurfaceOutOfDate)
	assert.True(t, gpu.IsSurfaceInvalid(err))

	idx, err := m.AcquireNextImage(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}
