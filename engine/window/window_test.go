package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/stretchr/testify/assert"
)

func TestDefaultsAndOptions(t *testing.T) {
	w := newEngineWindow()
	assert.Equal(t, common.Extent2D{Width: 1280, Height: 720}, w.Size())

	w = newEngineWindow(WithTitle("pacing"), WithSize(800, 600), WithMinSize(0, 0), WithMaxSize(1920, 1080))
	assert.Equal(t, "pacing", w.title)
	assert.Equal(t, common.Extent2D{Width: 800, Height: 600}, w.Size())
	assert.True(t, w.minSize.IsZero())
	assert.Equal(t, common.Extent2D{Width: 1920, Height: 1080}, w.maxSize)
}

func TestResizedIsEdgeTriggered(t *testing.T) {
	w := newEngineWindow(WithSize(800, 600))
	assert.False(t, w.Resized())

	w.framebufferResized(800, 600)
	assert.False(t, w.Resized(), "same size is not a resize")

	w.framebufferResized(1024, 768)
	assert.True(t, w.Resized())
	assert.False(t, w.Resized())
	assert.Equal(t, common.Extent2D{Width: 1024, Height: 768}, w.Size())
}

func TestMinimizeReportsZeroExtent(t *testing.T) {
	w := newEngineWindow(WithSize(800, 600))
	w.framebufferResized(0, 0)
	assert.True(t, w.Resized())
	assert.True(t, w.Size().IsZero())
}

func TestUninitializedWindow(t *testing.T) {
	w := newEngineWindow()
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())

	w.Input().KeyDown(common.KeyR)
	w.PollEvents()
	assert.Equal(t, Pressed, w.Input().Key(common.KeyR))
}
