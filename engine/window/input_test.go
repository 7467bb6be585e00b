package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/stretchr/testify/assert"
)

func TestInputKeyLifecycle(t *testing.T) {
	in := NewInput()
	assert.Equal(t, Released, in.Key(common.KeyW))

	in.KeyDown(common.KeyW)
	assert.Equal(t, JustPressed, in.Key(common.KeyW))
	assert.True(t, in.Key(common.KeyW).Down())

	// key repeat while held
	in.Tick()
	in.KeyDown(common.KeyW)
	assert.Equal(t, Pressed, in.Key(common.KeyW))

	in.Tick()
	in.KeyUp(common.KeyW)
	assert.Equal(t, JustReleased, in.Key(common.KeyW))
	assert.False(t, in.Key(common.KeyW).Down())

	in.Tick()
	assert.Equal(t, Released, in.Key(common.KeyW))
}

func TestInputReleaseWithoutPressIsIgnored(t *testing.T) {
	in := NewInput()
	in.KeyUp(common.KeyEsc)
	assert.Equal(t, Released, in.Key(common.KeyEsc))
}

func TestInputMouseAndScroll(t *testing.T) {
	in := NewInput()
	in.MouseDown(common.MouseButtonMiddle)
	in.MoveCursor(10, 20)
	in.Scroll(1)
	in.Scroll(0.5)

	assert.Equal(t, JustPressed, in.Mouse(common.MouseButtonMiddle))
	assert.Equal(t, Released, in.Mouse(common.MouseButtonLeft))
	x, y := in.Cursor()
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 20.0, y)
	assert.Equal(t, float32(1.5), in.ScrollDelta())

	in.Tick()
	assert.Equal(t, Pressed, in.Mouse(common.MouseButtonMiddle))
	assert.Zero(t, in.ScrollDelta())
	x, _ = in.Cursor()
	assert.Equal(t, 10.0, x)
}

func TestButtonStateString(t *testing.T) {
	assert.Equal(t, "released", Released.String())
	assert.Equal(t, "just-released", JustReleased.String())
	assert.Equal(t, "pressed", Pressed.String())
	assert.Equal(t, "just-pressed", JustPressed.String())
}
