package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/scene"
	"github.com/Carmen-Shannon/oxy-pacer/engine/window"
	"github.com/stretchr/testify/assert"
)

func TestEyeFromSphericalCoordinates(t *testing.T) {
	cc := NewOrbitController(WithTarget([3]float32{1, 2, 3}), WithRadius(10), WithAngles(0, 0))
	eye := cc.Eye()
	assert.InDelta(t, 1, eye[0], 1e-5)
	assert.InDelta(t, 2, eye[1], 1e-5)
	assert.InDelta(t, 13, eye[2], 1e-5)

	cc.Orbit(math.Pi/2, 0)
	eye = cc.Eye()
	assert.InDelta(t, 11, eye[0], 1e-4)
	assert.InDelta(t, 3, eye[2], 1e-4)
}

func TestLimitsClamp(t *testing.T) {
	cc := NewOrbitController(WithRadius(10), WithRadiusLimits(5, 15), WithElevationLimits(-1, 1))
	cc.Zoom(100)
	assert.Equal(t, float32(5), cc.Radius())
	cc.Zoom(-100)
	assert.Equal(t, float32(15), cc.Radius())

	cc.Orbit(0, 3)
	assert.Equal(t, float32(1), cc.Elevation())
	cc.Orbit(0, -3)
	assert.Equal(t, float32(-1), cc.Elevation())
}

func TestUpdateFromKeysAndScroll(t *testing.T) {
	cc := NewOrbitController(WithAngles(0, 0), WithRadius(10), WithSpeeds(2, 0.01, 1))
	in := window.NewInput()
	assert.False(t, cc.Update(in, 0.5))

	in.KeyDown(common.KeyD)
	in.KeyDown(common.KeyW)
	in.Scroll(2)
	assert.True(t, cc.Update(in, 0.5))
	assert.InDelta(t, 1, cc.Azimuth(), 1e-6)
	assert.InDelta(t, 1, cc.Elevation(), 1e-6)
	assert.InDelta(t, 8, cc.Radius(), 1e-6)
}

func TestMiddleMouseDrag(t *testing.T) {
	cc := NewOrbitController(WithAngles(0, 0), WithSpeeds(1, 0.01, 1))
	in := window.NewInput()
	in.MoveCursor(100, 100)
	in.MouseDown(common.MouseButtonMiddle)
	assert.False(t, cc.Update(in, 0), "the press itself does not move")

	in.Tick()
	in.MoveCursor(80, 110)
	assert.True(t, cc.Update(in, 0))
	assert.InDelta(t, 0.2, cc.Azimuth(), 1e-6)
	assert.InDelta(t, 0.1, cc.Elevation(), 1e-6)

	in.Tick()
	in.MouseUp(common.MouseButtonMiddle)
	in.MoveCursor(0, 0)
	assert.False(t, cc.Update(in, 0))
}

func TestApplyKeepsLens(t *testing.T) {
	cc := NewOrbitController(WithTarget([3]float32{0, 1, 0}))
	cam := cc.Apply(scene.DefaultCamera)
	assert.Equal(t, scene.DefaultCamera.FovY, cam.FovY)
	assert.Equal(t, [3]float32{0, 1, 0}, cam.Target)
	assert.Equal(t, cc.Eye(), cam.Eye)
}
