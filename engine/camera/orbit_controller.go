package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/scene"
	"github.com/Carmen-Shannon/oxy-pacer/engine/window"
	"github.com/chewxy/math32"
)

// orbitController is the implementation of the OrbitController interface.
type orbitController struct {
	mu *sync.Mutex

	target [3]float32

	// Spherical coordinates of the eye relative to target
	radius    float32
	azimuth   float32 // Horizontal angle around Y axis
	elevation float32 // Vertical angle from horizontal plane

	// Orbit constraints
	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed       float32 // radians per second while a key is held
	mouseSensitivity float32 // radians per pixel of drag
	zoomSpeed        float32 // distance per scroll step

	dragging     bool
	lastX, lastY float64
}

// OrbitController moves a camera on a sphere around a target. It is driven by window input: A/D orbit
// horizontally, W/S tilt, the scroll wheel zooms and dragging with the middle mouse button orbits freely.
type OrbitController interface {
	// Update applies one poll tick of input.
	//
	// Parameters:
	//   - in: the window input state
	//   - dt: seconds since the previous update
	//
	// Returns:
	//   - bool: true if the camera moved
	Update(in *window.Input, dt float32) bool

	// Orbit rotates around the target. Elevation is clamped to the configured limits.
	//
	// Parameters:
	//   - dAzimuth: horizontal rotation in radians
	//   - dElevation: vertical rotation in radians
	Orbit(dAzimuth, dElevation float32)

	// Zoom moves towards the target by delta scroll steps. Positive delta zooms in.
	Zoom(delta float32)

	SetTarget(target [3]float32)

	Radius() float32
	Azimuth() float32
	Elevation() float32

	// Eye returns the world-space camera position.
	//
	// Returns:
	//   - [3]float32: the eye position
	Eye() [3]float32

	// Apply returns base with its eye, target and up replaced by the controller's.
	//
	// Parameters:
	//   - base: the camera whose lens settings are kept
	//
	// Returns:
	//   - scene.Camera: the positioned camera
	Apply(base scene.Camera) scene.Camera
}

var _ OrbitController = &orbitController{}

// NewOrbitController creates an orbit controller looking at the origin.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - OrbitController: the newly created controller
func NewOrbitController(options ...OrbitControllerOption) OrbitController {
	cc := &orbitController{
		mu: &sync.Mutex{},

		radius:    20.0,
		elevation: math32.Pi / 6,

		minRadius:    2.0,
		maxRadius:    200.0,
		minElevation: -(math32.Pi/2 - 0.1),
		maxElevation: math32.Pi/2 - 0.1,

		orbitSpeed:       1.5,
		mouseSensitivity: 0.005,
		zoomSpeed:        1.0,
	}
	for _, option := range options {
		option(cc)
	}
	cc.radius = common.Clamp(cc.radius, cc.minRadius, cc.maxRadius)
	cc.elevation = common.Clamp(cc.elevation, cc.minElevation, cc.maxElevation)
	return cc
}

func (cc *orbitController) Update(in *window.Input, dt float32) bool {
	var dAzim, dElev float32
	if in.Key(common.KeyA).Down() {
		dAzim -= cc.orbitSpeed * dt
	}
	if in.Key(common.KeyD).Down() {
		dAzim += cc.orbitSpeed * dt
	}
	if in.Key(common.KeyW).Down() {
		dElev += cc.orbitSpeed * dt
	}
	if in.Key(common.KeyS).Down() {
		dElev -= cc.orbitSpeed * dt
	}

	x, y := in.Cursor()
	cc.mu.Lock()
	if in.Mouse(common.MouseButtonMiddle).Down() {
		if cc.dragging {
			dAzim -= float32(x-cc.lastX) * cc.mouseSensitivity
			dElev += float32(y-cc.lastY) * cc.mouseSensitivity
		}
		cc.dragging = true
	} else {
		cc.dragging = false
	}
	cc.lastX, cc.lastY = x, y
	cc.mu.Unlock()

	scroll := in.ScrollDelta()
	if dAzim == 0 && dElev == 0 && scroll == 0 {
		return false
	}
	cc.Orbit(dAzim, dElev)
	cc.Zoom(scroll)
	return true
}

func (cc *orbitController) Orbit(dAzimuth, dElevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth += dAzimuth
	cc.elevation = common.Clamp(cc.elevation+dElevation, cc.minElevation, cc.maxElevation)
}

func (cc *orbitController) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = common.Clamp(cc.radius-delta*cc.zoomSpeed, cc.minRadius, cc.maxRadius)
}

func (cc *orbitController) SetTarget(target [3]float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
}

func (cc *orbitController) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *orbitController) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *orbitController) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

func (cc *orbitController) Eye() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.eye()
}

// eye computes the position from spherical coordinates. Caller must hold the mutex.
func (cc *orbitController) eye() [3]float32 {
	sinElev, cosElev := math32.Sincos(cc.elevation)
	sinAzim, cosAzim := math32.Sincos(cc.azimuth)
	return [3]float32{
		cc.target[0] + cc.radius*cosElev*sinAzim,
		cc.target[1] + cc.radius*sinElev,
		cc.target[2] + cc.radius*cosElev*cosAzim,
	}
}

func (cc *orbitController) Apply(base scene.Camera) scene.Camera {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	base.Eye = cc.eye()
	base.Target = cc.target
	base.Up = [3]float32{0, 1, 0}
	return base
}
