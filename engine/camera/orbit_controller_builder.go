package camera

// OrbitControllerOption is a functional option for configuring an orbitController.
type OrbitControllerOption func(*orbitController)

// WithTarget sets the point the camera orbits and looks at.
//
// Parameters:
//   - target: world-space pivot
//
// Returns:
//   - OrbitControllerOption: option function to apply
func WithTarget(target [3]float32) OrbitControllerOption {
	return func(cc *orbitController) {
		cc.target = target
	}
}

// WithRadius sets the initial distance from the target.
func WithRadius(radius float32) OrbitControllerOption {
	return func(cc *orbitController) {
		cc.radius = radius
	}
}

// WithRadiusLimits bounds zooming.
//
// Parameters:
//   - minRadius: closest distance to the target
//   - maxRadius: farthest distance from the target
//
// Returns:
//   - OrbitControllerOption: option function to apply
func WithRadiusLimits(minRadius, maxRadius float32) OrbitControllerOption {
	return func(cc *orbitController) {
		cc.minRadius = minRadius
		cc.maxRadius = maxRadius
	}
}

// WithAngles sets the initial azimuth and elevation in radians.
func WithAngles(azimuth, elevation float32) OrbitControllerOption {
	return func(cc *orbitController) {
		cc.azimuth = azimuth
		cc.elevation = elevation
	}
}

// WithElevationLimits bounds tilting, in radians from the horizontal plane.
func WithElevationLimits(minElevation, maxElevation float32) OrbitControllerOption {
	return func(cc *orbitController) {
		cc.minElevation = minElevation
		cc.maxElevation = maxElevation
	}
}

// WithSpeeds sets the input response.
//
// Parameters:
//   - orbit: radians per second while an orbit key is held
//   - mouse: radians per pixel of middle-button drag
//   - zoom: distance per scroll step
//
// Returns:
//   - OrbitControllerOption: option function to apply
func WithSpeeds(orbit, mouse, zoom float32) OrbitControllerOption {
	return func(cc *orbitController) {
		cc.orbitSpeed = orbit
		cc.mouseSensitivity = mouse
		cc.zoomSpeed = zoom
	}
}
