// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "fmt"

// Extent2D is a width/height pair in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// String formats the extent as WIDTHxHEIGHT.
func (e Extent2D) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// IsZero reports whether either dimension is zero, which happens while a window is minimized.
//
// Returns:
//   - bool: true if the extent has no drawable area
func (e Extent2D) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

// Swapped returns the extent with width and height exchanged.
//
// Returns:
//   - Extent2D: the transposed extent
func (e Extent2D) Swapped() Extent2D {
	return Extent2D{Width: e.Height, Height: e.Width}
}

// UndefinedExtent is reported by a surface that lets the swapchain pick its own size.
var UndefinedExtent = Extent2D{Width: 0xFFFFFFFF, Height: 0xFFFFFFFF}

// SurfaceTransform describes the orientation the presentation engine applies to a surface.
type SurfaceTransform int

const (
	// SurfaceTransformIdentity means the surface is presented as-is.
	SurfaceTransformIdentity SurfaceTransform = iota
	// SurfaceTransformRotate90 rotates the surface a quarter turn clockwise.
	SurfaceTransformRotate90
	// SurfaceTransformRotate180 rotates the surface half a turn.
	SurfaceTransformRotate180
	// SurfaceTransformRotate270 rotates the surface three quarter turns clockwise.
	SurfaceTransformRotate270
)

// Rotated reports whether the transform swaps the width and height axes.
//
// Returns:
//   - bool: true for 90 and 270 degree rotations
func (t SurfaceTransform) Rotated() bool {
	return t == SurfaceTransformRotate90 || t == SurfaceTransformRotate270
}

func (t SurfaceTransform) String() string {
	switch t {
	case SurfaceTransformIdentity:
		return "identity"
	case SurfaceTransformRotate90:
		return "rotate-90"
	case SurfaceTransformRotate180:
		return "rotate-180"
	case SurfaceTransformRotate270:
		return "rotate-270"
	default:
		return fmt.Sprintf("SurfaceTransform(%d)", int(t))
	}
}

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float64
}

// White is the color used by the fallback material.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// Handles identify scene entities. They are opaque to the renderer and only used as cache key components.
type (
	// NodeHandle identifies a scene node.
	NodeHandle uint32
	// MaterialHandle identifies a material.
	MaterialHandle uint32
	// CameraHandle identifies a camera.
	CameraHandle uint32
	// ModelHandle identifies a model (a group of nodes sharing geometry).
	ModelHandle uint32
)

// PipelineID is a material's index into the pipeline table.
type PipelineID uint32
