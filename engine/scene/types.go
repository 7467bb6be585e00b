package scene

import "github.com/Carmen-Shannon/oxy-pacer/common"

// Vertex is one mesh vertex. Its layout matches the renderer's GPU vertex (24 bytes, position then normal).
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// Primitive is the geometry of a model. Primitives without indices are drawn non-indexed.
type Primitive struct {
	Vertices []Vertex
	Indices  []uint32
}

// Indexed reports whether the primitive has an index buffer.
func (p *Primitive) Indexed() bool {
	return p != nil && len(p.Indices) > 0
}

// VertexCount returns the number of vertices.
func (p *Primitive) VertexCount() uint32 {
	if p == nil {
		return 0
	}
	return uint32(len(p.Vertices))
}

// IndexCount returns the number of indices.
func (p *Primitive) IndexCount() uint32 {
	if p == nil {
		return 0
	}
	return uint32(len(p.Indices))
}

// Camera is a perspective camera looking from Eye towards Target.
type Camera struct {
	Eye    [3]float32
	Target [3]float32
	Up     [3]float32

	// FovY is the vertical field of view in radians.
	FovY float32
	Near float32
	Far  float32
}

// DefaultCamera looks at the origin from five units down the +Z axis.
var DefaultCamera = Camera{
	Eye:  [3]float32{0, 0, 5},
	Up:   [3]float32{0, 1, 0},
	FovY: 0.785398,
	Near: 0.1,
	Far:  100,
}

// View returns the camera's view matrix.
func (c Camera) View() common.Mat4 {
	return common.LookAt(c.Eye, c.Target, c.Up)
}

// Projection returns the camera's projection matrix for a viewport extent. Zero extents use an aspect of 1.
//
// Parameters:
//   - extent: the viewport size in pixels
//
// Returns:
//   - common.Mat4: the projection matrix
func (c Camera) Projection(extent common.Extent2D) common.Mat4 {
	aspect := float32(1)
	if !extent.IsZero() {
		aspect = float32(extent.Width) / float32(extent.Height)
	}
	return common.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// Material selects a pipeline and the uniform data fed to it.
type Material struct {
	Pipeline  common.PipelineID
	BaseColor common.Color
}
