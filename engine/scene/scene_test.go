package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var triangle = &Primitive{
	Vertices: []Vertex{
		{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{-1, -1, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{1, -1, 0}, Normal: [3]float32{0, 0, 1}},
	},
}

func TestSnapshotOrderedAndRestartable(t *testing.T) {
	s := NewScene("test", WithComputeWorkers(2))
	m := s.AddModel(triangle)

	var nodes []common.NodeHandle
	for i := 0; i < 200; i++ {
		tr := common.IdentityTransform
		tr.Position = [3]float32{float32(i), 0, 0}
		n, err := s.AddNode(m, tr)
		require.NoError(t, err)
		nodes = append(nodes, n)
	}

	snap := s.Snapshot()
	require.Equal(t, 200, snap.Len())
	for i, e := range snap.Entities {
		assert.Equal(t, nodes[i], e.Node)
		assert.Equal(t, float32(i), e.World[12], "entity %d world translation", i)
	}

	// Walking the same snapshot again sees the same sequence.
	var again []common.NodeHandle
	for _, e := range snap.Entities {
		again = append(again, e.Node)
	}
	assert.Equal(t, nodes, again)
}

func TestSnapshotSkipsHiddenNodes(t *testing.T) {
	s := NewScene("test")
	m := s.AddModel(triangle)
	a, err := s.AddNode(m, common.IdentityTransform)
	require.NoError(t, err)
	b, err := s.AddNode(m, common.IdentityTransform)
	require.NoError(t, err)

	require.NoError(t, s.SetVisible(a, false))
	snap := s.Snapshot()
	require.Equal(t, 1, snap.Len())
	assert.Equal(t, b, snap.Entities[0].Node)
	assert.Equal(t, 2, s.Count())
}

func TestVersionsChangeOnlyWithData(t *testing.T) {
	s := NewScene("test")
	m := s.AddModel(triangle)
	n, err := s.AddNode(m, common.IdentityTransform)
	require.NoError(t, err)
	mat := s.AddMaterial(Material{Pipeline: 1, BaseColor: common.White})
	require.NoError(t, s.SetNodeMaterial(n, mat))

	first := s.Snapshot().Entities[0]
	second := s.Snapshot().Entities[0]
	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, first.Material.Version, second.Material.Version)

	tr := common.IdentityTransform
	tr.Position[1] = 2
	require.NoError(t, s.SetTransform(n, tr))
	third := s.Snapshot().Entities[0]
	assert.NotEqual(t, second.Version, third.Version)
	assert.Equal(t, second.Material.Version, third.Material.Version)

	require.NoError(t, s.SetMaterialColor(mat, common.Color{R: 1, A: 1}))
	fourth := s.Snapshot().Entities[0]
	assert.NotEqual(t, third.Material.Version, fourth.Material.Version)
	assert.Equal(t, common.Color{R: 1, A: 1}, fourth.Material.Color)
}

func TestFallbackMaterialAndDefaultCamera(t *testing.T) {
	s := NewScene("test")
	m := s.AddModel(nil)
	_, err := s.AddNode(m, common.IdentityTransform)
	require.NoError(t, err)

	snap := s.Snapshot()
	e := snap.Entities[0]
	assert.False(t, e.Material.Present)
	assert.Equal(t, common.PipelineID(0), e.Material.Pipeline)
	assert.Equal(t, common.White, e.Material.Color)
	assert.Nil(t, e.Primitive)

	assert.False(t, snap.Camera.Present)
	assert.Equal(t, DefaultCamera, snap.Camera.Camera)

	cam := s.AddCamera(Camera{Eye: [3]float32{0, 0, 3}, Up: [3]float32{0, 1, 0}, FovY: 1, Near: 0.1, Far: 10})
	snap = s.Snapshot()
	assert.True(t, snap.Camera.Present)
	assert.Equal(t, cam, snap.Camera.Handle)
}

func TestUnknownHandlesError(t *testing.T) {
	s := NewScene("test")
	_, err := s.AddNode(99, common.IdentityTransform)
	assert.Error(t, err)
	assert.Error(t, s.SetTransform(1, common.IdentityTransform))
	assert.Error(t, s.SetMaterialColor(1, common.White))
	assert.Error(t, s.SetActiveCamera(1))
	assert.Error(t, s.SetPrimitive(1, triangle))
}

func TestResetStartsNewGeneration(t *testing.T) {
	s := NewScene("test")
	m := s.AddModel(triangle)
	_, err := s.AddNode(m, common.IdentityTransform)
	require.NoError(t, err)
	gen := s.Generation()

	s.Reset()
	assert.Equal(t, gen+1, s.Generation())
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, gen+1, s.Snapshot().Generation)
}

func TestPrimitiveCounts(t *testing.T) {
	var none *Primitive
	assert.False(t, none.Indexed())
	assert.Equal(t, uint32(0), none.VertexCount())

	quad := &Primitive{Vertices: make([]Vertex, 4), Indices: []uint32{0, 1, 2, 2, 3, 0}}
	assert.True(t, quad.Indexed())
	assert.Equal(t, uint32(4), quad.VertexCount())
	assert.Equal(t, uint32(6), quad.IndexCount())
	assert.False(t, triangle.Indexed())
}
