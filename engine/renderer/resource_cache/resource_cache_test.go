package resource_cache

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testUniform struct {
	Matrix common.Mat4
	Tint   [4]float32
}

var testLayout = gpu.LayoutSpec{
	Label:    "test",
	Bindings: []gpu.BindingSpec{{Binding: 0, Size: common.SizeOf[testUniform]()}},
}

func TestResourceKeyAbsentHandleDiffersFromZero(t *testing.T) {
	nodeOnly := NewResourceKey(1, 0, WithNode(3))
	materialOnly := NewResourceKey(1, 0, WithMaterial(3))
	bare := NewResourceKey(1, 0)
	nodeZero := NewResourceKey(1, 0, WithNode(0))

	assert.NotEqual(t, nodeOnly, materialOnly)
	assert.NotEqual(t, bare, nodeZero)

	m := map[ResourceKey]int{nodeOnly: 1, materialOnly: 2, bare: 3, nodeZero: 4}
	assert.Len(t, m, 4)
}

func TestResourceKeyEquality(t *testing.T) {
	a := NewResourceKey(2, 1, WithNode(7), WithCamera(1))
	b := NewResourceKey(2, 1, WithCamera(1), WithNode(7))
	assert.Equal(t, a, b)
	assert.True(t, a == b)

	node, ok := a.Node()
	assert.True(t, ok)
	assert.Equal(t, common.NodeHandle(7), node)
	_, ok = a.Material()
	assert.False(t, ok)
	assert.Equal(t, "p2/g1/node:7/camera:1", a.String())
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	d := headless.NewDevice()
	c := NewBufferCache(d, "test")
	key := NewResourceKey(0, 1, WithNode(1))

	first, err := GetOrCreate[testUniform](c, key)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := GetOrCreate[testUniform](c, key)
		require.NoError(t, err)
		assert.Equal(t, first.(*headless.Buffer).ID(), again.(*headless.Buffer).ID())
	}

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Allocations())
	assert.Equal(t, 1, d.Stats().BuffersCreated)
	assert.Equal(t, common.SizeOf[testUniform](), first.Size())
}

func TestGetOrCreateHitLeavesContents(t *testing.T) {
	d := headless.NewDevice()
	c := NewBufferCache(d, "test")
	key := NewResourceKey(0, 2, WithMaterial(4))

	buf, err := Upload(c, key, testUniform{Tint: [4]float32{1, 0.5, 0.25, 1}})
	require.NoError(t, err)
	before := buf.(*headless.Buffer).Data()

	again, err := GetOrCreate[testUniform](c, key)
	require.NoError(t, err)
	assert.Equal(t, before, again.(*headless.Buffer).Data())
	assert.Equal(t, 1, again.(*headless.Buffer).Writes())
}

func TestUploadSliceReallocatesOnSizeChange(t *testing.T) {
	d := headless.NewDevice()
	c := NewBufferCache(d, "test")
	key := NewResourceKey(0, 3, WithModel(2))

	first, err := UploadSlice(c, key, gpu.BufferUsageVertex, []float32{1, 2, 3})
	require.NoError(t, err)
	same, err := UploadSlice(c, key, gpu.BufferUsageVertex, []float32{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, first.(*headless.Buffer).ID(), same.(*headless.Buffer).ID())

	grown, err := UploadSlice(c, key, gpu.BufferUsageVertex, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	assert.NotEqual(t, first.(*headless.Buffer).ID(), grown.(*headless.Buffer).ID())
	assert.Equal(t, uint64(16), grown.Size())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.Allocations())

	_, err = UploadSlice[float32](c, key, gpu.BufferUsageVertex, nil)
	assert.Error(t, err)
}

func TestMustGetPanicsOnMiss(t *testing.T) {
	c := NewBufferCache(headless.NewDevice(), "test")
	assert.Panics(t, func() { c.MustGet(NewResourceKey(0, 0, WithNode(1))) })
}

func TestAllocationFailureIsTyped(t *testing.T) {
	d := headless.NewDevice()
	d.Lose()
	c := NewBufferCache(d, "test")

	_, err := GetOrCreate[testUniform](c, NewResourceKey(0, 0))
	assert.ErrorIs(t, err, gpu.ErrDeviceLost)
	assert.Equal(t, 0, c.Len())

	dc := NewDescriptorCache(d, "test")
	_, _, err = dc.GetOrCreateDescriptor(NewResourceKey(0, 0), testLayout)
	assert.ErrorIs(t, err, gpu.ErrDeviceLost)
}

func TestGetOrCreateDescriptorReportsCreation(t *testing.T) {
	d := headless.NewDevice()
	s := NewSet(d, 0)
	key := NewResourceKey(0, 1, WithNode(9))

	p, created, err := s.Descriptors.GetOrCreateDescriptor(key, testLayout)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, p.Complete())

	buf, err := GetOrCreate[testUniform](s.Buffers, key)
	require.NoError(t, err)
	require.NoError(t, p.Bind(0, buf))
	assert.True(t, p.Complete())

	again, created, err := s.Descriptors.GetOrCreateDescriptor(key, testLayout)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, p, again)
	assert.Equal(t, 1, d.Stats().DescriptorSets)
	assert.Equal(t, 1, d.Stats().DescriptorWrites)
	assert.Equal(t, 2, s.Len())
}

func TestBindRejectsBindingOutsideLayout(t *testing.T) {
	d := headless.NewDevice()
	dc := NewDescriptorCache(d, "test")
	bc := NewBufferCache(d, "test")
	key := NewResourceKey(0, 0)

	p, _, err := dc.GetOrCreateDescriptor(key, testLayout)
	require.NoError(t, err)
	buf, err := GetOrCreate[testUniform](bc, key)
	require.NoError(t, err)

	assert.Error(t, p.Bind(5, buf))
	assert.Error(t, p.Bind(0, nil))
	assert.Equal(t, 0, p.Writes())
}

func TestSetClearDropsEverything(t *testing.T) {
	d := headless.NewDevice()
	s := NewSet(d, 1)
	key := NewResourceKey(0, 1, WithNode(1))

	_, err := GetOrCreate[testUniform](s.Buffers, key)
	require.NoError(t, err)
	_, _, err = s.Descriptors.GetOrCreateDescriptor(key, testLayout)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())

	_, created, err := s.Descriptors.GetOrCreateDescriptor(key, testLayout)
	require.NoError(t, err)
	assert.True(t, created)
}
