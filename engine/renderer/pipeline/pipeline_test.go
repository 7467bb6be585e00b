package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableIdsMatchKinds(t *testing.T) {
	table, err := NewDefaultTable(headless.NewDevice())
	require.NoError(t, err)
	require.Equal(t, len(Kinds), table.Len())

	for _, kind := range Kinds {
		p := table.Get(common.PipelineID(kind))
		assert.Equal(t, kind, p.Kind())
		assert.Equal(t, common.PipelineID(kind), p.ID())
		assert.NotNil(t, p.Handle())
	}
	assert.Equal(t, KindDefault, table.Get(0).Kind())
}

func TestGetUnknownIdPanics(t *testing.T) {
	table := NewTable()
	assert.Panics(t, func() { table.Get(0) })
}

func TestPipelineGroups(t *testing.T) {
	d := headless.NewDevice()

	tests := []struct {
		kind        Kind
		groups      []Group
		vertexInput bool
	}{
		{KindDefault, []Group{GroupCamera, GroupModel, GroupMaterial}, true},
		{KindNormal, []Group{GroupCamera, GroupModel, GroupMaterial}, true},
		{KindLine, []Group{GroupCamera, GroupModel, GroupMaterial}, true},
		{KindFullscreen, []Group{GroupMaterial}, false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			p, err := NewPipeline(d, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.groups, p.Groups())
			assert.Equal(t, tt.vertexInput, p.VertexInput())
		})
	}
}

func TestUnknownKindFails(t *testing.T) {
	_, err := NewPipeline(headless.NewDevice(), Kind(42))
	assert.Error(t, err)
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestCreationFailureReleasesTable(t *testing.T) {
	d := headless.NewDevice()
	d.Lose()
	_, err := NewDefaultTable(d)
	assert.ErrorIs(t, err, gpu.ErrDeviceLost)
}

func TestUniformLayoutSizes(t *testing.T) {
	assert.Equal(t, 144, (&GPUCameraUniform{}).Size())
	assert.Equal(t, 64, (&GPUModelUniform{}).Size())
	assert.Equal(t, 16, (&GPUMaterialUniform{}).Size())
	assert.Equal(t, uint64(24), common.SizeOf[GPUVertex]())

	assert.Equal(t, uint64(144), GroupCamera.Layout().Bindings[0].Size)
	assert.True(t, GroupMaterial.Layout().Has(0))
}

func TestMarshalLittleEndian(t *testing.T) {
	m := GPUMaterialUniform{BaseColor: [4]float32{1, 0, 0, 1}}
	buf := m.Marshal()
	require.Len(t, buf, 16)
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, buf[0:4])
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[4:8])
}
