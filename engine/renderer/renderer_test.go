package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/headless"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pacer/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackendType(t *testing.T) {
	tests := []struct {
		in      string
		want    RendererBackendType
		wantErr bool
	}{
		{"wgpu", BackendTypeWGPU, false},
		{"WebGPU", BackendTypeWGPU, false},
		{"", BackendTypeWGPU, false},
		{" headless ", BackendTypeHeadless, false},
		{"vulkan", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackendType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenDevice(t *testing.T) {
	d, err := OpenDevice(BackendTypeHeadless, nil)
	require.NoError(t, err)
	assert.IsType(t, &headless.Device{}, d)

	_, err = OpenDevice(BackendTypeWGPU, nil)
	assert.Error(t, err)
}

func newTestScene(t *testing.T) scene.Scene {
	t.Helper()
	s := scene.NewScene("renderer-test", scene.WithComputeWorkers(1))
	s.AddCamera(scene.DefaultCamera)
	tri := s.AddModel(&scene.Primitive{Vertices: make([]scene.Vertex, 3)})
	mat := s.AddMaterial(scene.Material{Pipeline: common.PipelineID(pipeline.KindNormal), BaseColor: common.White})
	n, err := s.AddNode(tri, common.IdentityTransform)
	require.NoError(t, err)
	require.NoError(t, s.SetNodeMaterial(n, mat))
	return s
}

func TestRenderFrameRotatesSlots(t *testing.T) {
	d := headless.NewDevice(headless.WithAutoComplete(true))
	r, err := NewRenderer(d, common.Extent2D{Width: 320, Height: 240}, WithFramesInFlight(3))
	require.NoError(t, err)
	defer r.Release()

	assert.Equal(t, len(pipeline.Kinds), r.Pipelines().Len())
	s := newTestScene(t)
	for i := 0; i < 4; i++ {
		require.NoError(t, r.RenderFrame(s.Snapshot()))
	}
	assert.Equal(t, []int{0, 1, 2, 0}, d.Presented())
	assert.Equal(t, 4, r.Presenter().Stats().Frames)
}

func TestRenderFrameSignalsRecreation(t *testing.T) {
	d := headless.NewDevice(headless.WithAutoComplete(true))
	r, err := NewRenderer(d, common.Extent2D{Width: 320, Height: 240}, WithFramesInFlight(2))
	require.NoError(t, err)
	defer r.Release()

	s := newTestScene(t)
	d.FailNextAcquire(gpu.ErrSurfaceOutOfDate)
	err = r.RenderFrame(s.Snapshot())
	require.Error(t, err)
	assert.True(t, IsRecreateNeeded(err))

	require.NoError(t, r.HandleResize(common.Extent2D{Width: 640, Height: 480}))
	require.NoError(t, r.RenderFrame(s.Snapshot()))
	assert.Equal(t, common.Extent2D{Width: 640, Height: 480}, r.Presenter().Extent())
}

func TestReleaseIsIdempotent(t *testing.T) {
	d := headless.NewDevice(headless.WithAutoComplete(true))
	r, err := NewRenderer(d, common.Extent2D{Width: 64, Height: 64})
	require.NoError(t, err)
	r.Release()
	r.Release()
	assert.Equal(t, 1, d.Stats().WaitIdles)
}
