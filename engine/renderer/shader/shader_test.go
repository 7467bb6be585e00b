package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertex = `struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) uv: vec2<f32>,
};`

const testCamera = `struct CameraUniform {
    view_proj: mat4x4<f32>,
};`

func testPreProcessor() PreProcessor {
	return NewPreProcessor(
		WithStruct("vertex", "VertexInput", testVertex),
		WithStruct("camera", "CameraUniform", testCamera),
	)
}

const testShader = `//@oxy:include vertex
//@oxy:group 0 0 storage_uniform camera camera

/* @vertex fn commented_out() {} */
@vertex
fn main_vs(in: VertexInput) -> @builtin(position) vec4<f32> {
    return camera.view_proj * vec4<f32>(in.position, 1.0);
}

@fragment
fn main_fs() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}`

func TestProcessExpandsAnnotations(t *testing.T) {
	pp := testPreProcessor()
	out, err := pp.Process(testShader)
	require.NoError(t, err)

	assert.NotContains(t, out, annotationPrefix)
	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> camera: CameraUniform;")
	assert.Equal(t, 1, strings.Count(out, "struct VertexInput"))
	assert.Equal(t, 1, strings.Count(out, "struct CameraUniform"), "group annotations inject their struct once")

	decls := pp.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, AnnotationTypeBindingGroup, decls[0].Type)
	assert.Equal(t, 0, *decls[0].Group)
	assert.Equal(t, AnnotationArg("camera"), decls[0].StructType())
	assert.Equal(t, 2, decls[0].Line)
}

func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"unknown struct", "//@oxy:include light", `unknown struct type "light"`},
		{"unknown type", "//@oxy:bind 0", "unknown annotation type"},
		{"empty", "// @oxy:", "empty @oxy annotation"},
		{"bad group", "//@oxy:group x 0 storage_uniform camera camera", "invalid group number"},
		{"bad space", "//@oxy:group 0 0 private camera camera", "unknown address space"},
		{"arity", "//@oxy:group 0 0 storage_uniform camera", "requires five arguments"},
		{"duplicate", "//@oxy:group 0 0 storage_uniform a camera\n//@oxy:group 0 0 storage_uniform b camera", "already declared on line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testPreProcessor().Process(tt.source)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestPlainCommentsPassThrough(t *testing.T) {
	out, err := testPreProcessor().Process("// just a comment\nlet x = 1;")
	require.NoError(t, err)
	assert.Equal(t, "// just a comment\nlet x = 1;", out)
	assert.Empty(t, testPreProcessor().Declarations())
}

func TestNewShader(t *testing.T) {
	s, err := NewShader("test", testShader, testPreProcessor())
	require.NoError(t, err)

	assert.Equal(t, "test", s.Label())
	assert.Equal(t, "main_vs", s.VertexEntry())
	assert.Equal(t, "main_fs", s.FragmentEntry())
	assert.Equal(t, uint64(20), s.VertexStride())
	assert.Len(t, s.Declarations(), 1)
}

func TestNewShaderWithoutVertexInput(t *testing.T) {
	src := "@vertex fn vs() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }\n" +
		"@fragment fn fs() -> @location(0) vec4<f32> { return vec4<f32>(0.0); }"
	s, err := NewShader("bare", src, testPreProcessor())
	require.NoError(t, err)
	assert.Zero(t, s.VertexStride())
}

func TestNewShaderNeedsBothStages(t *testing.T) {
	_, err := NewShader("half", "@vertex fn vs() {}", testPreProcessor())
	assert.ErrorContains(t, err, "entry point")
}

func TestUnsupportedVertexAttribute(t *testing.T) {
	pp := NewPreProcessor(WithStruct("vertex", "VertexInput", "struct VertexInput {\n    @location(0) m: mat4x4<f32>,\n};"))
	src := "//@oxy:include vertex\n@vertex fn vs() {}\n@fragment fn fs() {}"
	_, err := NewShader("bad", src, pp)
	assert.ErrorContains(t, err, "unsupported vertex attribute")
}
