package pipeline

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-pacer/common"
)

// WGSL definitions of the structs below, registered with the shader pre-processor under the keys used in
// @oxy: annotations.
var (
	//go:embed assets/vertex.wgsl
	GPUVertexSource string
	//go:embed assets/camera.wgsl
	GPUCameraUniformSource string
	//go:embed assets/model.wgsl
	GPUModelUniformSource string
	//go:embed assets/material.wgsl
	GPUMaterialUniformSource string
)

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Size: 24 bytes (position + normal, no padding).
type GPUVertex struct {
	Position [3]float32 // offset  0: model-space position (12 bytes)
	Normal   [3]float32 // offset 12: model-space normal (12 bytes)
}

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Size: 144 bytes.
type GPUCameraUniform struct {
	View       common.Mat4 // offset   0
	Projection common.Mat4 // offset  64
	Position   [4]float32  // offset 128: world-space camera position, w unused
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf[0:], g.View[:])
	putFloats(buf[64:], g.Projection[:])
	putFloats(buf[128:], g.Position[:])
	return buf
}

// GPUModelUniform is the GPU-aligned representation of the per-node model uniform.
// Size: 64 bytes.
type GPUModelUniform struct {
	Model common.Mat4
}

func (g *GPUModelUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *GPUModelUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, g.Model[:])
	return buf
}

// GPUMaterialUniform is the GPU-aligned representation of the material uniform.
// Size: 16 bytes.
type GPUMaterialUniform struct {
	BaseColor [4]float32
}

func (g *GPUMaterialUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *GPUMaterialUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, g.BaseColor[:])
	return buf
}

func putFloats(buf []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
