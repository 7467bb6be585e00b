package scene

import "github.com/Carmen-Shannon/oxy-pacer/common"

// CameraView is the camera as seen by one snapshot.
type CameraView struct {
	Handle common.CameraHandle
	// Present is false when the scene has no active camera and DefaultCamera is used.
	Present bool
	Camera  Camera
	Version uint64
}

// MaterialView is an entity's material as seen by one snapshot.
type MaterialView struct {
	Handle common.MaterialHandle
	// Present is false for the fallback material.
	Present  bool
	Pipeline common.PipelineID
	Color    common.Color
	Version  uint64
}

// FallbackMaterial is used for entities without a material: white, drawn with pipeline 0.
var FallbackMaterial = MaterialView{Pipeline: 0, Color: common.White}

// Entity is one visible node as seen by one snapshot.
type Entity struct {
	Node  common.NodeHandle
	Model common.ModelHandle

	// Primitive is the model geometry, nil for models drawn without vertex input.
	Primitive       *Primitive
	GeometryVersion uint64

	Material MaterialView

	World common.Mat4
	// Version changes whenever the node's transform changes.
	Version uint64
}

// Snapshot is an immutable view of the visible scene for one frame. Entities are ordered by node handle and the
// slice may be walked any number of times.
type Snapshot struct {
	// Generation changes when the scene is reset; caches built for an older generation must be dropped.
	Generation uint64
	Camera     CameraView
	Entities   []Entity
}

// Len returns the number of visible entities.
func (s *Snapshot) Len() int {
	return len(s.Entities)
}
