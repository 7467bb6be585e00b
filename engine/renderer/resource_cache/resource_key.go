// Package resource_cache memoizes per-entity GPU resources for one frame slot.
//
// Entries are created on first reference and live until the owning slot is cleared or released; nothing is evicted.
// A cache belongs to exactly one frame slot and is only touched from that slot's update and draw passes, so it does
// no locking.
package resource_cache

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-pacer/common"
)

// ResourceKey identifies one GPU resource a frame slot needs for an entity. It is comparable and used directly as a
// map key; two keys are equal only when the same handles are present with the same values.
//
// A handle that is absent is distinct from a handle with value 0, so a key carrying only node 3 never equals a key
// carrying only material 3.
type ResourceKey struct {
	pipeline common.PipelineID
	group    int

	node     common.NodeHandle
	material common.MaterialHandle
	camera   common.CameraHandle
	model    common.ModelHandle

	hasNode     bool
	hasMaterial bool
	hasCamera   bool
	hasModel    bool
}

// NewResourceKey builds a key for a pipeline and a group within it.
//
// Parameters:
//   - pipeline: the owning pipeline's id
//   - group: the bind group index, or a geometry stream index for vertex and index data
//   - options: the entity handles the resource depends on
//
// Returns:
//   - ResourceKey: the key
func NewResourceKey(pipeline common.PipelineID, group int, options ...ResourceKeyBuilderOption) ResourceKey {
	k := ResourceKey{pipeline: pipeline, group: group}
	for _, opt := range options {
		opt(&k)
	}
	return k
}

func (k ResourceKey) Pipeline() common.PipelineID {
	return k.pipeline
}

func (k ResourceKey) Group() int {
	return k.group
}

// Node returns the node handle and whether the key carries one.
func (k ResourceKey) Node() (common.NodeHandle, bool) {
	return k.node, k.hasNode
}

// Material returns the material handle and whether the key carries one.
func (k ResourceKey) Material() (common.MaterialHandle, bool) {
	return k.material, k.hasMaterial
}

// Camera returns the camera handle and whether the key carries one.
func (k ResourceKey) Camera() (common.CameraHandle, bool) {
	return k.camera, k.hasCamera
}

// Model returns the model handle and whether the key carries one.
func (k ResourceKey) Model() (common.ModelHandle, bool) {
	return k.model, k.hasModel
}

func (k ResourceKey) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "p%d/g%d", k.pipeline, k.group)
	if k.hasNode {
		fmt.Fprintf(&sb, "/node:%d", k.node)
	}
	if k.hasMaterial {
		fmt.Fprintf(&sb, "/material:%d", k.material)
	}
	if k.hasCamera {
		fmt.Fprintf(&sb, "/camera:%d", k.camera)
	}
	if k.hasModel {
		fmt.Fprintf(&sb, "/model:%d", k.model)
	}
	return sb.String()
}
