package resource_cache

import "github.com/Carmen-Shannon/oxy-pacer/common"

// ResourceKeyBuilderOption adds an entity handle to a ResourceKey during construction.
type ResourceKeyBuilderOption func(*ResourceKey)

// WithNode adds a node handle to the key.
//
// Parameters:
//   - node: the node handle
//
// Returns:
//   - ResourceKeyBuilderOption: a function that sets the node component
func WithNode(node common.NodeHandle) ResourceKeyBuilderOption {
	return func(k *ResourceKey) {
		k.node = node
		k.hasNode = true
	}
}

// WithMaterial adds a material handle to the key.
//
// Parameters:
//   - material: the material handle
//
// Returns:
//   - ResourceKeyBuilderOption: a function that sets the material component
func WithMaterial(material common.MaterialHandle) ResourceKeyBuilderOption {
	return func(k *ResourceKey) {
		k.material = material
		k.hasMaterial = true
	}
}

// WithCamera adds a camera handle to the key.
//
// Parameters:
//   - camera: the camera handle
//
// Returns:
//   - ResourceKeyBuilderOption: a function that sets the camera component
func WithCamera(camera common.CameraHandle) ResourceKeyBuilderOption {
	return func(k *ResourceKey) {
		k.camera = camera
		k.hasCamera = true
	}
}

// WithModel adds a model handle to the key.
//
// Parameters:
//   - model: the model handle
//
// Returns:
//   - ResourceKeyBuilderOption: a function that sets the model component
func WithModel(model common.ModelHandle) ResourceKeyBuilderOption {
	return func(k *ResourceKey) {
		k.model = model
		k.hasModel = true
	}
}
