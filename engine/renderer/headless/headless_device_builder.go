package headless

import (
	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

// DeviceBuilderOption is a functional option for configuring a headless Device.
type DeviceBuilderOption func(*Device)

// WithAutoComplete makes every submission complete as soon as it is queued.
//
// Parameters:
//   - enabled: true to complete submissions immediately
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithAutoComplete(enabled bool) DeviceBuilderOption {
	return func(d *Device) {
		d.autoComplete = enabled
	}
}

// WithCapabilities sets the surface capabilities reported by the device.
//
// Parameters:
//   - caps: the surface capabilities
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithCapabilities(caps gpu.SurfaceCapabilities) DeviceBuilderOption {
	return func(d *Device) {
		d.caps = caps
	}
}

// WithImageCountRange narrows the surface image count limits.
//
// Parameters:
//   - minCount: minimum image count
//   - maxCount: maximum image count, 0 for unbounded
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithImageCountRange(minCount, maxCount int) DeviceBuilderOption {
	return func(d *Device) {
		d.caps.MinImageCount = minCount
		d.caps.MaxImageCount = maxCount
	}
}

// WithExtentRange sets the surface's minimum and maximum extents.
//
// Parameters:
//   - minExtent: smallest allowed extent
//   - maxExtent: largest allowed extent
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithExtentRange(minExtent, maxExtent common.Extent2D) DeviceBuilderOption {
	return func(d *Device) {
		d.caps.MinExtent = minExtent
		d.caps.MaxExtent = maxExtent
	}
}

// WithTransform sets the surface's current transform.
//
// Parameters:
//   - t: the presentation transform
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithTransform(t common.SurfaceTransform) DeviceBuilderOption {
	return func(d *Device) {
		d.caps.CurrentTransform = t
	}
}
