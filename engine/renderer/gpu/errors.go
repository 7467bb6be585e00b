package gpu

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceLost means the device is unusable. Not locally recoverable; the application decides what to do.
	ErrDeviceLost = errors.New("gpu: device lost")

	// ErrOutOfMemory means a host or device allocation failed.
	ErrOutOfMemory = errors.New("gpu: out of memory")

	// ErrSurfaceOutOfDate means the surface no longer matches the window and must be recreated before it can be used.
	ErrSurfaceOutOfDate = errors.New("gpu: surface out of date")

	// ErrSurfaceSuboptimal means the surface still works but no longer matches the window exactly.
	ErrSurfaceSuboptimal = errors.New("gpu: surface suboptimal")

	// ErrRecreateNeeded is returned by the presenter when the caller should handle a resize and retry the frame.
	ErrRecreateNeeded = errors.New("gpu: surface recreation needed")
)

// IsSurfaceInvalid reports whether err means the surface must be recreated.
//
// Parameters:
//   - err: the error to classify
//
// Returns:
//   - bool: true for out-of-date, suboptimal and recreate-needed errors
func IsSurfaceInvalid(err error) bool {
	return errors.Is(err, ErrSurfaceOutOfDate) || errors.Is(err, ErrSurfaceSuboptimal) || errors.Is(err, ErrRecreateNeeded)
}

// IsFatal reports whether err is a fatal-allocation class error.
//
// Parameters:
//   - err: the error to classify
//
// Returns:
//   - bool: true for device-lost and out-of-memory errors
func IsFatal(err error) bool {
	return errors.Is(err, ErrDeviceLost) || errors.Is(err, ErrOutOfMemory)
}

// Assert panics with a formatted message when cond is false. Used for engine-loop integration errors
// that indicate a logic bug rather than a runtime condition.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("renderer invariant violated: "+format, args...))
	}
}
