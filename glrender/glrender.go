// Package glrender renders shader graph previews. It provides the CPU-side
// preview geometry and camera matrices, swatch images of evaluated colors and,
// in cgo builds, the OpenGL resources that draw the preview meshes with a
// generated program.
package glrender

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Preview camera defaults.
const (
	DefaultFovY  = 45 * math32.Pi / 180
	DefaultNear  = 0.1
	DefaultFar   = 100
	DefaultWidth = 800
	// DefaultHeight gives the 4:3 preview aspect ratio.
	DefaultHeight = 600
)

// DefaultEye is the preview camera position. The camera looks at the origin with +Y up.
var DefaultEye = ms3.Vec{X: 3, Y: 3, Z: 3}

var (
	// ErrNoGPU is returned by GPU functionality in builds without cgo.
	ErrNoGPU = errors.New("GPU rendering requires cgo and is not supported on TinyGo")
	// ErrBadSize is returned when a render target has non-positive dimensions.
	ErrBadSize = errors.New("render target dimensions must be positive")
)

// Camera holds the view and projection matrices used to draw both preview meshes.
type Camera struct {
	Eye        ms3.Vec
	View       ms3.Mat4
	Projection ms3.Mat4
}

// DefaultCamera returns the preview camera for a render target of the given size.
func DefaultCamera(width, height int) (Camera, error) {
	if width <= 0 || height <= 0 {
		return Camera{}, ErrBadSize
	}
	aspect := float32(width) / float32(height)
	return Camera{
		Eye:        DefaultEye,
		View:       LookAt(DefaultEye, ms3.Vec{}, ms3.Vec{Y: 1}),
		Projection: Perspective(DefaultFovY, aspect, DefaultNear, DefaultFar),
	}, nil
}
