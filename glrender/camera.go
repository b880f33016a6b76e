package glrender

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// LookAt returns a right-handed view matrix for a camera at eye looking at center.
func LookAt(eye, center, up ms3.Vec) ms3.Mat4 {
	f := ms3.Unit(ms3.Sub(center, eye))
	s := ms3.Unit(ms3.Cross(f, up))
	u := ms3.Cross(s, f)
	return ms3.NewMat4([]float32{
		s.X, s.Y, s.Z, -ms3.Dot(s, eye),
		u.X, u.Y, u.Z, -ms3.Dot(u, eye),
		-f.X, -f.Y, -f.Z, ms3.Dot(f, eye),
		0, 0, 0, 1,
	})
}

// Perspective returns an OpenGL perspective projection matrix mapping the
// view frustum to clip space with depth in -1..1. fovy is in radians.
func Perspective(fovy, aspect, near, far float32) ms3.Mat4 {
	t := math32.Tan(fovy / 2)
	return ms3.NewMat4([]float32{
		1 / (aspect * t), 0, 0, 0,
		0, 1 / t, 0, 0,
		0, 0, -(far + near) / (far - near), -2 * far * near / (far - near),
		0, 0, -1, 0,
	})
}

// ModelMatrix returns the model matrix of a preview mesh rotated by yaw about
// +Y and then pitch about +X.
func ModelMatrix(yaw, pitch float32) ms3.Mat4 {
	return ms3.MulMat4(ms3.RotationMat4(yaw, ms3.Vec{Y: 1}), ms3.RotationMat4(pitch, ms3.Vec{X: 1}))
}
