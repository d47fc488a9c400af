package utils

import (
	"github.com/go-gl/mathgl/mgl32"
)

var (
	axisX = mgl32.Vec3{1, 0, 0}
	axisY = mgl32.Vec3{0, 1, 0}
	axisZ = mgl32.Vec3{0, 0, 1}
)

// EulerToQuat composes per-axis rotations (radians) as Z * Y * X,
// so X is applied first.
func EulerToQuat(e mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(e[0], axisX)
	qy := mgl32.QuatRotate(e[1], axisY)
	qz := mgl32.QuatRotate(e[2], axisZ)
	return qz.Mul(qy).Mul(qx).Normalize()
}
