package orientation

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/tilt_node/internal/odometry"
)

// ErrDegenerateQuaternion is returned for orientations that do not describe
// any rotation: zero length, or with NaN/Inf components.
var ErrDegenerateQuaternion = errors.New("degenerate orientation quaternion")

// EulerAngles is a roll/pitch/yaw decomposition in radians, using the fixed
// axis X-Y-Z convention (R = Rz(yaw) * Ry(pitch) * Rx(roll)).
type EulerAngles struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// Source is anything that can provide odometry updates over time.
type Source interface {
	Next() (odometry.Update, error)
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * (180.0 / math.Pi)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

// rotation turns q into a unit rotation. Non-unit quaternions are scaled to
// unit length, which matches how a rotation matrix is usually built from them.
func rotation(q odometry.Quaternion) (r3.Rotation, error) {
	n := quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
	if quat.IsNaN(n) || quat.IsInf(n) {
		return r3.Rotation{}, ErrDegenerateQuaternion
	}
	norm := quat.Abs(n)
	if norm == 0 || math.IsInf(norm, 0) {
		return r3.Rotation{}, ErrDegenerateQuaternion
	}
	// subnormal lengths overflow the reciprocal
	inv := 1 / norm
	if math.IsInf(inv, 0) {
		return r3.Rotation{}, ErrDegenerateQuaternion
	}
	unit := quat.Scale(inv, n)
	if quat.IsNaN(unit) || quat.IsInf(unit) {
		return r3.Rotation{}, ErrDegenerateQuaternion
	}
	return r3.Rotation(unit), nil
}

// FromQuaternion decomposes q into roll, pitch and yaw.
//
// At gimbal lock (pitch = ±90°) roll and yaw are not separable; yaw is then
// reported as 0 and the whole remaining rotation is attributed to roll.
func FromQuaternion(q odometry.Quaternion) (EulerAngles, error) {
	r, err := rotation(q)
	if err != nil {
		return EulerAngles{}, err
	}

	// Columns of the rotation matrix.
	c0 := r.Rotate(r3.Vec{X: 1})
	c1 := r.Rotate(r3.Vec{Y: 1})
	c2 := r.Rotate(r3.Vec{Z: 1})

	var e EulerAngles
	r20 := c0.Z
	switch {
	case r20 <= -1:
		e.Pitch = math.Pi / 2
		e.Roll = math.Atan2(c1.X, c1.Y)
	case r20 >= 1:
		e.Pitch = -math.Pi / 2
		e.Roll = math.Atan2(-c1.X, c1.Y)
	default:
		e.Pitch = -math.Asin(r20)
		e.Roll = math.Atan2(c1.Z, c2.Z)
		e.Yaw = math.Atan2(c0.Y, c0.X)
	}
	return e, nil
}

// ToQuaternion is the inverse of FromQuaternion.
func ToQuaternion(e EulerAngles) odometry.Quaternion {
	qx := quat.Number(r3.NewRotation(e.Roll, r3.Vec{X: 1}))
	qy := quat.Number(r3.NewRotation(e.Pitch, r3.Vec{Y: 1}))
	qz := quat.Number(r3.NewRotation(e.Yaw, r3.Vec{Z: 1}))

	q := quat.Mul(qz, quat.Mul(qy, qx))
	return odometry.Quaternion{X: q.Imag, Y: q.Jmag, Z: q.Kmag, W: q.Real}
}

// PitchDegrees returns the pitch of q in degrees.
func PitchDegrees(q odometry.Quaternion) (float64, error) {
	e, err := FromQuaternion(q)
	if err != nil {
		return 0, err
	}
	deg := Degrees(e.Pitch)
	if deg == 0 {
		// drop the sign of -0
		deg = 0
	}
	return deg, nil
}
