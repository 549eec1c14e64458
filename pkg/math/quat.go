package math

import "github.com/chewxy/math32"

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	s, c := math32.Sin(angle/2), math32.Cos(angle/2)
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: c,
	}
}

// QuatFromEuler builds a rotation from Euler angles in degrees.
// Rotations are applied around Z first, then X, then Y (q = Ry * Rx * Rz).
func QuatFromEuler(x, y, z float32) Quat {
	qx := QuatFromAxisAngle(Vec3{X: 1}, x*degToRad)
	qy := QuatFromAxisAngle(Vec3{Y: 1}, y*degToRad)
	qz := QuatFromAxisAngle(Vec3{Z: 1}, z*degToRad)
	return qy.Mul(qx).Mul(qz)
}

const (
	degToRad = math32.Pi / 180
	radToDeg = 180 / math32.Pi
)

// Euler returns the Euler angles in degrees, in [0, 360), matching QuatFromEuler's
// Z-X-Y order. When X is at +/-90 degrees the Z angle is folded into Y.
func (q Quat) Euler() (x, y, z float32) {
	m := q.ToMat4()
	// m[9] is row 1, column 2 of the rotation (-sin x).
	sx := -m[9]
	if sx > 1 {
		sx = 1
	} else if sx < -1 {
		sx = -1
	}
	x = math32.Asin(sx)

	if math32.Abs(sx) < 0.9999 {
		y = math32.Atan2(m[8], m[10])
		z = math32.Atan2(m[1], m[5])
	} else {
		y = math32.Atan2(-m[2], m[0])
		z = 0
	}
	return wrapDegrees(x * radToDeg), wrapDegrees(y * radToDeg), wrapDegrees(z * radToDeg)
}

func wrapDegrees(a float32) float32 {
	a = math32.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// ToMat4 converts the quaternion to a 4x4 rotation matrix.
func (q Quat) ToMat4() Mat4 {
	// Normalize first
	q = q.Normalize()

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// Mul multiplies two quaternions (combines rotations).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// Array returns the components in X, Y, Z, W order.
func (q Quat) Array() [4]float32 {
	return [4]float32{q.X, q.Y, q.Z, q.W}
}
