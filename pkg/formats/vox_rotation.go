package formats

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/voxkit/pkg/math"
)

// Rotation is a signed axis permutation decoded from a packed _r value.
// Rows[i] is row i of the rotation matrix and has exactly one non-zero
// component of +1 or -1.
type Rotation struct {
	Rows [3]math.Vec3i
}

// DecodeRotation decodes a packed rotation byte.
//
//	bits 0-1: column of the non-zero entry in row 0
//	bits 2-3: column of the non-zero entry in row 1
//	bit 4:    sign of row 0 (1 = negative)
//	bit 5:    sign of row 1
//	bit 6:    sign of row 2
//
// Row 2 takes the remaining column. Column pairs that do not form a
// permutation (equal columns or column 3) fall back to the identity
// permutation with the encoded signs, so 0 decodes to the identity.
func DecodeRotation(packed int) Rotation {
	c0 := packed & 3
	c1 := (packed >> 2) & 3
	if c0 == 3 || c1 == 3 || c0 == c1 {
		c0, c1 = 0, 1
	}
	c2 := 3 - c0 - c1

	var r Rotation
	for row, col := range [3]int{c0, c1, c2} {
		sign := 1
		if packed&(1<<(4+row)) != 0 {
			sign = -1
		}
		r.Rows[row] = axisVector(col, sign)
	}
	return r
}

func axisVector(axis, sign int) math.Vec3i {
	switch axis {
	case 0:
		return math.Vec3i{X: sign}
	case 1:
		return math.Vec3i{Y: sign}
	default:
		return math.Vec3i{Z: sign}
	}
}

// Packed returns the canonical 7-bit encoding of r. ok is false when a row
// is not a signed unit axis or the rows do not form a permutation.
func (r Rotation) Packed() (packed int, ok bool) {
	var cols [3]int
	for row, v := range r.Rows {
		col, sign := -1, 0
		for axis := 0; axis < 3; axis++ {
			c := v.Axis(axis)
			if c == 0 {
				continue
			}
			if col >= 0 || (c != 1 && c != -1) {
				return 0, false
			}
			col, sign = axis, c
		}
		if col < 0 {
			return 0, false
		}
		cols[row] = col
		if sign < 0 {
			packed |= 1 << (4 + row)
		}
	}
	if cols[0] == cols[1] || cols[0] == cols[2] || cols[1] == cols[2] {
		return 0, false
	}
	return packed | cols[0] | cols[1]<<2, true
}

// rotationQuats holds Quat for every 7-bit encoding.
var rotationQuats = func() (t [128]math.Quat) {
	for i := range t {
		t[i] = DecodeRotation(i).quat()
	}
	return t
}()

// Quat returns the orientation applied to a model placed with this rotation.
//
// A look rotation is built with forward = row 2 and up = row 1. Its Euler
// angles are snapped to multiples of 90 degrees and recombined with the Y
// and Z angles exchanged, converting the Z-up file convention to Y-up.
// Components are snapped to the exact values reachable by such rotations so
// equal inputs yield bit-identical results.
func (r Rotation) Quat() math.Quat {
	if p, ok := r.Packed(); ok {
		return rotationQuats[p]
	}
	return r.quat()
}

func (r Rotation) quat() math.Quat {
	look := lookRotation(r.Rows[2].Vec3(), r.Rows[1].Vec3())
	x, y, z := look.Euler()
	q := math.QuatFromEuler(snapAngle(x), snapAngle(z), snapAngle(y))
	return canonicalQuat(q)
}

// lookRotation returns the rotation whose local Z axis is forward and
// local Y axis is up.
func lookRotation(forward, up math.Vec3) math.Quat {
	f := mgl32.Vec3{forward.X, forward.Y, forward.Z}
	u := mgl32.Vec3{up.X, up.Y, up.Z}
	m := mgl32.Mat3FromCols(u.Cross(f), u, f)
	q := mgl32.Mat4ToQuat(m.Mat4())
	return math.Quat{X: q.V[0], Y: q.V[1], Z: q.V[2], W: q.W}
}

// snapAngle rounds degrees to the nearest multiple of 90 in [0, 360).
func snapAngle(deg float32) float32 {
	a := math32.Round(deg/90) * 90
	a = math32.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

var quatSteps = [...]float32{0, 0.5, 0.70710677, 1}

func snapComponent(v float32) float32 {
	abs := math32.Abs(v)
	best := quatSteps[0]
	for _, s := range quatSteps[1:] {
		if math32.Abs(abs-s) < math32.Abs(abs-best) {
			best = s
		}
	}
	if math32.Abs(abs-best) > 1e-3 {
		return v
	}
	if v < 0 {
		return -best
	}
	return best
}

// canonicalQuat snaps components and picks the representative with W > 0,
// or the first non-zero vector component positive when W is zero.
func canonicalQuat(q math.Quat) math.Quat {
	q = math.Quat{X: snapComponent(q.X), Y: snapComponent(q.Y), Z: snapComponent(q.Z), W: snapComponent(q.W)}
	neg := q.W < 0
	if q.W == 0 {
		for _, c := range [3]float32{q.X, q.Y, q.Z} {
			if c != 0 {
				neg = c < 0
				break
			}
		}
	}
	if neg {
		q = math.Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
	}
	// -0 and 0 must compare bit-identical
	return math.Quat{X: q.X + 0, Y: q.Y + 0, Z: q.Z + 0, W: q.W + 0}
}
