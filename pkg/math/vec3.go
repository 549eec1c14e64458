// Package math provides math types and functions for voxel geometry.
package math

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Array returns the components as an array, the layout used by vertex buffers.
func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// Vec3i is an integer 3D vector used for voxel coordinates and extents.
type Vec3i struct {
	X, Y, Z int
}

// Add returns v + other.
func (v Vec3i) Add(other Vec3i) Vec3i {
	return Vec3i{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3i) Sub(other Vec3i) Vec3i {
	return Vec3i{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Div returns v / n using integer division per component.
func (v Vec3i) Div(n int) Vec3i {
	return Vec3i{v.X / n, v.Y / n, v.Z / n}
}

// Axis returns the component for axis 0 (X), 1 (Y) or 2 (Z).
func (v Vec3i) Axis(axis int) int {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Volume returns X*Y*Z.
func (v Vec3i) Volume() int {
	return v.X * v.Y * v.Z
}

// Vec3 converts to a float vector.
func (v Vec3i) Vec3() Vec3 {
	return Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// String formats v as "XxYxZ".
func (v Vec3i) String() string {
	return fmt.Sprintf("%dx%dx%d", v.X, v.Y, v.Z)
}
