package formats

import "github.com/Faultbox/voxkit/pkg/math"

// Voxel is a cell of a Volume. Air is the only voxel of kind KindAir.
type Voxel struct {
	ID   byte
	Kind MaterialKind
}

// Air is the empty voxel.
var Air = Voxel{ID: 0, Kind: KindAir}

// IsAir reports whether v is empty.
func (v Voxel) IsAir() bool {
	return v.Kind == KindAir
}

// Volume is a dense 3D grid of voxels, indexed x + X*(y + Y*z).
type Volume struct {
	Size  math.Vec3i
	Cells []Voxel
}

// NewVolume returns a volume of the given size filled with Air.
func NewVolume(size math.Vec3i) *Volume {
	cells := make([]Voxel, size.Volume())
	for i := range cells {
		cells[i] = Air
	}
	return &Volume{Size: size, Cells: cells}
}

// InBounds reports whether (x, y, z) is inside the volume.
func (v *Volume) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < v.Size.X && y < v.Size.Y && z < v.Size.Z
}

// At returns the voxel at (x, y, z), or Air outside the volume.
func (v *Volume) At(x, y, z int) Voxel {
	if !v.InBounds(x, y, z) {
		return Air
	}
	return v.Cells[x+v.Size.X*(y+v.Size.Y*z)]
}

// AtVec returns the voxel at p.
func (v *Volume) AtVec(p math.Vec3i) Voxel {
	return v.At(p.X, p.Y, p.Z)
}

// Set stores vox at (x, y, z). Out-of-bounds writes are ignored.
func (v *Volume) Set(x, y, z int, vox Voxel) {
	if v.InBounds(x, y, z) {
		v.Cells[x+v.Size.X*(y+v.Size.Y*z)] = vox
	}
}

// Len returns the number of cells.
func (v *Volume) Len() int {
	return len(v.Cells)
}

// Solid returns the number of non-air voxels.
func (v *Volume) Solid() int {
	n := 0
	for _, c := range v.Cells {
		if !c.IsAir() {
			n++
		}
	}
	return n
}
