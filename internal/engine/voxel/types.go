// Package voxel builds surface meshes from voxel volumes.
package voxel

import (
	"github.com/elliotchance/orderedmap/v2"

	"github.com/Faultbox/voxkit/pkg/formats"
	"github.com/Faultbox/voxkit/pkg/math"
)

// MaterialKey identifies a submesh bucket. DiffuseKey is shared by every
// diffuse voxel; any other voxel gets the key of its own id.
type MaterialKey int

// DiffuseKey is the bucket of all diffuse voxels.
const DiffuseKey MaterialKey = 0

// KeyFor returns the bucket key of a voxel.
func KeyFor(v formats.Voxel) MaterialKey {
	if v.Kind == formats.KindDiffuse {
		return DiffuseKey
	}
	return MaterialKey(int(v.ID) + 1)
}

// VoxelID returns the voxel id owning the bucket. ok is false for DiffuseKey.
func (k MaterialKey) VoxelID() (id byte, ok bool) {
	if k == DiffuseKey {
		return 0, false
	}
	return byte(k - 1), true
}

// IndexFormat is the smallest index width able to address a mesh.
type IndexFormat int

const (
	IndexUint16 IndexFormat = iota
	IndexUint32
)

func (f IndexFormat) String() string {
	if f == IndexUint32 {
		return "uint32"
	}
	return "uint16"
}

// MeshData is the output of the mesher. Vertices, Normals and UVs are
// parallel arrays; Submeshes maps each material bucket to its triangle
// indices in first-use order, with DiffuseKey always first.
type MeshData struct {
	Vertices  []math.Vec3
	Normals   []math.Vec3
	UVs       []math.Vec2
	Submeshes *orderedmap.OrderedMap[MaterialKey, []uint32]
}

func newMeshData() *MeshData {
	m := &MeshData{Submeshes: orderedmap.NewOrderedMap[MaterialKey, []uint32]()}
	m.Submeshes.Set(DiffuseKey, nil)
	return m
}

// MaterialIDs returns the bucket keys in submesh order.
func (m *MeshData) MaterialIDs() []MaterialKey {
	return m.Submeshes.Keys()
}

// Triangles returns the triangle indices of a bucket.
func (m *MeshData) Triangles(key MaterialKey) []uint32 {
	tris, _ := m.Submeshes.Get(key)
	return tris
}

// QuadCount returns the number of emitted quads.
func (m *MeshData) QuadCount() int {
	return len(m.Vertices) / 4
}

// TriangleCount returns the number of triangles over all buckets.
func (m *MeshData) TriangleCount() int {
	n := 0
	for el := m.Submeshes.Front(); el != nil; el = el.Next() {
		n += len(el.Value) / 3
	}
	return n
}

// IndexFormat returns IndexUint32 when the vertex count exceeds 65535.
func (m *MeshData) IndexFormat() IndexFormat {
	if len(m.Vertices) > 65535 {
		return IndexUint32
	}
	return IndexUint16
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Bounds returns the bounding box of all vertices, or a zero box for an
// empty mesh.
func (m *MeshData) Bounds() Bounds {
	if len(m.Vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		b.Min = math.Vec3{X: min(b.Min.X, v.X), Y: min(b.Min.Y, v.Y), Z: min(b.Min.Z, v.Z)}
		b.Max = math.Vec3{X: max(b.Max.X, v.X), Y: max(b.Max.Y, v.Y), Z: max(b.Max.Z, v.Z)}
	}
	return b
}

// BuildOptions contains options for mesh building.
type BuildOptions struct {
	// Scale is applied uniformly after rotation and offset.
	Scale float32
	// Greedy merges coplanar faces of equal voxels into larger quads.
	Greedy bool
	// Offset is added after rotation, in voxel units.
	Offset math.Vec3i
	// Rotation is applied around the volume pivot (size / 2).
	Rotation math.Quat
}

// DefaultBuildOptions returns unit scale, greedy merging and no transform.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Scale: 1, Greedy: true, Rotation: math.QuatIdentity()}
}
