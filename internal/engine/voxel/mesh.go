package voxel

import (
	"sync"

	"github.com/Faultbox/voxkit/pkg/formats"
	"github.com/Faultbox/voxkit/pkg/math"
)

// quad is a merged rectangle of visible faces in one sweep layer.
type quad struct {
	layer int // position along the swept axis
	x, y  int // start along axis1 and axis2
	w, h  int // extent along axis1 and axis2
	voxel formats.Voxel
}

// direction is one of the six sweeps: 0-2 look along +X, +Y, +Z and
// 3-5 along -X, -Y, -Z.
type direction int

func (d direction) forward() bool { return d < 3 }
func (d direction) axis() int     { return int(d) % 3 }
func (d direction) axis1() int    { return (int(d) + 1) % 3 }
func (d direction) axis2() int    { return (int(d) + 2) % 3 }

// BuildMesh builds the visible surface of vol.
//
// A face is drawn where a voxel borders air, or borders a glass voxel that
// differs from it. With opts.Greedy, adjacent faces of identical voxels in
// the same plane are merged into one quad. Vertices are transformed as
// ((Rotation * (v - pivot)) + Offset) * Scale with pivot = Size / 2.
func BuildMesh(vol *formats.Volume, opts BuildOptions) *MeshData {
	b := newBuilder(vol, opts)
	for d := direction(0); d < 6; d++ {
		b.emit(d, collectQuads(vol, d, opts.Greedy))
	}
	return b.mesh
}

// BuildMeshParallel runs the six sweeps concurrently. The result is
// identical to BuildMesh.
func BuildMeshParallel(vol *formats.Volume, opts BuildOptions) *MeshData {
	var quads [6][]quad
	var wg sync.WaitGroup
	for d := direction(0); d < 6; d++ {
		wg.Add(1)
		go func(d direction) {
			defer wg.Done()
			quads[d] = collectQuads(vol, d, opts.Greedy)
		}(d)
	}
	wg.Wait()

	b := newBuilder(vol, opts)
	for d := direction(0); d < 6; d++ {
		b.emit(d, quads[d])
	}
	return b.mesh
}

// visible reports whether cur shows a face towards next.
func visible(cur, next formats.Voxel) bool {
	if cur.IsAir() {
		return false
	}
	return next.IsAir() || (next.Kind == formats.KindGlass && cur != next)
}

// collectQuads sweeps vol along d and returns the quads in emission order.
func collectQuads(vol *formats.Volume, d direction, greedy bool) []quad {
	size := vol.Size
	axis, a1, a2 := d.axis(), d.axis1(), d.axis2()
	n1, n2 := size.Axis(a1), size.Axis(a2)
	depth := size.Axis(axis)
	if n1 == 0 || n2 == 0 || depth == 0 {
		return nil
	}

	step := 1
	if !d.forward() {
		step = -1
	}

	var pos, next [3]int
	at := func(layer, u, v int) formats.Voxel {
		pos[axis], pos[a1], pos[a2] = layer, u, v
		return vol.At(pos[0], pos[1], pos[2])
	}
	neighbour := func(layer, u, v int) formats.Voxel {
		next[axis], next[a1], next[a2] = layer+step, u, v
		return vol.At(next[0], next[1], next[2])
	}

	mask := make([]bool, n1*n2)
	cells := make([]formats.Voxel, n1*n2)
	var quads []quad

	for i := 0; i < depth; i++ {
		layer := i
		if !d.forward() {
			layer = depth - 1 - i
		}

		for u := 0; u < n1; u++ {
			for v := 0; v < n2; v++ {
				cur := at(layer, u, v)
				cells[u*n2+v] = cur
				mask[u*n2+v] = visible(cur, neighbour(layer, u, v))
			}
		}

		drawn := func(u, v int, start formats.Voxel) bool {
			return mask[u*n2+v] && cells[u*n2+v] == start
		}

		for x := 0; x < n1; x++ {
			for y := 0; y < n2; {
				if !mask[x*n2+y] {
					y++
					continue
				}
				start := cells[x*n2+y]
				w, h := 1, 1

				if greedy {
					for y+h < n2 && drawn(x, y+h, start) {
						h++
					}
				grow:
					for x+w < n1 {
						for k := y; k < y+h; k++ {
							if !drawn(x+w, k, start) {
								break grow
							}
						}
						w++
					}
				}

				quads = append(quads, quad{layer: layer, x: x, y: y, w: w, h: h, voxel: start})

				for du := 0; du < w; du++ {
					for dv := 0; dv < h; dv++ {
						mask[(x+du)*n2+y+dv] = false
					}
				}
				y += h
			}
		}
	}
	return quads
}

// builder appends quads to a MeshData.
type builder struct {
	mesh      *MeshData
	transform math.Mat4
	rotation  math.Mat4
}

func newBuilder(vol *formats.Volume, opts BuildOptions) *builder {
	rot := opts.Rotation
	if rot == (math.Quat{}) {
		rot = math.QuatIdentity()
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	pivot := vol.Size.Div(2).Vec3()

	r := rot.ToMat4()
	t := math.Scale(scale, scale, scale).
		Mul(math.TranslateVec3(opts.Offset.Vec3())).
		Mul(r).
		Mul(math.TranslateVec3(pivot.Scale(-1)))
	return &builder{mesh: newMeshData(), transform: t, rotation: r}
}

func (b *builder) emit(d direction, quads []quad) {
	axis, a1, a2 := d.axis(), d.axis1(), d.axis2()

	var n [3]float32
	if d.forward() {
		n[axis] = 1
	} else {
		n[axis] = -1
	}
	normal := b.rotation.TransformDirection(math.Vec3{X: n[0], Y: n[1], Z: n[2]})

	for _, q := range quads {
		var p, da, db [3]float32
		p[axis] = float32(q.layer)
		if d.forward() {
			p[axis]++
		}
		p[a1], p[a2] = float32(q.x), float32(q.y)
		da[a1] = float32(q.w)
		db[a2] = float32(q.h)

		corner := func(ka, kb float32) math.Vec3 {
			return b.transform.TransformVec3(math.Vec3{
				X: p[0] + ka*da[0] + kb*db[0],
				Y: p[1] + ka*da[1] + kb*db[1],
				Z: p[2] + ka*da[2] + kb*db[2],
			})
		}

		base := uint32(len(b.mesh.Vertices))
		if d.forward() {
			b.mesh.Vertices = append(b.mesh.Vertices, corner(0, 0), corner(1, 0), corner(1, 1), corner(0, 1))
		} else {
			b.mesh.Vertices = append(b.mesh.Vertices, corner(1, 1), corner(1, 0), corner(0, 0), corner(0, 1))
		}

		key := KeyFor(q.voxel)
		tris, _ := b.mesh.Submeshes.Get(key)
		tris = append(tris, base, base+1, base+2, base, base+2, base+3)
		b.mesh.Submeshes.Set(key, tris)

		uv := math.Vec2{X: (float32(q.voxel.ID) + 0.5) / 256, Y: 0.5}
		b.mesh.Normals = append(b.mesh.Normals, normal, normal, normal, normal)
		b.mesh.UVs = append(b.mesh.UVs, uv, uv, uv, uv)
	}
}
