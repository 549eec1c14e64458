// Package importer turns decoded .vox documents into meshes, materials and
// a prefab hierarchy.
package importer

import (
	"image"

	"github.com/Faultbox/voxkit/internal/engine/voxel"
	"github.com/Faultbox/voxkit/pkg/formats"
	"github.com/Faultbox/voxkit/pkg/math"
)

// Asset is the result of importing one .vox file.
type Asset struct {
	Name string

	// Palette is the file's own palette as a 256x1 image.
	Palette *image.NRGBA
	// PaletteEmitted reports whether Palette is part of the output.
	PaletteEmitted bool
	// Texture is the palette image sampled by every material. It is the
	// override palette when one is configured, else Palette.
	Texture *image.NRGBA

	Meshes    []Mesh
	Materials []MaterialAsset
	Root      Prefab

	Warnings []formats.Warning
}

// Mesh is one meshed model.
type Mesh struct {
	Name    string
	ModelID int
	Data    *voxel.MeshData
	// Materials holds an index into Asset.Materials per submesh, in
	// Data.MaterialIDs order.
	Materials []int
}

// MaterialAsset is a renderer-independent material description.
type MaterialAsset struct {
	Name string
	Key  voxel.MaterialKey
	Kind formats.MaterialKind

	// BaseColor tints the palette texture; alpha is below 1 for glass.
	BaseColor  [4]float32
	Metallic   float32
	Smoothness float32
	// Emission is the emissive colour multiplier, zero when not emissive.
	Emission [3]float32

	AlphaBlend  bool
	RenderQueue int
}

// Prefab is a node of the imported object hierarchy.
type Prefab struct {
	Name     string
	Position math.Vec3 // local position in world units
	Mesh     int       // index into Asset.Meshes, -1 for none
	Children []Prefab
}

// Walk calls fn for p and every descendant, depth first.
func (p *Prefab) Walk(fn func(*Prefab, int)) {
	p.walk(fn, 0)
}

func (p *Prefab) walk(fn func(*Prefab, int), depth int) {
	fn(p, depth)
	for i := range p.Children {
		p.Children[i].walk(fn, depth+1)
	}
}
