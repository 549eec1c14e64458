// Package export writes imported voxel assets as binary glTF.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/voxkit/internal/engine/texture"
	"github.com/Faultbox/voxkit/internal/engine/voxel"
	"github.com/Faultbox/voxkit/internal/importer"
	"github.com/Faultbox/voxkit/internal/logger"
	"github.com/Faultbox/voxkit/pkg/formats"
)

const generator = "voxkit"

// Document converts an asset into a glTF document. The palette texture is
// embedded as PNG and sampled with nearest filtering.
func Document(asset *importer.Asset) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = generator

	tex, err := writeTexture(doc, asset)
	if err != nil {
		return nil, err
	}

	for _, m := range asset.Materials {
		doc.Materials = append(doc.Materials, material(m, tex))
	}

	meshes := make([]*uint32, len(asset.Meshes))
	for i, m := range asset.Meshes {
		meshes[i] = writeMesh(doc, m)
	}

	root := writeNode(doc, &asset.Root, meshes)
	doc.Scenes[0].Name = asset.Name
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, root)
	return doc, nil
}

// WriteGLB encodes asset as a GLB stream.
func WriteGLB(w io.Writer, asset *importer.Asset) error {
	doc, err := Document(asset)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding glb: %w", err)
	}
	return nil
}

// SaveGLB writes asset to a .glb file.
func SaveGLB(path string, asset *importer.Asset) error {
	doc, err := Document(asset)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		os.Remove(path)
		return fmt.Errorf("saving %s: %w", path, err)
	}
	logger.Named("export").Info("wrote glb",
		zap.String("path", path),
		zap.Int("meshes", len(doc.Meshes)),
		zap.Int("nodes", len(doc.Nodes)))
	return nil
}

func writeTexture(doc *gltf.Document, asset *importer.Asset) (uint32, error) {
	var buf bytes.Buffer
	if err := texture.EncodePNG(&buf, asset.Texture); err != nil {
		return 0, fmt.Errorf("encoding palette: %w", err)
	}
	img, err := modeler.WriteImage(doc, asset.Name+" palette", "image/png", &buf)
	if err != nil {
		return 0, fmt.Errorf("embedding palette: %w", err)
	}

	doc.Samplers = append(doc.Samplers, &gltf.Sampler{
		MagFilter: gltf.MagNearest,
		MinFilter: gltf.MinNearest,
		WrapS:     gltf.WrapClampToEdge,
		WrapT:     gltf.WrapClampToEdge,
	})
	doc.Textures = append(doc.Textures, &gltf.Texture{
		Sampler: gltf.Index(uint32(len(doc.Samplers) - 1)),
		Source:  gltf.Index(img),
	})
	return uint32(len(doc.Textures) - 1), nil
}

func material(m importer.MaterialAsset, tex uint32) *gltf.Material {
	color := m.BaseColor
	out := &gltf.Material{
		Name: m.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor:  &color,
			BaseColorTexture: &gltf.TextureInfo{Index: tex},
			MetallicFactor:   gltf.Float(m.Metallic),
			RoughnessFactor:  gltf.Float(1 - m.Smoothness),
		},
		AlphaMode: gltf.AlphaOpaque,
	}

	extras := map[string]any{"kind": m.Kind.String()}
	if m.AlphaBlend {
		out.AlphaMode = gltf.AlphaBlend
		extras["renderQueue"] = m.RenderQueue
	}
	if m.Kind == formats.KindEmission {
		// glTF caps the factor at 1; the full intensity travels in extras.
		e := min(m.Emission[0], 1)
		setVec3(&out.EmissiveFactor, [3]float32{e, e, e})
		out.EmissiveTexture = &gltf.TextureInfo{Index: tex}
		extras["emissionIntensity"] = m.Emission[0]
	}
	out.Extras = extras
	return out
}

// writeMesh returns the glTF mesh index, or nil when m has no triangles.
func writeMesh(doc *gltf.Document, m importer.Mesh) *uint32 {
	data := m.Data
	if data.TriangleCount() == 0 {
		return nil
	}

	positions := make([][3]float32, len(data.Vertices))
	normals := make([][3]float32, len(data.Normals))
	uvs := make([][2]float32, len(data.UVs))
	for i := range data.Vertices {
		positions[i] = data.Vertices[i].Array()
		normals[i] = data.Normals[i].Array()
		uvs[i] = [2]float32{data.UVs[i].X, data.UVs[i].Y}
	}

	attrs := map[string]uint32{
		gltf.POSITION:   modeler.WritePosition(doc, positions),
		gltf.NORMAL:     modeler.WriteNormal(doc, normals),
		gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
	}

	mesh := &gltf.Mesh{Name: m.Name}
	for i, key := range data.MaterialIDs() {
		tris := data.Triangles(key)
		if len(tris) == 0 {
			continue
		}
		mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
			Attributes: attrs,
			Indices:    gltf.Index(writeIndices(doc, tris, data.IndexFormat())),
			Material:   gltf.Index(uint32(m.Materials[i])),
		})
	}

	doc.Meshes = append(doc.Meshes, mesh)
	return gltf.Index(uint32(len(doc.Meshes) - 1))
}

func writeIndices(doc *gltf.Document, tris []uint32, format voxel.IndexFormat) uint32 {
	if format == voxel.IndexUint32 {
		return modeler.WriteIndices(doc, tris)
	}
	short := make([]uint16, len(tris))
	for i, t := range tris {
		short[i] = uint16(t)
	}
	return modeler.WriteIndices(doc, short)
}

func writeNode(doc *gltf.Document, p *importer.Prefab, meshes []*uint32) uint32 {
	node := &gltf.Node{Name: p.Name}
	setVec3(&node.Translation, p.Position.Array())
	if p.Mesh >= 0 && p.Mesh < len(meshes) {
		node.Mesh = meshes[p.Mesh]
	}

	doc.Nodes = append(doc.Nodes, node)
	index := uint32(len(doc.Nodes) - 1)
	for i := range p.Children {
		node.Children = append(node.Children, writeNode(doc, &p.Children[i], meshes))
	}
	return index
}

// setVec3 fills a glTF vector of either float width.
func setVec3[T float32 | float64](dst *[3]T, v [3]float32) {
	for i := range v {
		dst[i] = T(v[i])
	}
}
