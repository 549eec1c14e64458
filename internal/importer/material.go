package importer

import (
	"fmt"

	"github.com/Faultbox/voxkit/internal/engine/voxel"
	"github.com/Faultbox/voxkit/pkg/formats"
)

// Render queue used for alpha-blended materials.
const transparentQueue = 3000

// newMaterial describes the material of a submesh bucket.
func newMaterial(key voxel.MaterialKey, vox *formats.VOX) MaterialAsset {
	id, ok := key.VoxelID()
	if !ok {
		return defaultMaterial()
	}

	m := vox.Material(int(id))
	switch m.Kind {
	case formats.KindEmission:
		return MaterialAsset{
			Name:      fmt.Sprintf("Emissive Material (%d)", id),
			Key:       key,
			Kind:      m.Kind,
			BaseColor: [4]float32{1, 1, 1, 1},
			Metallic:  0.7,
			Emission:  [3]float32{m.Intensity, m.Intensity, m.Intensity},
		}
	case formats.KindGlass:
		return MaterialAsset{
			Name:        fmt.Sprintf("Glass Material (%d)", id),
			Key:         key,
			Kind:        m.Kind,
			BaseColor:   [4]float32{1, 1, 1, 1 - m.Transparency},
			Smoothness:  m.Smoothness,
			AlphaBlend:  true,
			RenderQueue: transparentQueue,
		}
	case formats.KindMetal:
		return MaterialAsset{
			Name:       fmt.Sprintf("Metal Material (%d)", id),
			Key:        key,
			Kind:       m.Kind,
			BaseColor:  [4]float32{1, 1, 1, 1},
			Smoothness: m.Smoothness,
			Metallic:   m.Metallic,
		}
	default:
		return defaultMaterial()
	}
}

func defaultMaterial() MaterialAsset {
	return MaterialAsset{
		Name:      "Default Material",
		Key:       voxel.DiffuseKey,
		Kind:      formats.KindDiffuse,
		BaseColor: [4]float32{1, 1, 1, 1},
	}
}

// materialCache assigns one MaterialAsset per bucket key within an import.
type materialCache struct {
	vox       *formats.VOX
	index     map[voxel.MaterialKey]int
	materials []MaterialAsset
}

func newMaterialCache(vox *formats.VOX) *materialCache {
	return &materialCache{vox: vox, index: make(map[voxel.MaterialKey]int)}
}

func (c *materialCache) get(key voxel.MaterialKey) int {
	if i, ok := c.index[key]; ok {
		return i
	}
	c.materials = append(c.materials, newMaterial(key, c.vox))
	i := len(c.materials) - 1
	c.index[key] = i
	return i
}
