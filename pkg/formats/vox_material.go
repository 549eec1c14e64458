package formats

import (
	"fmt"

	"go.uber.org/zap"
)

// MaterialKind classifies a voxel material. It is a byte wide so a Voxel
// packs into two bytes.
type MaterialKind int8

const (
	KindAir      MaterialKind = -1
	KindDiffuse  MaterialKind = 0
	KindMetal    MaterialKind = 1
	KindGlass    MaterialKind = 2
	KindEmission MaterialKind = 3
)

// String returns a human-readable kind name.
func (k MaterialKind) String() string {
	switch k {
	case KindAir:
		return "air"
	case KindDiffuse:
		return "diffuse"
	case KindMetal:
		return "metal"
	case KindGlass:
		return "glass"
	case KindEmission:
		return "emission"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Material holds the resolved parameters of a MATL chunk.
// Fields not used by the kind stay zero.
type Material struct {
	Kind         MaterialKind
	Emission     float32
	Intensity    float32
	Transparency float32
	Smoothness   float32
	Metallic     float32
}

// DefaultMaterial is used for ids without a MATL chunk.
var DefaultMaterial = Material{Kind: KindDiffuse}

// decodeMaterialProperties resolves MATL properties into a Material.
// Unknown types resolve to diffuse. Missing or malformed numbers use the
// field default.
func decodeMaterialProperties(id int, props Dict) Material {
	num := func(key string, def float32) float32 {
		v, ok := props.Float(key)
		if !ok {
			if raw, found := props.Get(key); found {
				log.Debug("ignoring malformed material property",
					zap.Int("material", id), zap.String("key", key), zap.String("value", raw))
			}
			return def
		}
		return v
	}

	switch props.String("_type", "_diffuse") {
	case "_metal":
		return Material{
			Kind:       KindMetal,
			Smoothness: 1 - num("_rough", 0),
			Metallic:   num("_metal", 0),
		}
	case "_glass":
		return Material{
			Kind:         KindGlass,
			Transparency: num("_alpha", 0),
			Smoothness:   1 - num("_rough", 0),
		}
	case "_emit":
		return Material{
			Kind:      KindEmission,
			Emission:  num("_emit", 0),
			Intensity: num("_flux", 0) / 2,
		}
	case "_diffuse":
		return DefaultMaterial
	default:
		log.Debug("unknown material type, using diffuse",
			zap.Int("material", id), zap.String("type", props.String("_type", "")))
		return DefaultMaterial
	}
}
