package importer

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/voxkit/internal/assets"
	"github.com/Faultbox/voxkit/internal/config"
	"github.com/Faultbox/voxkit/internal/engine/texture"
	"github.com/Faultbox/voxkit/internal/engine/voxel"
	"github.com/Faultbox/voxkit/internal/logger"
	"github.com/Faultbox/voxkit/pkg/formats"
	"github.com/Faultbox/voxkit/pkg/math"
)

// ErrNoModels is returned for files without any voxel model.
var ErrNoModels = errors.New("vox file has no models")

// Importer converts .vox files according to an ImportConfig.
type Importer struct {
	cfg    config.ImportConfig
	assets *assets.Manager
	log    *zap.Logger
}

// New creates an importer. mgr resolves the palette override and may be nil,
// in which case the override path is read from disk.
func New(cfg config.ImportConfig, mgr *assets.Manager) *Importer {
	return &Importer{
		cfg:    cfg,
		assets: mgr,
		log:    logger.Named("importer"),
	}
}

// ImportFile reads and imports a .vox file through the asset manager.
func (im *Importer) ImportFile(path string) (*Asset, error) {
	var (
		data []byte
		err  error
	)
	if im.assets != nil {
		data, err = im.assets.Load(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return im.Import(path, data)
}

// Import decodes data and converts it. name is used for the asset, mesh and
// prefab names; its directory and extension are dropped.
func (im *Importer) Import(name string, data []byte) (*Asset, error) {
	vox, err := formats.ParseVOXBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return im.Convert(name, vox)
}

// Convert builds an Asset from an already decoded document.
func (im *Importer) Convert(name string, vox *formats.VOX) (*Asset, error) {
	if vox.ModelCount() == 0 {
		return nil, ErrNoModels
	}

	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	log := im.log.With(zap.String("asset", base))

	asset := &Asset{Name: base}
	asset.Warnings = append(asset.Warnings, vox.Warnings...)

	placements, warnings := vox.Placements()
	asset.Warnings = append(asset.Warnings, warnings...)
	for _, w := range asset.Warnings {
		log.Warn(w.Message, zap.Stringer("kind", w.Kind))
	}

	if err := im.palettes(asset, vox); err != nil {
		return nil, err
	}

	root := math.Vec3i{}
	rootRotation := math.QuatIdentity()
	if len(placements) > 0 {
		root = math.Vec3i{Y: placements[0].Position.Y}
		rootRotation = placements[0].Rotation
	}

	mats := newMaterialCache(vox)
	scale := im.cfg.Scale()

	if vox.ModelCount() > 1 {
		asset.Root = Prefab{Name: base, Mesh: -1}
		for _, p := range modelPlacements(vox, placements) {
			if p.ModelID < 0 || p.ModelID >= vox.ModelCount() {
				log.Warn("placement without model skipped",
					zap.Int("model", p.ModelID), zap.Stringer("position", p.Position))
				continue
			}
			label := fmt.Sprintf("%s (%d)", base, p.ModelID)
			mesh, err := im.mesh(vox, mats, label, p.ModelID, root, p.Rotation)
			if err != nil {
				return nil, err
			}
			asset.Meshes = append(asset.Meshes, mesh)
			asset.Root.Children = append(asset.Root.Children, Prefab{
				Name:     label,
				Position: p.Position.Vec3().Scale(scale),
				Mesh:     len(asset.Meshes) - 1,
			})
		}
	} else {
		mesh, err := im.mesh(vox, mats, base, 0, root, rootRotation)
		if err != nil {
			return nil, err
		}
		asset.Meshes = append(asset.Meshes, mesh)
		asset.Root = Prefab{Name: base, Mesh: 0}
	}

	asset.Materials = mats.materials

	log.Info("imported",
		zap.Int("meshes", len(asset.Meshes)),
		zap.Int("materials", len(asset.Materials)),
		zap.Bool("palette", asset.PaletteEmitted))
	return asset, nil
}

// modelPlacements returns the placements meshed for a multi-model file.
// Files without a scene graph place every model at the origin.
func modelPlacements(vox *formats.VOX, placements []formats.Placement) []formats.Placement {
	if len(vox.Nodes) > 0 {
		return placements[min(1, len(placements)):]
	}
	out := make([]formats.Placement, vox.ModelCount())
	for i := range out {
		out[i] = formats.Placement{Rotation: math.QuatIdentity(), ModelID: i}
	}
	return out
}

func (im *Importer) mesh(vox *formats.VOX, mats *materialCache, name string, model int, offset math.Vec3i, rot math.Quat) (Mesh, error) {
	vol, err := vox.Volume(model)
	if err != nil {
		return Mesh{}, err
	}

	opts := voxel.BuildOptions{
		Scale:    im.cfg.Scale(),
		Greedy:   im.cfg.OptimizeMesh,
		Offset:   offset,
		Rotation: rot,
	}
	var data *voxel.MeshData
	if im.cfg.ParallelMesh {
		data = voxel.BuildMeshParallel(vol, opts)
	} else {
		data = voxel.BuildMesh(vol, opts)
	}

	keys := data.MaterialIDs()
	indices := make([]int, len(keys))
	for i, k := range keys {
		indices[i] = mats.get(k)
	}

	im.log.Debug("meshed model",
		zap.String("name", name),
		zap.Int("model", model),
		zap.Int("vertices", len(data.Vertices)),
		zap.Int("triangles", data.TriangleCount()),
		zap.Stringer("indices", data.IndexFormat()))

	return Mesh{Name: name, ModelID: model, Data: data, Materials: indices}, nil
}

// palettes fills the palette images of asset.
func (im *Importer) palettes(asset *Asset, vox *formats.VOX) error {
	asset.Palette = texture.PaletteImage(vox.PaletteColors())
	asset.Texture = asset.Palette
	asset.PaletteEmitted = true

	if im.cfg.PaletteOverride == "" {
		return nil
	}

	colors, err := im.loadPalette(im.cfg.PaletteOverride)
	if err != nil {
		return fmt.Errorf("palette override %s: %w", im.cfg.PaletteOverride, err)
	}

	asset.Texture = texture.PaletteImage(colors)
	asset.PaletteEmitted = im.cfg.GeneratePaletteAlways
	return nil
}

// loadPalette reads an override palette through the asset manager, or
// straight from disk when the importer has none.
func (im *Importer) loadPalette(name string) ([texture.PaletteSize]color.RGBA, error) {
	if im.assets == nil {
		return texture.LoadPalette(name)
	}
	data, err := im.assets.Load(name)
	if err != nil {
		return [texture.PaletteSize]color.RGBA{}, err
	}
	return texture.DecodePalette(data, name)
}
