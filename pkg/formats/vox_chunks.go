package formats

import (
	"fmt"
	"image/color"

	"go.uber.org/zap"

	"github.com/Faultbox/voxkit/pkg/math"
)

// Chunk tags.
const (
	tagMain      = "MAIN"
	tagPack      = "PACK"
	tagSize      = "SIZE"
	tagVoxels    = "XYZI"
	tagPalette   = "RGBA"
	tagMaterial  = "MATL"
	tagTransform = "nTRN"
	tagGroup     = "nGRP"
	tagShape     = "nSHP"
	tagLayer     = "LAYR"
	tagRenderObj = "rOBJ"
	tagCamera    = "rCAM"
	tagNote      = "NOTE"
	tagIndexMap  = "IMAP"
)

// Decode limits. MagicaVoxel itself caps models at 256 per axis.
const (
	// MaxModelExtent bounds each axis of a SIZE chunk.
	MaxModelExtent = 256
	// MaxTotalCells bounds the dense cells of all models in one file.
	MaxTotalCells = 1 << 27
)

var maxTotalCells = MaxTotalCells

// EmptyVoxelID marks an empty cell in a voxel grid.
const EmptyVoxelID = 255

// Chunk is a decoded VOX chunk payload. The concrete type is one of
// *SizeChunk, *VoxelChunk, *PaletteChunk, *MaterialChunk, *TransformNode,
// *GroupNode, *ShapeNode or *IgnoredChunk.
type Chunk interface {
	Tag() string
}

// SceneNode is a node of the scene graph.
type SceneNode interface {
	Chunk
	NodeID() int
}

// SizeChunk declares the extent of the model whose voxels follow.
type SizeChunk struct {
	Size math.Vec3i // X, Y (up), Z
}

func (*SizeChunk) Tag() string { return tagSize }

// VoxelChunk is a dense grid of stored material ids, indexed
// x + Size.X*(y + Size.Y*z). Empty cells hold EmptyVoxelID.
type VoxelChunk struct {
	Size   math.Vec3i
	Count  int // voxel records declared in the chunk
	Voxels []byte
}

func (*VoxelChunk) Tag() string { return tagVoxels }

// At returns the stored id at (x, y, z), or EmptyVoxelID out of bounds.
func (c *VoxelChunk) At(x, y, z int) byte {
	if x < 0 || y < 0 || z < 0 || x >= c.Size.X || y >= c.Size.Y || z >= c.Size.Z {
		return EmptyVoxelID
	}
	return c.Voxels[x+c.Size.X*(y+c.Size.Y*z)]
}

// PaletteChunk holds 256 colours. Colors[i] is the colour of stored id i.
type PaletteChunk struct {
	Colors [256]color.RGBA
}

func (*PaletteChunk) Tag() string { return tagPalette }

// MaterialChunk is a MATL chunk with its resolved parameters.
type MaterialChunk struct {
	ID         int
	Properties Dict
	Material   Material
}

func (*MaterialChunk) Tag() string { return tagMaterial }

// TransformNode places a single child. Translation and Rotation come from
// the first frame and are nil when absent.
type TransformNode struct {
	ID          int
	Attributes  Dict
	ChildID     int
	LayerID     int
	Frames      []Dict
	Translation *math.Vec3i
	Rotation    *Rotation
}

func (*TransformNode) Tag() string   { return tagTransform }
func (n *TransformNode) NodeID() int { return n.ID }

// Name returns the _name attribute, if any.
func (n *TransformNode) Name() string { return n.Attributes.String("_name", "") }

// Hidden reports the _hidden attribute.
func (n *TransformNode) Hidden() bool { return n.Attributes.Bool("_hidden") }

// GroupNode holds an ordered list of children.
type GroupNode struct {
	ID         int
	Attributes Dict
	ChildIDs   []int
}

func (*GroupNode) Tag() string   { return tagGroup }
func (n *GroupNode) NodeID() int { return n.ID }

// ShapeModel is one model reference of a shape node.
type ShapeModel struct {
	ModelID    int
	Attributes Dict
}

// ShapeNode references models by index.
type ShapeNode struct {
	ID         int
	Attributes Dict
	Models     []ShapeModel
}

func (*ShapeNode) Tag() string   { return tagShape }
func (n *ShapeNode) NodeID() int { return n.ID }

// IgnoredChunk is a recognized chunk whose content is skipped.
type IgnoredChunk struct {
	ChunkTag string
	Size     int
}

func (c *IgnoredChunk) Tag() string { return c.ChunkTag }

func decodeSize(r *chunkReader) *SizeChunk {
	// stored as x, z, y
	x := r.readInt()
	z := r.readInt()
	y := r.readInt()
	if r.err != nil {
		return nil
	}
	for _, v := range []int{x, y, z} {
		if v < 0 || v > MaxModelExtent {
			r.fail(fmt.Errorf("%w: %dx%dx%d", ErrInvalidSize, x, y, z))
			return nil
		}
	}
	return &SizeChunk{Size: math.Vec3i{X: x, Y: y, Z: z}}
}

func decodeVoxels(r *chunkReader, size math.Vec3i) *VoxelChunk {
	count := r.readCount(4)
	if r.err != nil {
		return nil
	}
	c := &VoxelChunk{Size: size, Count: count, Voxels: make([]byte, size.Volume())}
	for i := range c.Voxels {
		c.Voxels[i] = EmptyVoxelID
	}

	dropped := 0
	for i := 0; i < count; i++ {
		rec := r.take(4)
		if rec == nil {
			return nil
		}
		// stored as x, z, y, color index
		x, z, y, ci := int(rec[0]), int(rec[1]), int(rec[2]), rec[3]
		if x >= size.X || y >= size.Y || z >= size.Z {
			dropped++
			continue
		}
		c.Voxels[x+size.X*(y+size.Y*z)] = ci - 1
	}
	if dropped > 0 {
		log.Debug("dropped out-of-bounds voxels", zap.Int("count", dropped), zap.Stringer("size", size))
	}
	return c
}

func decodePalette(r *chunkReader) *PaletteChunk {
	raw := r.take(256 * 4)
	if raw == nil {
		return nil
	}
	p := &PaletteChunk{}
	for i := range p.Colors {
		p.Colors[i] = color.RGBA{R: raw[i*4], G: raw[i*4+1], B: raw[i*4+2], A: raw[i*4+3]}
	}
	return p
}

func decodeMaterial(r *chunkReader) *MaterialChunk {
	id := r.readInt()
	props := r.readDict()
	if r.err != nil {
		return nil
	}
	return &MaterialChunk{ID: id, Properties: props, Material: decodeMaterialProperties(id, props)}
}

func decodeTransform(r *chunkReader) *TransformNode {
	n := &TransformNode{
		ID:         r.readInt(),
		Attributes: r.readDict(),
		ChildID:    r.readInt(),
	}
	r.readInt() // reserved
	n.LayerID = r.readInt()
	frames := r.readCount(4)
	for i := 0; i < frames && r.err == nil; i++ {
		n.Frames = append(n.Frames, r.readDict())
	}
	if r.err != nil {
		return nil
	}

	if len(n.Frames) > 0 {
		f := n.Frames[0]
		if s, ok := f.Get("_t"); ok {
			var a, b, c int
			if _, err := fmt.Sscanf(s, "%d %d %d", &a, &b, &c); err != nil {
				r.fail(fmt.Errorf("%w: node %d _t %q", ErrInvalidFrame, n.ID, s))
				return nil
			}
			// stored as x, z, y
			n.Translation = &math.Vec3i{X: a, Y: c, Z: b}
		}
		if s, ok := f.Get("_r"); ok {
			v, ok := f.Int("_r")
			if !ok {
				r.fail(fmt.Errorf("%w: node %d _r %q", ErrInvalidFrame, n.ID, s))
				return nil
			}
			rot := DecodeRotation(v)
			n.Rotation = &rot
		}
	}
	return n
}

func decodeGroup(r *chunkReader) *GroupNode {
	n := &GroupNode{
		ID:         r.readInt(),
		Attributes: r.readDict(),
	}
	count := r.readCount(4)
	for i := 0; i < count && r.err == nil; i++ {
		n.ChildIDs = append(n.ChildIDs, r.readInt())
	}
	if r.err != nil {
		return nil
	}
	return n
}

func decodeShape(r *chunkReader) *ShapeNode {
	n := &ShapeNode{
		ID:         r.readInt(),
		Attributes: r.readDict(),
	}
	count := r.readCount(8)
	for i := 0; i < count && r.err == nil; i++ {
		n.Models = append(n.Models, ShapeModel{ModelID: r.readInt(), Attributes: r.readDict()})
	}
	if r.err != nil {
		return nil
	}
	return n
}

func isIgnoredTag(tag string) bool {
	switch tag {
	case tagPack, tagLayer, tagRenderObj, tagCamera, tagNote, tagIndexMap:
		return true
	}
	return false
}
