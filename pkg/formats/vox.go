package formats

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"

	"go.uber.org/zap"
)

// VOX format constants
const (
	voxMagic = "VOX "

	// SupportedVOXVersion is the newest file version the decoder was written
	// against. Newer versions are decoded with a warning.
	SupportedVOXVersion = 150
)

// VOX parsing errors
var (
	ErrInvalidVOXMagic   = errors.New("invalid VOX magic")
	ErrMissingMainChunk  = errors.New("first chunk is not MAIN")
	ErrUnknownChunk      = errors.New("unknown chunk tag")
	ErrVoxelsWithoutSize = errors.New("XYZI chunk without preceding SIZE")
	ErrTruncatedVOXData  = errors.New("truncated VOX data")
	ErrChunkOverrun      = errors.New("chunk payload exceeds declared content length")
	ErrNegativeLength    = errors.New("negative length")
	ErrInvalidSize       = errors.New("invalid model size")
	ErrModelOutOfRange   = errors.New("model index out of range")
	ErrInvalidFrame      = errors.New("invalid transform frame attribute")
)

// FormatError reports a malformed VOX stream together with the byte offset
// where decoding stopped.
type FormatError struct {
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("vox: offset %d: %v", e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// WarningKind classifies non-fatal decode conditions.
type WarningKind int

const (
	// WarnVersionMismatch: the file version is newer than SupportedVOXVersion.
	WarnVersionMismatch WarningKind = iota
	// WarnShapeFanout: a shape references more than one model; only the
	// first is used.
	WarnShapeFanout
	// WarnPlacementLimit: the flattened scene reached MaxPlacements and the
	// remaining branches were dropped.
	WarnPlacementLimit
)

func (k WarningKind) String() string {
	switch k {
	case WarnVersionMismatch:
		return "version-mismatch"
	case WarnShapeFanout:
		return "shape-fanout"
	case WarnPlacementLimit:
		return "placement-limit"
	default:
		return fmt.Sprintf("warning(%d)", int(k))
	}
}

// Warning is a non-fatal condition encountered while decoding.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return w.Kind.String() + ": " + w.Message
}

// VOX is a decoded MagicaVoxel document.
type VOX struct {
	Version int

	// Models and Sizes are in file order. Each model uses the most recent
	// SIZE chunk before it.
	Models []*VoxelChunk
	Sizes  []*SizeChunk

	// Palette is nil when the file has no RGBA chunk.
	Palette *PaletteChunk

	// Materials are indexed by arrival order.
	Materials []*MaterialChunk

	// Nodes are the scene graph nodes in file order.
	Nodes []SceneNode

	// ChunkCounts counts every decoded chunk by tag, excluding MAIN.
	ChunkCounts map[string]int

	Warnings []Warning

	cells int // dense cells allocated so far
}

// ParseVOX reads and decodes a .vox stream.
func ParseVOX(r io.Reader) (*VOX, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading VOX data: %w", err)
	}
	return ParseVOXBytes(data)
}

// ParseVOXFile loads and parses a .vox file from disk.
func ParseVOXFile(path string) (*VOX, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading VOX file: %w", err)
	}
	return ParseVOXBytes(data)
}

// ParseVOXBytes decodes a .vox file held in memory.
func ParseVOXBytes(data []byte) (*VOX, error) {
	r := newChunkReader(data, 0, ErrTruncatedVOXData)

	if magic := r.readTag(); r.err != nil {
		return nil, r.err
	} else if magic != voxMagic {
		return nil, &FormatError{Offset: 0, Err: fmt.Errorf("%w: %q", ErrInvalidVOXMagic, magic)}
	}

	vox := &VOX{
		Version:     r.readInt(),
		ChunkCounts: make(map[string]int),
	}
	if r.err != nil {
		return nil, r.err
	}
	if vox.Version > SupportedVOXVersion {
		vox.warn(WarnVersionMismatch, fmt.Sprintf("file version %d is newer than supported version %d",
			vox.Version, SupportedVOXVersion))
	}

	mainStart := r.offset()
	if tag := r.readTag(); r.err != nil {
		return nil, r.err
	} else if tag != tagMain {
		return nil, &FormatError{Offset: mainStart, Err: fmt.Errorf("%w: got %q", ErrMissingMainChunk, tag)}
	}
	hdr := r.readChunkHeader()
	r.skip(hdr.Content)
	if r.err != nil {
		return nil, r.err
	}
	mainEnd := mainStart + 12 + int64(hdr.Content) + int64(hdr.Children)

	for r.offset() < mainEnd {
		if err := vox.decodeChunk(r); err != nil {
			return nil, err
		}
	}
	return vox, nil
}

// decodeChunk decodes one chunk at the reader position. Children are not
// skipped; they follow as the next chunks in the stream.
func (v *VOX) decodeChunk(r *chunkReader) error {
	start := r.offset()
	tag := r.readTag()
	hdr := r.readChunkHeader()
	content := r.sub(hdr.Content, ErrChunkOverrun)
	if r.err != nil {
		return r.err
	}

	var chunk Chunk
	switch tag {
	case tagSize:
		if c := decodeSize(content); c != nil {
			v.Sizes = append(v.Sizes, c)
			chunk = c
		}
	case tagVoxels:
		if len(v.Sizes) == 0 {
			return &FormatError{Offset: start, Err: ErrVoxelsWithoutSize}
		}
		size := v.Sizes[len(v.Sizes)-1].Size
		if v.cells+size.Volume() > maxTotalCells {
			return &FormatError{Offset: start, Err: fmt.Errorf("%w: models exceed %d cells", ErrInvalidSize, maxTotalCells)}
		}
		if c := decodeVoxels(content, size); c != nil {
			v.Models = append(v.Models, c)
			v.cells += size.Volume()
			chunk = c
		}
	case tagPalette:
		if c := decodePalette(content); c != nil {
			v.Palette = c
			chunk = c
		}
	case tagMaterial:
		if c := decodeMaterial(content); c != nil {
			v.Materials = append(v.Materials, c)
			chunk = c
		}
	case tagTransform:
		if n := decodeTransform(content); n != nil {
			v.Nodes = append(v.Nodes, n)
			chunk = n
		}
	case tagGroup:
		if n := decodeGroup(content); n != nil {
			v.Nodes = append(v.Nodes, n)
			chunk = n
		}
	case tagShape:
		if n := decodeShape(content); n != nil {
			v.Nodes = append(v.Nodes, n)
			chunk = n
		}
	default:
		if !isIgnoredTag(tag) {
			return &FormatError{Offset: start, Err: fmt.Errorf("%w: %q", ErrUnknownChunk, tag)}
		}
		chunk = &IgnoredChunk{ChunkTag: tag, Size: hdr.Content}
	}
	if content.err != nil {
		return content.err
	}

	v.ChunkCounts[chunk.Tag()]++
	log.Debug("decoded chunk",
		zap.String("tag", tag),
		zap.Int64("offset", start),
		zap.Int("content", hdr.Content),
		zap.Int("children", hdr.Children))
	return nil
}

func (v *VOX) warn(kind WarningKind, msg string) {
	v.Warnings = append(v.Warnings, Warning{Kind: kind, Message: msg})
	log.Warn(msg, zap.Stringer("kind", kind))
}

// ModelCount returns the number of decoded voxel models.
func (v *VOX) ModelCount() int {
	return len(v.Models)
}

// Material returns the material at arrival index id, or DefaultMaterial
// when there is none.
func (v *VOX) Material(id int) Material {
	if id < 0 || id >= len(v.Materials) {
		return DefaultMaterial
	}
	return v.Materials[id].Material
}

// PaletteColors returns the colour of every stored id. Files without an
// RGBA chunk use the MagicaVoxel default palette.
func (v *VOX) PaletteColors() [256]color.RGBA {
	if v.Palette != nil {
		return v.Palette.Colors
	}
	return DefaultPalette()
}

// Volume builds the voxel volume of model index i.
func (v *VOX) Volume(i int) (*Volume, error) {
	if i < 0 || i >= len(v.Models) {
		return nil, fmt.Errorf("%w: %d of %d", ErrModelOutOfRange, i, len(v.Models))
	}
	m := v.Models[i]
	vol := NewVolume(m.Size)
	for idx, id := range m.Voxels {
		if id == EmptyVoxelID {
			continue
		}
		vol.Cells[idx] = Voxel{ID: id, Kind: v.Material(int(id)).Kind}
	}
	return vol, nil
}
