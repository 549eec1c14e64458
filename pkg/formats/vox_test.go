package formats

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"testing"
	"unsafe"

	"github.com/Faultbox/voxkit/pkg/math"
)

func TestParseVOX_SingleVoxel(t *testing.T) {
	data := makeVOX(150, sizeChunk(2, 2, 2), voxelChunk(xyzi{0, 0, 0, 5}))

	vox, err := ParseVOXBytes(data)
	if err != nil {
		t.Fatalf("ParseVOXBytes failed: %v", err)
	}
	if vox.Version != 150 {
		t.Errorf("Version = %d, want 150", vox.Version)
	}
	if len(vox.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", vox.Warnings)
	}
	if vox.ModelCount() != 1 {
		t.Fatalf("ModelCount = %d, want 1", vox.ModelCount())
	}

	m := vox.Models[0]
	if m.Size != (math.Vec3i{X: 2, Y: 2, Z: 2}) {
		t.Errorf("Size = %v, want 2x2x2", m.Size)
	}
	if m.Count != 1 {
		t.Errorf("Count = %d, want 1", m.Count)
	}
	for i, id := range m.Voxels {
		want := byte(EmptyVoxelID)
		if i == 0 {
			want = 4
		}
		if id != want {
			t.Errorf("Voxels[%d] = %d, want %d", i, id, want)
		}
	}

	vol, err := vox.Volume(0)
	if err != nil {
		t.Fatalf("Volume failed: %v", err)
	}
	if got := vol.At(0, 0, 0); got != (Voxel{ID: 4, Kind: KindDiffuse}) {
		t.Errorf("At(0,0,0) = %+v, want diffuse id 4", got)
	}
	if got := vol.At(1, 1, 1); got != Air {
		t.Errorf("At(1,1,1) = %+v, want Air", got)
	}
	if got := vol.Solid(); got != 1 {
		t.Errorf("Solid = %d, want 1", got)
	}
}

func TestParseVOX_AxisSwap(t *testing.T) {
	// x=1, y=3, z=2 with a voxel at the far corner
	data := makeVOX(150, sizeChunk(1, 3, 2), voxelChunk(xyzi{0, 2, 1, 1}))

	vox, err := ParseVOXBytes(data)
	if err != nil {
		t.Fatalf("ParseVOXBytes failed: %v", err)
	}
	if got := vox.Sizes[0].Size; got != (math.Vec3i{X: 1, Y: 3, Z: 2}) {
		t.Errorf("Size = %v, want 1x3x2", got)
	}
	if got := vox.Models[0].At(0, 2, 1); got != 0 {
		t.Errorf("At(0,2,1) = %d, want 0", got)
	}
	if got := vox.Models[0].At(0, 1, 2); got != EmptyVoxelID {
		t.Errorf("At(0,1,2) = %d, want empty", got)
	}
}

func TestParseVOX_OutOfBoundsVoxelSkipped(t *testing.T) {
	data := makeVOX(150, sizeChunk(1, 1, 1), voxelChunk(xyzi{0, 0, 0, 1}, xyzi{3, 0, 0, 1}))

	vox, err := ParseVOXBytes(data)
	if err != nil {
		t.Fatalf("ParseVOXBytes failed: %v", err)
	}
	if len(vox.Models[0].Voxels) != 1 || vox.Models[0].Voxels[0] != 0 {
		t.Errorf("Voxels = %v, want [0]", vox.Models[0].Voxels)
	}
}

func TestParseVOX_Errors(t *testing.T) {
	valid := makeVOX(150, sizeChunk(1, 1, 1), voxelChunk(xyzi{0, 0, 0, 1}))

	badMagic := append([]byte("VOXX"), valid[4:]...)

	noMain := []byte("VOX ")
	noMain = append(noMain, int32s(150)...)
	noMain = append(noMain, sizeChunk(1, 1, 1)...)

	overrun := makeVOX(150, makeChunk("SIZE", int32s(1, 1)))

	negative := []byte("VOX ")
	negative = append(negative, int32s(150)...)
	negative = append(negative, makeChunk("MAIN", nil)[:4]...)
	negative = append(negative, int32s(-1, 0)...)

	badTranslation := makeVOX(150, transformChunk(0, 1, "_t", "1 two 3"))

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty data", []byte{}, ErrTruncatedVOXData},
		{"invalid magic", badMagic, ErrInvalidVOXMagic},
		{"missing MAIN", noMain, ErrMissingMainChunk},
		{"unknown chunk", makeVOX(150, makeChunk("ABCD", []byte{1, 2, 3})), ErrUnknownChunk},
		{"voxels without size", makeVOX(150, voxelChunk(xyzi{0, 0, 0, 1})), ErrVoxelsWithoutSize},
		{"truncated", valid[:len(valid)-3], ErrTruncatedVOXData},
		{"chunk overrun", overrun, ErrChunkOverrun},
		{"negative length", negative, ErrNegativeLength},
		{"invalid size", makeVOX(150, sizeChunk(-1, 1, 1)), ErrInvalidSize},
		{"size over extent", makeVOX(150, sizeChunk(MaxModelExtent+1, 1, 1)), ErrInvalidSize},
		{"size over extent on z", makeVOX(150, sizeChunk(1, 1, MaxModelExtent+1)), ErrInvalidSize},
		{"huge size", makeVOX(150, sizeChunk(2048, 64, 2048)), ErrInvalidSize},
		{"invalid translation", badTranslation, ErrInvalidFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVOXBytes(tt.data)
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Errorf("error %v is not a *FormatError", err)
			}
		})
	}
}

func TestParseVOX_ExtentLimit(t *testing.T) {
	data := makeVOX(150, sizeChunk(MaxModelExtent, MaxModelExtent, MaxModelExtent))
	vox, err := ParseVOXBytes(data)
	if err != nil {
		t.Fatalf("ParseVOXBytes failed at the extent limit: %v", err)
	}
	want := math.Vec3i{X: MaxModelExtent, Y: MaxModelExtent, Z: MaxModelExtent}
	if got := vox.Sizes[0].Size; got != want {
		t.Errorf("Size = %v, want %v", got, want)
	}
}

func TestParseVOX_CellBudget(t *testing.T) {
	defer func(n int) { maxTotalCells = n }(maxTotalCells)
	maxTotalCells = 100

	one := makeVOX(150, sizeChunk(4, 4, 4), voxelChunk(xyzi{0, 0, 0, 1}))
	if _, err := ParseVOXBytes(one); err != nil {
		t.Fatalf("ParseVOXBytes failed under the budget: %v", err)
	}

	two := makeVOX(150,
		sizeChunk(4, 4, 4), voxelChunk(xyzi{0, 0, 0, 1}),
		sizeChunk(4, 4, 4), voxelChunk(xyzi{1, 1, 1, 1}),
	)
	_, err := ParseVOXBytes(two)
	if !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("error = %v, want ErrInvalidSize", err)
	}
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Errorf("error %v is not a *FormatError", err)
	}
}

func TestVoxelIsTwoBytes(t *testing.T) {
	if got := unsafe.Sizeof(Voxel{}); got != 2 {
		t.Errorf("sizeof(Voxel) = %d, want 2", got)
	}
}

func TestParseVOX_UnknownChunkOffset(t *testing.T) {
	data := makeVOX(150, sizeChunk(1, 1, 1), makeChunk("ABCD", nil))

	_, err := ParseVOXBytes(data)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	// header (8) + MAIN header (12) + SIZE chunk (24)
	if fe.Offset != 44 {
		t.Errorf("Offset = %d, want 44", fe.Offset)
	}
}

func TestParseVOX_Version(t *testing.T) {
	tests := []struct {
		name         string
		version      int32
		wantWarnings int
	}{
		{"older", 120, 0},
		{"supported", 150, 0},
		{"newer", 200, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vox, err := ParseVOXBytes(makeVOX(tt.version, sizeChunk(1, 1, 1), voxelChunk()))
			if err != nil {
				t.Fatalf("ParseVOXBytes failed: %v", err)
			}
			if len(vox.Warnings) != tt.wantWarnings {
				t.Fatalf("got %d warnings, want %d: %v", len(vox.Warnings), tt.wantWarnings, vox.Warnings)
			}
			if tt.wantWarnings > 0 && vox.Warnings[0].Kind != WarnVersionMismatch {
				t.Errorf("warning kind = %v, want %v", vox.Warnings[0].Kind, WarnVersionMismatch)
			}
		})
	}
}

func TestParseVOX_IgnoredChunks(t *testing.T) {
	layer := makeChunk("LAYR", append(int32s(0), makeDict("_name", "bg")...))
	note := makeChunk("NOTE", []byte{9, 9, 9, 9, 9})
	camera := makeChunk("rCAM", bytes.Repeat([]byte{0xff}, 17))

	data := makeVOX(150, layer, note, sizeChunk(1, 1, 1), camera, voxelChunk(xyzi{0, 0, 0, 2}))

	vox, err := ParseVOXBytes(data)
	if err != nil {
		t.Fatalf("ParseVOXBytes failed: %v", err)
	}
	for _, tag := range []string{"LAYR", "NOTE", "rCAM", "SIZE", "XYZI"} {
		if vox.ChunkCounts[tag] != 1 {
			t.Errorf("ChunkCounts[%s] = %d, want 1", tag, vox.ChunkCounts[tag])
		}
	}
	if vox.Models[0].Voxels[0] != 1 {
		t.Errorf("voxel id = %d, want 1", vox.Models[0].Voxels[0])
	}
}

func TestParseVOX_ExtraContentSkipped(t *testing.T) {
	// SIZE with trailing padding inside its declared content
	size := makeChunk("SIZE", append(int32s(1, 1, 1), 0xAA, 0xBB, 0xCC, 0xDD))

	vox, err := ParseVOXBytes(makeVOX(150, size, voxelChunk(xyzi{0, 0, 0, 3})))
	if err != nil {
		t.Fatalf("ParseVOXBytes failed: %v", err)
	}
	if vox.ModelCount() != 1 || vox.Models[0].Voxels[0] != 2 {
		t.Errorf("model not decoded after padded SIZE chunk")
	}
}

func TestParseVOX_MultipleModels(t *testing.T) {
	data := makeVOX(150,
		sizeChunk(1, 1, 1), voxelChunk(xyzi{0, 0, 0, 1}),
		sizeChunk(2, 1, 1), voxelChunk(xyzi{1, 0, 0, 9}),
	)

	vox, err := ParseVOXBytes(data)
	if err != nil {
		t.Fatalf("ParseVOXBytes failed: %v", err)
	}
	if vox.ModelCount() != 2 {
		t.Fatalf("ModelCount = %d, want 2", vox.ModelCount())
	}
	if vox.Models[1].Size.X != 2 || vox.Models[1].At(1, 0, 0) != 8 {
		t.Errorf("second model decoded wrong: %+v", vox.Models[1])
	}
	if _, err := vox.Volume(2); !errors.Is(err, ErrModelOutOfRange) {
		t.Errorf("Volume(2) error = %v, want ErrModelOutOfRange", err)
	}
}

func TestParseVOX_Palette(t *testing.T) {
	raw := make([]byte, 256*4)
	for i := 0; i < 256; i++ {
		raw[i*4] = byte(i)
		raw[i*4+1] = 10
		raw[i*4+2] = 20
		raw[i*4+3] = 255
	}

	vox, err := ParseVOXBytes(makeVOX(150, makeChunk("RGBA", raw)))
	if err != nil {
		t.Fatalf("ParseVOXBytes failed: %v", err)
	}
	colors := vox.PaletteColors()
	if colors[7] != (color.RGBA{R: 7, G: 10, B: 20, A: 255}) {
		t.Errorf("colors[7] = %v", colors[7])
	}
}

func TestDefaultPalette(t *testing.T) {
	vox, err := ParseVOXBytes(makeVOX(150))
	if err != nil {
		t.Fatalf("ParseVOXBytes failed: %v", err)
	}
	p := vox.PaletteColors()

	tests := []struct {
		id   int
		want color.RGBA
	}{
		{0, color.RGBA{0xff, 0xff, 0xff, 0xff}},
		{1, color.RGBA{0xff, 0xff, 0xcc, 0xff}},
		{214, color.RGBA{0x00, 0x00, 0x33, 0xff}},
		{215, color.RGBA{0xee, 0x00, 0x00, 0xff}},
		{225, color.RGBA{0x00, 0xee, 0x00, 0xff}},
		{254, color.RGBA{0x11, 0x11, 0x11, 0xff}},
		{255, color.RGBA{}},
	}
	for _, tt := range tests {
		if p[tt.id] != tt.want {
			t.Errorf("palette[%d] = %v, want %v", tt.id, p[tt.id], tt.want)
		}
	}
}

func TestParseVOXFile(t *testing.T) {
	path := "testdata/scene.vox"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("test file not found, run: go run testdata/generate_vox.go")
	}

	vox, err := ParseVOXFile(path)
	if err != nil {
		t.Fatalf("ParseVOXFile failed: %v", err)
	}
	if vox.ModelCount() != 2 {
		t.Errorf("ModelCount = %d, want 2", vox.ModelCount())
	}
	placements, _ := vox.Placements()
	if len(placements) != 3 {
		t.Errorf("got %d placements, want 3", len(placements))
	}
}

func TestParseVOX_Reader(t *testing.T) {
	data := makeVOX(150, sizeChunk(1, 1, 1), voxelChunk())
	vox, err := ParseVOX(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseVOX failed: %v", err)
	}
	if vox.ModelCount() != 1 {
		t.Errorf("ModelCount = %d, want 1", vox.ModelCount())
	}
}
