package formats

import (
	"bytes"
	"encoding/binary"
	"strconv"
)

// makeChunk encodes a chunk with the given content and already-encoded
// children.
func makeChunk(tag string, content []byte, children ...[]byte) []byte {
	var kids bytes.Buffer
	for _, c := range children {
		kids.Write(c)
	}
	var buf bytes.Buffer
	buf.WriteString(tag)
	binary.Write(&buf, binary.LittleEndian, int32(len(content)))
	binary.Write(&buf, binary.LittleEndian, int32(kids.Len()))
	buf.Write(content)
	buf.Write(kids.Bytes())
	return buf.Bytes()
}

// makeVOX wraps chunks into a MAIN chunk behind a VOX header.
func makeVOX(version int32, chunks ...[]byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("VOX ")
	binary.Write(&buf, binary.LittleEndian, version)
	buf.Write(makeChunk("MAIN", nil, chunks...))
	return buf.Bytes()
}

func int32s(vals ...int) []byte {
	var buf bytes.Buffer
	for _, v := range vals {
		binary.Write(&buf, binary.LittleEndian, int32(v))
	}
	return buf.Bytes()
}

// makeDict encodes alternating keys and values.
func makeDict(kv ...string) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(len(kv)/2))
	for _, s := range kv {
		binary.Write(&buf, binary.LittleEndian, int32(len(s)))
		buf.WriteString(s)
	}
	return buf.Bytes()
}

// sizeChunk encodes a SIZE chunk for an x*y*z model (y up).
func sizeChunk(x, y, z int) []byte {
	return makeChunk("SIZE", int32s(x, z, y))
}

// xyzi is a voxel record in (x, y, z) order with a colour index.
type xyzi struct {
	x, y, z int
	ci      byte
}

func voxelChunk(voxels ...xyzi) []byte {
	var buf bytes.Buffer
	buf.Write(int32s(len(voxels)))
	for _, v := range voxels {
		buf.Write([]byte{byte(v.x), byte(v.z), byte(v.y), v.ci})
	}
	return makeChunk("XYZI", buf.Bytes())
}

func materialChunk(id int, kv ...string) []byte {
	return makeChunk("MATL", append(int32s(id), makeDict(kv...)...))
}

// transformChunk encodes an nTRN node with a single frame.
func transformChunk(id, child int, frame ...string) []byte {
	var buf bytes.Buffer
	buf.Write(int32s(id))
	buf.Write(makeDict())
	buf.Write(int32s(child, -1, -1, 1))
	buf.Write(makeDict(frame...))
	return makeChunk("nTRN", buf.Bytes())
}

func groupChunk(id int, children ...int) []byte {
	var buf bytes.Buffer
	buf.Write(int32s(id))
	buf.Write(makeDict())
	buf.Write(int32s(len(children)))
	buf.Write(int32s(children...))
	return makeChunk("nGRP", buf.Bytes())
}

func shapeChunk(id int, models ...int) []byte {
	var buf bytes.Buffer
	buf.Write(int32s(id))
	buf.Write(makeDict())
	buf.Write(int32s(len(models)))
	for _, m := range models {
		buf.Write(int32s(m))
		buf.Write(makeDict())
	}
	return makeChunk("nSHP", buf.Bytes())
}

func translation(x, y, z int) []string {
	// stored as x, z, y
	return []string{"_t", strconv.Itoa(x) + " " + strconv.Itoa(z) + " " + strconv.Itoa(y)}
}
