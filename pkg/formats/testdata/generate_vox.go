//go:build ignore

// This program generates a test VOX file for unit tests.
// Run with: go run generate_vox.go
package main

import (
	"bytes"
	"encoding/binary"
	"os"
)

func main() {
	var children bytes.Buffer

	// Model 0: 3x3x3 solid cube, colour index 1
	children.Write(chunk("SIZE", ints(3, 3, 3)))
	var cube bytes.Buffer
	binary.Write(&cube, binary.LittleEndian, int32(27))
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			for z := 0; z < 3; z++ {
				cube.Write([]byte{byte(x), byte(y), byte(z), 1})
			}
		}
	}
	children.Write(chunk("XYZI", cube.Bytes()))

	// Model 1: 2x1x1 bar, glass (colour index 2) next to diffuse (colour index 3)
	children.Write(chunk("SIZE", ints(2, 1, 1)))
	var bar bytes.Buffer
	binary.Write(&bar, binary.LittleEndian, int32(2))
	bar.Write([]byte{0, 0, 0, 2})
	bar.Write([]byte{1, 0, 0, 3})
	children.Write(chunk("XYZI", bar.Bytes()))

	// Palette: grey ramp
	pal := make([]byte, 256*4)
	for i := 0; i < 256; i++ {
		pal[i*4], pal[i*4+1], pal[i*4+2], pal[i*4+3] = byte(i), byte(i), byte(i), 255
	}
	children.Write(chunk("RGBA", pal))

	// Materials: id 1 diffuse, id 2 glass
	children.Write(chunk("MATL", append(ints(1), dict("_type", "_diffuse")...)))
	children.Write(chunk("MATL", append(ints(2), dict("_type", "_glass", "_alpha", "0.5", "_rough", "0.1")...)))

	// Scene: root transform -> group -> two transformed shapes
	children.Write(transform(0, 1, "0 0 0", ""))
	children.Write(group(1, 2, 4))
	children.Write(transform(2, 3, "-4 0 2", ""))
	children.Write(shape(3, 0))
	children.Write(transform(4, 5, "4 0 2", "17"))
	children.Write(shape(5, 1))

	var buf bytes.Buffer
	buf.WriteString("VOX ")
	binary.Write(&buf, binary.LittleEndian, int32(150))
	buf.Write(chunkWithChildren("MAIN", nil, children.Bytes()))

	if err := os.WriteFile("scene.vox", buf.Bytes(), 0644); err != nil {
		panic(err)
	}

	println("Generated scene.vox:", buf.Len(), "bytes")
	println("  - 2 models (3x3x3 cube, 2x1x1 glass/diffuse bar)")
	println("  - 2 materials, custom palette")
	println("  - scene: 2 placed shapes")
}

func ints(vals ...int) []byte {
	var buf bytes.Buffer
	for _, v := range vals {
		binary.Write(&buf, binary.LittleEndian, int32(v))
	}
	return buf.Bytes()
}

func dict(kv ...string) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(len(kv)/2))
	for _, s := range kv {
		binary.Write(&buf, binary.LittleEndian, int32(len(s)))
		buf.WriteString(s)
	}
	return buf.Bytes()
}

func chunk(tag string, content []byte) []byte {
	return chunkWithChildren(tag, content, nil)
}

func chunkWithChildren(tag string, content, children []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(tag)
	binary.Write(&buf, binary.LittleEndian, int32(len(content)))
	binary.Write(&buf, binary.LittleEndian, int32(len(children)))
	buf.Write(content)
	buf.Write(children)
	return buf.Bytes()
}

func transform(id, child int, t, r string) []byte {
	var frame []string
	if t != "" {
		frame = append(frame, "_t", t)
	}
	if r != "" {
		frame = append(frame, "_r", r)
	}
	var buf bytes.Buffer
	buf.Write(ints(id))
	buf.Write(dict())
	buf.Write(ints(child, -1, 0, 1))
	buf.Write(dict(frame...))
	return chunk("nTRN", buf.Bytes())
}

func group(id int, children ...int) []byte {
	var buf bytes.Buffer
	buf.Write(ints(id))
	buf.Write(dict())
	buf.Write(ints(len(children)))
	buf.Write(ints(children...))
	return chunk("nGRP", buf.Bytes())
}

func shape(id, model int) []byte {
	var buf bytes.Buffer
	buf.Write(ints(id))
	buf.Write(dict())
	buf.Write(ints(1, model))
	buf.Write(dict())
	return chunk("nSHP", buf.Bytes())
}
