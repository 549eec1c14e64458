package formats

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/elliotchance/orderedmap/v2"
)

// chunkReader reads little-endian primitives from an in-memory VOX stream.
// The first failure is sticky: later reads return zero values and err keeps
// the original failure.
type chunkReader struct {
	data []byte
	pos  int
	base int64 // absolute offset of data[0]
	err  error

	// short is the error wrapped into a FormatError when data runs out.
	short error
}

func newChunkReader(data []byte, base int64, short error) *chunkReader {
	return &chunkReader{data: data, base: base, short: short}
}

// offset returns the absolute stream position.
func (r *chunkReader) offset() int64 {
	return r.base + int64(r.pos)
}

func (r *chunkReader) remaining() int {
	return len(r.data) - r.pos
}

func (r *chunkReader) fail(err error) {
	if r.err == nil {
		r.err = &FormatError{Offset: r.offset(), Err: err}
	}
}

// take returns the next n bytes without copying.
func (r *chunkReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 {
		r.fail(fmt.Errorf("%w: %d", ErrNegativeLength, n))
		return nil
	}
	if n > r.remaining() {
		r.fail(fmt.Errorf("%w: need %d bytes, have %d", r.short, n, r.remaining()))
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *chunkReader) readByte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *chunkReader) readInt32() int32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (r *chunkReader) readInt() int {
	return int(r.readInt32())
}

// readTag reads a fixed-length 4-byte chunk tag.
func (r *chunkReader) readTag() string {
	b := r.take(4)
	if b == nil {
		return ""
	}
	return string(b)
}

// readString reads an int32 length followed by that many UTF-8 bytes.
func (r *chunkReader) readString() string {
	n := r.readInt()
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *chunkReader) skip(n int) {
	r.take(n)
}

// readCount reads an element count and checks that count elements of at least
// minSize bytes each can still fit in the stream.
func (r *chunkReader) readCount(minSize int) int {
	n := r.readInt()
	if r.err != nil {
		return 0
	}
	if n < 0 {
		r.fail(fmt.Errorf("%w: count %d", ErrNegativeLength, n))
		return 0
	}
	if n > r.remaining()/minSize {
		r.fail(fmt.Errorf("%w: %d elements of %d bytes, have %d", r.short, n, minSize, r.remaining()))
		return 0
	}
	return n
}

// readDict reads a VOX DICT: an int32 entry count followed by
// length-prefixed key and value strings.
func (r *chunkReader) readDict() Dict {
	n := r.readCount(8)
	d := NewDict()
	for i := 0; i < n && r.err == nil; i++ {
		key := r.readString()
		value := r.readString()
		if r.err == nil {
			d.Set(key, value)
		}
	}
	return d
}

// sub splits off the next n bytes as a bounded reader. Short reads inside
// the returned reader fail with short.
func (r *chunkReader) sub(n int, short error) *chunkReader {
	start := r.offset()
	b := r.take(n)
	if b == nil && n != 0 {
		return &chunkReader{base: start, err: r.err, short: short}
	}
	return newChunkReader(b, start, short)
}

// chunkHeader is the 8 bytes following a chunk tag.
type chunkHeader struct {
	Content  int
	Children int
}

func (r *chunkReader) readChunkHeader() chunkHeader {
	h := chunkHeader{Content: r.readInt(), Children: r.readInt()}
	if r.err == nil && (h.Content < 0 || h.Children < 0) {
		r.fail(fmt.Errorf("%w: chunk content %d, children %d", ErrNegativeLength, h.Content, h.Children))
	}
	return h
}

// Dict is an insertion-ordered string dictionary used for chunk attributes.
type Dict struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewDict returns an empty dictionary.
func NewDict() Dict {
	return Dict{m: orderedmap.NewOrderedMap[string, string]()}
}

// Set stores value under key. A repeated key keeps its first position.
func (d Dict) Set(key, value string) {
	d.m.Set(key, value)
}

// Get returns the raw value for key.
func (d Dict) Get(key string) (string, bool) {
	if d.m == nil {
		return "", false
	}
	return d.m.Get(key)
}

// Has reports whether key is present.
func (d Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Len returns the number of entries.
func (d Dict) Len() int {
	if d.m == nil {
		return 0
	}
	return d.m.Len()
}

// Keys returns the keys in insertion order.
func (d Dict) Keys() []string {
	if d.m == nil {
		return nil
	}
	return d.m.Keys()
}

// String returns the value for key, or def when absent.
func (d Dict) String(key, def string) string {
	if v, ok := d.Get(key); ok {
		return v
	}
	return def
}

// Float parses the value for key as a float. ok is false when the key is
// absent or the value is not a number.
func (d Dict) Float(key string) (value float32, ok bool) {
	s, found := d.Get(key)
	if !found {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}

// Int parses the value for key as a base-10 integer.
func (d Dict) Int(key string) (value int, ok bool) {
	s, found := d.Get(key)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool reports whether key holds "1" or "true".
func (d Dict) Bool(key string) bool {
	s, _ := d.Get(key)
	return s == "1" || s == "true"
}
