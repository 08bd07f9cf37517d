// Package wire provides the little-endian primitives of the capture file
// format: a bounds-checked Reader over a byte slice and a growing Buffer
// to build records in.
package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrShortBuffer is returned when a read runs past the end of the data.
	ErrShortBuffer = errors.New("wire: buffer too short")

	// ErrNegativeSize is returned when a size parameter is negative.
	ErrNegativeSize = errors.New("wire: negative size")

	// ErrUnterminated is returned when a string has no null terminator.
	ErrUnterminated = errors.New("wire: unterminated string")
)

// ByteOrder is the byte order of every multi-byte value.
var ByteOrder = binary.LittleEndian

// Reader reads little-endian values from a byte slice.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}

// Next returns the next n bytes without copying them. The result aliases
// the reader's data.
func (r *Reader) Next(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	if n > r.Len() {
		return nil, ErrShortBuffer
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.Next(4)
	if err != nil {
		return 0, err
	}
	return ByteOrder.Uint32(b), nil
}

// ReadFloat32 reads an IEEE 754 single.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadString reads a null-terminated string of at most maxLen bytes. The
// terminator is consumed. On failure the position is unchanged.
func (r *Reader) ReadString(maxLen int) (string, error) {
	start := r.pos
	end := min(len(r.data), start+maxLen+1)
	for i := start; i < end; i++ {
		if r.data[i] == 0 {
			r.pos = i + 1
			return string(r.data[start:i]), nil
		}
	}
	if end == len(r.data) && end-start <= maxLen {
		return "", ErrShortBuffer
	}
	return "", ErrUnterminated
}

// Buffer is a growing little-endian write buffer.
type Buffer struct {
	data []byte
}

// NewBuffer creates a Buffer with the given initial capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Bytes returns the written data. The slice is valid until the next write.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// WriteByte appends a single byte. It never fails.
func (b *Buffer) WriteByte(c byte) error {
	b.data = append(b.data, c)
	return nil
}

// WriteBytes appends p.
func (b *Buffer) WriteBytes(p []byte) {
	b.data = append(b.data, p...)
}

// WriteUint32 appends an unsigned 32-bit integer.
func (b *Buffer) WriteUint32(v uint32) {
	b.data = ByteOrder.AppendUint32(b.data, v)
}

// WriteFloat32 appends an IEEE 754 single.
func (b *Buffer) WriteFloat32(v float32) {
	b.WriteUint32(math.Float32bits(v))
}

// WriteString appends s followed by a null terminator.
func (b *Buffer) WriteString(s string) {
	b.data = append(b.data, s...)
	b.data = append(b.data, 0)
}
