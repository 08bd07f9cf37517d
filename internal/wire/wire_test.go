package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestBufferLayout(t *testing.T) {
	b := NewBuffer(0)
	b.WriteUint32(0x12345678)
	b.WriteFloat32(1)
	b.WriteString("mean")
	b.WriteByte(7)
	b.WriteBytes([]byte{8, 9})

	want := []byte{
		0x78, 0x56, 0x34, 0x12,
		0x00, 0x00, 0x80, 0x3F,
		'm', 'e', 'a', 'n', 0,
		7,
		8, 9,
	}
	if !bytes.Equal(b.Bytes(), want) {
		t.Errorf("Bytes() = % x, want % x", b.Bytes(), want)
	}
}

func TestReaderRoundTrip(t *testing.T) {
	b := NewBuffer(64)
	b.WriteUint32(42)
	b.WriteFloat32(-0.125)
	b.WriteString("transmission")
	b.WriteBytes([]byte{1, 2, 3})

	r := NewReader(b.Bytes())
	if v, err := r.ReadUint32(); err != nil || v != 42 {
		t.Errorf("ReadUint32() = %v, %v", v, err)
	}
	if v, err := r.ReadFloat32(); err != nil || v != -0.125 {
		t.Errorf("ReadFloat32() = %v, %v", v, err)
	}
	if s, err := r.ReadString(64); err != nil || s != "transmission" {
		t.Errorf("ReadString() = %q, %v", s, err)
	}
	p, err := r.Next(3)
	if err != nil || !bytes.Equal(p, []byte{1, 2, 3}) {
		t.Errorf("Next(3) = %v, %v", p, err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	if _, err := r.Next(1); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Next(1) at end error = %v, want %v", err, ErrShortBuffer)
	}
}

func TestReaderShort(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if _, err := r.ReadUint32(); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("ReadUint32() error = %v, want %v", err, ErrShortBuffer)
	}
	if r.Len() != 3 {
		t.Errorf("Len() after failed read = %d, want 3", r.Len())
	}
	if _, err := r.Next(-1); !errors.Is(err, ErrNegativeSize) {
		t.Errorf("Next(-1) error = %v, want %v", err, ErrNegativeSize)
	}
}

func TestReadString(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		maxLen int
		want   string
		err    error
	}{
		{"terminated", "dark\x00rest", 8, "dark", nil},
		{"empty", "\x00", 8, "", nil},
		{"exactly max", "abcd\x00", 4, "abcd", nil},
		{"too long", "abcdef\x00", 4, "", ErrUnterminated},
		{"truncated", "abc", 8, "", ErrShortBuffer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader([]byte(tt.data))
			got, err := r.ReadString(tt.maxLen)
			if !errors.Is(err, tt.err) {
				t.Fatalf("ReadString() error = %v, want %v", err, tt.err)
			}
			if got != tt.want {
				t.Errorf("ReadString() = %q, want %q", got, tt.want)
			}
			if err != nil && r.Len() != len(tt.data) {
				t.Errorf("Len() after failure = %d, want %d", r.Len(), len(tt.data))
			}
		})
	}
}
