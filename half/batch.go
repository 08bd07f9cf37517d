package half

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when a byte buffer cannot hold the samples.
var ErrShortBuffer = errors.New("half: buffer too short")

// QuantizeSlice rounds every element of data through binary16 in place.
func QuantizeSlice(data []float32) {
	i := 0
	for ; i+4 <= len(data); i += 4 {
		data[i] = Quantize(data[i])
		data[i+1] = Quantize(data[i+1])
		data[i+2] = Quantize(data[i+2])
		data[i+3] = Quantize(data[i+3])
	}
	for ; i < len(data); i++ {
		data[i] = Quantize(data[i])
	}
}

// EncodeFloat32 writes src as little-endian binary16 into dst and returns
// the number of bytes written. dst must hold 2*len(src) bytes.
func EncodeFloat32(dst []byte, src []float32) (int, error) {
	n := 2 * len(src)
	if len(dst) < n {
		return 0, ErrShortBuffer
	}
	for i, f := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], FromFloat32(f).Bits())
	}
	return n, nil
}

// DecodeFloat32 reads len(dst) little-endian binary16 samples from src.
func DecodeFloat32(dst []float32, src []byte) error {
	if len(src) < 2*len(dst) {
		return ErrShortBuffer
	}
	for i := range dst {
		dst[i] = FromBits(binary.LittleEndian.Uint16(src[2*i:])).Float32()
	}
	return nil
}
