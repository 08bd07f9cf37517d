package capture

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/mrjoshuak/go-dehaze/half"
)

// maxDecodedSize is the largest payload a MaxDimension square field needs.
const maxDecodedSize = 2 * MaxDimension * MaxDimension

// zstdBlockMax is the most a single zstd block can produce. Every block
// that produces output costs at least four bytes of input.
const zstdBlockMax = 128 << 10

var encoderPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		return enc
	},
}

var decoderPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(maxDecodedSize),
			zstd.WithDecodeAllCapLimit(true))
		return dec
	},
}

// encodeSamples packs samples as binary16, splits the low and high bytes
// into two planes, differences each byte from its predecessor and
// compresses the result with zstd.
func encodeSamples(samples []float32) ([]byte, error) {
	raw := make([]byte, 2*len(samples))
	if _, err := half.EncodeFloat32(raw, samples); err != nil {
		return nil, err
	}
	planes := splitPlanes(raw)
	deltaEncode(planes)

	enc := encoderPool.Get().(*zstd.Encoder)
	defer encoderPool.Put(enc)
	return enc.EncodeAll(planes, nil), nil
}

// decodeSamples reverses encodeSamples into n float32 samples. The output
// buffer is only allocated once the frame header and the payload length
// can account for 2n bytes.
func decodeSamples(payload []byte, n int) ([]float32, error) {
	want := 2 * n
	var hdr zstd.Header
	if err := hdr.Decode(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if hdr.Skippable || (hdr.HasFCS && hdr.FrameContentSize != uint64(want)) {
		return nil, fmt.Errorf("%w: frame holds %d bytes, want %d", ErrCorrupted, hdr.FrameContentSize, want)
	}
	if limit := uint64(len(payload)/4+1) * zstdBlockMax; uint64(want) > limit {
		return nil, fmt.Errorf("%w: %d byte payload cannot hold %d bytes", ErrCorrupted, len(payload), want)
	}

	dec := decoderPool.Get().(*zstd.Decoder)
	defer decoderPool.Put(dec)

	planes, err := dec.DecodeAll(payload, make([]byte, 0, want))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if len(planes) != want {
		return nil, fmt.Errorf("%w: payload holds %d bytes, want %d", ErrCorrupted, len(planes), want)
	}
	deltaDecode(planes)
	raw := joinPlanes(planes)

	samples := make([]float32, n)
	if err := half.DecodeFloat32(samples, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return samples, nil
}

// splitPlanes moves the even bytes of src to the first half of the result
// and the odd bytes to the second half.
//
//	[A0 A1 B0 B1 C0 C1] -> [A0 B0 C0 A1 B1 C1]
func splitPlanes(src []byte) []byte {
	dst := make([]byte, len(src))
	h := (len(src) + 1) / 2
	for i, b := range src {
		if i%2 == 0 {
			dst[i/2] = b
		} else {
			dst[h+i/2] = b
		}
	}
	return dst
}

// joinPlanes reverses splitPlanes.
func joinPlanes(src []byte) []byte {
	dst := make([]byte, len(src))
	h := (len(src) + 1) / 2
	for i := 0; i < h; i++ {
		dst[2*i] = src[i]
	}
	for i := 0; i < len(src)-h; i++ {
		dst[2*i+1] = src[h+i]
	}
	return dst
}

// deltaEncode replaces every byte after the first with its difference from
// the previous byte, in place.
func deltaEncode(data []byte) {
	for i := len(data) - 1; i >= 1; i-- {
		data[i] -= data[i-1]
	}
}

// deltaDecode reverses deltaEncode in place.
func deltaDecode(data []byte) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
