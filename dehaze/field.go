// Package dehaze removes atmospheric haze from rendered frames.
//
// The pipeline follows the dark channel prior: the per-pixel minimum color
// component is treated as a haze density proxy, its windowed mean and
// variance drive an adaptive Wiener filter that estimates the haze veil, a
// pyramid of tile maxima gives a spatially varying airlight, and the
// single-scattering model is inverted into a transmission map. Fog is then
// reintroduced in luma along that transmission so the effect fades smoothly
// instead of switching on and off.
//
// Each frame is processed independently:
//
//	est, err := dehaze.Analyze(src, depth, dehaze.DefaultConfig())
//	// ... other effects may modify a copy of src here ...
//	out, err := est.Reintroduce(current)
package dehaze

import (
	"errors"
	"math"

	"github.com/mrjoshuak/go-dehaze/half"
)

// Errors reported by the pipeline.
var (
	ErrEmptyImage    = errors.New("dehaze: image has no pixels")
	ErrSizeMismatch  = errors.New("dehaze: buffer dimensions do not match")
	ErrInvalidConfig = errors.New("dehaze: invalid configuration")
	ErrInvalidPlan   = errors.New("dehaze: pyramid level range out of bounds")
)

// Field is a dense single-channel raster stored row-major.
type Field struct {
	Width  int
	Height int
	Pix    []float32
}

// NewField allocates a zeroed width x height field.
func NewField(width, height int) *Field {
	return &Field{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height),
	}
}

// NewConstantField allocates a field filled with v.
func NewConstantField(width, height int, v float32) *Field {
	f := NewField(width, height)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

// At returns the sample at (x, y). Out-of-range coordinates are clamped to
// the nearest edge texel.
func (f *Field) At(x, y int) float32 {
	x = clampInt(x, 0, f.Width-1)
	y = clampInt(y, 0, f.Height-1)
	return f.Pix[y*f.Width+x]
}

// Set writes v at (x, y). The coordinates must be in range.
func (f *Field) Set(x, y int, v float32) {
	f.Pix[y*f.Width+x] = v
}

// Sample reads the field bilinearly at normalized texture coordinates
// (u, v), with texel centres at (i+0.5)/size and clamp-to-edge addressing.
func (f *Field) Sample(u, v float32) float32 {
	fx := u*float32(f.Width) - 0.5
	fy := v*float32(f.Height) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	a := f.At(x0, y0)
	b := f.At(x0+1, y0)
	c := f.At(x0, y0+1)
	d := f.At(x0+1, y0+1)

	top := a + (b-a)*tx
	bottom := c + (d-c)*tx
	return top + (bottom-top)*ty
}

// SameSize reports whether g has the dimensions of f.
func (f *Field) SameSize(g *Field) bool {
	return f.Width == g.Width && f.Height == g.Height
}

// fits reports whether f is non-nil, width x height and fully backed.
func (f *Field) fits(width, height int) bool {
	return f != nil && f.Width == width && f.Height == height && len(f.Pix) == width*height
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	c := &Field{Width: f.Width, Height: f.Height, Pix: make([]float32, len(f.Pix))}
	copy(c.Pix, f.Pix)
	return c
}

// quantize applies the storage precision to every sample of f.
func (f *Field) quantize(p Precision) {
	if p == PrecisionHalf {
		half.QuantizeSlice(f.Pix)
	}
}

// RGBImage holds interleaved linear RGB samples, three float32 per pixel.
type RGBImage struct {
	Width  int
	Height int
	Pix    []float32
}

// NewRGBImage allocates a black width x height image.
func NewRGBImage(width, height int) *RGBImage {
	return &RGBImage{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*3),
	}
}

// RGB returns the color at (x, y), clamping coordinates to the edge.
func (m *RGBImage) RGB(x, y int) (r, g, b float32) {
	x = clampInt(x, 0, m.Width-1)
	y = clampInt(y, 0, m.Height-1)
	i := (y*m.Width + x) * 3
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// SetRGB writes the color at (x, y). The coordinates must be in range.
func (m *RGBImage) SetRGB(x, y int, r, g, b float32) {
	i := (y*m.Width + x) * 3
	m.Pix[i] = r
	m.Pix[i+1] = g
	m.Pix[i+2] = b
}

// Clone returns a deep copy of m.
func (m *RGBImage) Clone() *RGBImage {
	c := &RGBImage{Width: m.Width, Height: m.Height, Pix: make([]float32, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

func (m *RGBImage) validate() error {
	if m == nil || m.Width <= 0 || m.Height <= 0 {
		return ErrEmptyImage
	}
	if len(m.Pix) != m.Width*m.Height*3 {
		return ErrSizeMismatch
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// finiteOr returns v, or fallback when v is NaN or infinite.
func finiteOr(v, fallback float32) float32 {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return fallback
	}
	return v
}
