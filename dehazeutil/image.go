// Package dehazeutil provides file-level helpers around the dehaze
// pipeline.
//
// It loads sRGB images into linear dehaze.RGBImage buffers, loads depth
// maps, writes results back out and summarizes capture files.
//
// Example usage:
//
//	src, _ := dehazeutil.LoadImage("street.png")
//	depth, _ := dehazeutil.LoadDepth("street_depth.png", src.Width, src.Height, 50)
//	out, _ := dehaze.Process(src, depth, dehaze.DefaultConfig())
//	_ = dehazeutil.SaveImage("street_fog.png", out)
package dehazeutil

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/mrjoshuak/go-dehaze/dehaze"
)

// ===========================================
// Images
// ===========================================

// linearTable maps a 16-bit sRGB-encoded component to linear light.
var linearTable = sync.OnceValue(func() []float32 {
	lut := make([]float32, 1<<16)
	for i := range lut {
		v := float64(i) / 0xffff
		r, _, _ := colorful.Color{R: v, G: v, B: v}.LinearRgb()
		lut[i] = float32(r)
	}
	return lut
})

// LoadImage decodes a PNG, JPEG, BMP, TIFF or WebP file and converts its
// sRGB samples to linear RGB. Alpha is ignored.
func LoadImage(path string) (*dehaze.RGBImage, error) {
	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// FromImage converts an sRGB image to a linear RGBImage.
func FromImage(img image.Image) *dehaze.RGBImage {
	b := img.Bounds()
	out := dehaze.NewRGBImage(b.Dx(), b.Dy())
	lut := linearTable()
	dehaze.ParallelFor(b.Dy(), func(y int) {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if a != 0 && a != 0xffff {
				// Undo premultiplication.
				r, g, bl = r*0xffff/a, g*0xffff/a, bl*0xffff/a
			}
			out.SetRGB(x, y, lut[r], lut[g], lut[bl])
		}
	})
	return out
}

// ToImage converts a linear RGBImage to a 16-bit sRGB image. Components
// outside [0, 1] are clamped.
func ToImage(m *dehaze.RGBImage) *image.RGBA64 {
	img := image.NewRGBA64(image.Rect(0, 0, m.Width, m.Height))
	dehaze.ParallelFor(m.Height, func(y int) {
		for x := 0; x < m.Width; x++ {
			r, g, b := m.RGB(x, y)
			c := colorful.LinearRgb(float64(r), float64(g), float64(b)).Clamped()
			img.SetRGBA64(x, y, color.RGBA64{
				R: uint16(c.R*0xffff + 0.5),
				G: uint16(c.G*0xffff + 0.5),
				B: uint16(c.B*0xffff + 0.5),
				A: 0xffff,
			})
		}
	})
	return img
}

// SaveImage writes m as sRGB. The format follows the file extension: .png
// (16-bit), .tif/.tiff (16-bit, deflate), .bmp (8-bit) or .jpg/.jpeg.
func SaveImage(path string, m *dehaze.RGBImage) error {
	ext := strings.ToLower(filepath.Ext(path))
	var encode func(f *os.File, img image.Image) error
	switch ext {
	case ".png":
		encode = func(f *os.File, img image.Image) error { return png.Encode(f, img) }
	case ".tif", ".tiff":
		encode = func(f *os.File, img image.Image) error {
			return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
		}
	case ".bmp":
		encode = func(f *os.File, img image.Image) error { return bmp.Encode(f, img) }
	case ".jpg", ".jpeg":
		encode = func(f *os.File, img image.Image) error {
			return jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
		}
	default:
		return fmt.Errorf("dehazeutil: unsupported output format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, ToImage(m)); err != nil {
		f.Close()
		return fmt.Errorf("dehazeutil: encoding %s: %w", path, err)
	}
	return f.Close()
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("dehazeutil: decoding %s: %w", path, err)
	}
	return img, nil
}

// ===========================================
// Depth
// ===========================================

// LoadDepth decodes a grayscale depth image and returns a width x height
// field. Gray 0 maps to depth 0 and full white to far. The image is
// resampled bilinearly when its size differs from width x height.
func LoadDepth(path string, width, height int, far float32) (*dehaze.Field, error) {
	if width <= 0 || height <= 0 {
		return nil, dehaze.ErrEmptyImage
	}
	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return DepthFromImage(img, width, height, far), nil
}

// DepthFromImage converts img to a width x height depth field scaled to
// [0, far].
func DepthFromImage(img image.Image, width, height int, far float32) *dehaze.Field {
	gray := toGray16(img)
	if b := gray.Bounds(); b.Dx() != width || b.Dy() != height {
		gray = toGray16(resize.Resize(uint(width), uint(height), gray, resize.Bilinear))
	}

	out := dehaze.NewField(width, height)
	scale := far / 0xffff
	b := gray.Bounds()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.Set(x, y, float32(gray.Gray16At(b.Min.X+x, b.Min.Y+y).Y)*scale)
		}
	}
	return out
}

func toGray16(img image.Image) *image.Gray16 {
	if g, ok := img.(*image.Gray16); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray16(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g.Set(x, y, img.At(x, y))
		}
	}
	return g
}
