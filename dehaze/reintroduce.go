package dehaze

import "fmt"

// TransmissionFloor is the smallest transmission the fog reintroducer
// divides by.
const TransmissionFloor = 0.05

// ReintroduceLuma blends the haze-free lumas recovered from the original
// and the current image and re-applies the scattering model:
//
//	ct = max(t, TransmissionFloor)
//	o  = (origLuma - A)/ct + A
//	n  = (curLuma  - A)/ct + A
//	b  = lerp(o, n, ct)
//	result = (b - A)*ct + A
//
// Low transmission favours the recovery from the original image.
func ReintroduceLuma(origLuma, curLuma, airlight, t float32) float32 {
	ct := max(finiteOr(t, 1), TransmissionFloor)
	a := airlight

	o := (origLuma-a)/ct + a
	n := (curLuma-a)/ct + a
	b := o + (n-o)*ct
	return (b-a)*ct + a
}

// ReintroduceFog recombines the fog-adjusted luma with the chroma of
// current. original is the pre-effect capture; current is the working image
// after any other effects. All buffers must share one size.
func ReintroduceFog(transmission, airlight *Field, original, current *RGBImage) (*RGBImage, error) {
	return reintroduceFog(transmission, airlight, original, current, 0)
}

func reintroduceFog(transmission, airlight *Field, original, current *RGBImage, workers int) (*RGBImage, error) {
	if err := current.validate(); err != nil {
		return nil, err
	}
	if err := original.validate(); err != nil {
		return nil, err
	}
	w, h := current.Width, current.Height
	if original.Width != w || original.Height != h ||
		!transmission.fits(w, h) || !airlight.fits(w, h) {
		return nil, fmt.Errorf("%w: reintroducing fog into a %dx%d image", ErrSizeMismatch, w, h)
	}

	out := NewRGBImage(w, h)
	parallelChunks(workers, h, func(y0, y1 int) {
		for i := y0 * w; i < y1*w; i++ {
			p := 3 * i
			origY := Luma(original.Pix[p], original.Pix[p+1], original.Pix[p+2])
			curY, cb, cr := RGBToYCbCr(current.Pix[p], current.Pix[p+1], current.Pix[p+2])

			y := ReintroduceLuma(origY, curY, airlight.Pix[i], transmission.Pix[i])
			r, g, b := YCbCrToRGB(y, cb, cr)
			out.Pix[p] = finiteOr(r, 0)
			out.Pix[p+1] = finiteOr(g, 0)
			out.Pix[p+2] = finiteOr(b, 0)
		}
	})
	return out, nil
}
