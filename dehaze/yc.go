package dehaze

// ITU-R BT.709 luma coefficients and chroma scales.
// Y  = 0.2126*R + 0.7152*G + 0.0722*B
// Cb = (B - Y) / 1.8556
// Cr = (R - Y) / 1.5748
const (
	kr709 = 0.2126
	kg709 = 0.7152
	kb709 = 0.0722

	cbScale709 = 2 * (1 - kb709) // 1.8556
	crScale709 = 2 * (1 - kr709) // 1.5748
)

// Luma returns the BT.709 luma of a linear RGB triple.
func Luma(r, g, b float32) float32 {
	return kr709*r + kg709*g + kb709*b
}

// RGBToYCbCr converts linear RGB to BT.709 luma and chroma.
func RGBToYCbCr(r, g, b float32) (y, cb, cr float32) {
	y = Luma(r, g, b)
	cb = (b - y) / cbScale709
	cr = (r - y) / crScale709
	return y, cb, cr
}

// YCbCrToRGB converts BT.709 luma and chroma back to linear RGB.
func YCbCrToRGB(y, cb, cr float32) (r, g, b float32) {
	r = y + crScale709*cr
	b = y + cbScale709*cb
	// G from Y = kr*R + kg*G + kb*B
	g = (y - kr709*r - kb709*b) / kg709
	return r, g, b
}
