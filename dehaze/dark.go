package dehaze

// DarkChannel returns the per-pixel minimum of the red, green and blue
// components of src. Components are clamped to [0, 1] first, so the result
// always lies in [0, 1]; non-finite components count as 0.
func DarkChannel(src *RGBImage) *Field {
	return darkChannel(src, 0)
}

func darkChannel(src *RGBImage, workers int) *Field {
	dark := NewField(src.Width, src.Height)
	parallelChunks(workers, src.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := src.Pix[y*src.Width*3 : (y+1)*src.Width*3]
			out := dark.Pix[y*src.Width : (y+1)*src.Width]
			for x := range out {
				r := unit(row[3*x])
				g := unit(row[3*x+1])
				b := unit(row[3*x+2])
				out[x] = min(r, g, b)
			}
		}
	})
	return dark
}

// unit clamps v to [0, 1], mapping NaN to 0.
func unit(v float32) float32 {
	return clamp32(finiteOr(v, 0), 0, 1)
}
