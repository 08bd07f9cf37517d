package dehaze

// Window geometry of the local statistics.
const (
	// WindowSize is the edge of the square neighbourhood the mean and
	// variance are taken over.
	WindowSize = 16
	// WindowRadius is the offset of the window start from its pixel. A pixel
	// at x covers [x-WindowRadius, x+WindowSize-WindowRadius-1].
	WindowRadius = WindowSize / 2
	// VarianceEpsilon floors variance wherever it is used as a divisor.
	VarianceEpsilon = 1e-6

	windowArea = WindowSize * WindowSize
)

// Statistics holds the windowed moments of a dark channel.
type Statistics struct {
	// Mean is the local average over the WindowSize^2 window.
	Mean *Field
	// Variance is the local population variance, never negative.
	Variance *Field
	// TileMax holds one maximum per TileSize x TileSize tile and is the base
	// level of the max pyramid.
	TileMax *Field
}

// ComputeStatistics computes the windowed mean and variance of dark and its
// tile maxima with the given strategy.
func ComputeStatistics(dark *Field, strategy Strategy) *Statistics {
	return computeStatistics(dark, strategy, 0)
}

func computeStatistics(dark *Field, strategy Strategy, workers int) *Statistics {
	if strategy == StrategySeparable {
		return separableStatistics(dark, workers)
	}
	return tiledStatistics(dark, defaultWorkspacePool, workers)
}

// windowMoments turns a window sum and sum of squares into mean and
// population variance.
func windowMoments(s, s2 float64) (mean, variance float32) {
	m := s / windowArea
	v := (s2 - s*s/windowArea) / windowArea
	if v < 0 {
		v = 0
	}
	return float32(m), float32(v)
}

// tileCount returns the number of tiles covering n pixels.
func tileCount(n int) int {
	return (n + TileSize - 1) / TileSize
}

// separableStatistics runs a horizontal box-sum pass into partial sums, then
// a vertical pass over those partial sums.
func separableStatistics(dark *Field, workers int) *Statistics {
	w, h := dark.Width, dark.Height
	rowSum := make([]float64, w*h)
	rowSumSq := make([]float64, w*h)

	parallelChunks(workers, h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var s, s2 float64
				for dx := -WindowRadius; dx < WindowSize-WindowRadius; dx++ {
					v := float64(dark.At(x+dx, y))
					s += v
					s2 += v * v
				}
				rowSum[y*w+x] = s
				rowSumSq[y*w+x] = s2
			}
		}
	})

	mean := NewField(w, h)
	variance := NewField(w, h)
	parallelChunks(workers, h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var s, s2 float64
				for dy := -WindowRadius; dy < WindowSize-WindowRadius; dy++ {
					i := clampInt(y+dy, 0, h-1)*w + x
					s += rowSum[i]
					s2 += rowSumSq[i]
				}
				mean.Pix[y*w+x], variance.Pix[y*w+x] = windowMoments(s, s2)
			}
		}
	})

	return &Statistics{
		Mean:     mean,
		Variance: variance,
		TileMax:  tileMaxima(dark, workers),
	}
}

// tileMaxima reduces dark to one maximum per TileSize x TileSize tile,
// considering in-bounds pixels only.
func tileMaxima(dark *Field, workers int) *Field {
	tw, th := tileCount(dark.Width), tileCount(dark.Height)
	out := NewField(tw, th)
	parallelChunks(workers, th, func(t0, t1 int) {
		for ty := t0; ty < t1; ty++ {
			for tx := 0; tx < tw; tx++ {
				x1 := min((tx+1)*TileSize, dark.Width)
				y1 := min((ty+1)*TileSize, dark.Height)
				m := float32(0)
				for y := ty * TileSize; y < y1; y++ {
					for x := tx * TileSize; x < x1; x++ {
						m = max(m, dark.Pix[y*dark.Width+x])
					}
				}
				out.Pix[ty*tw+tx] = m
			}
		}
	})
	return out
}
