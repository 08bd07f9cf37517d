package dehaze

import "fmt"

// Airlight level selection and range. The level constants are empirically
// tuned: the finest TileLevels mips never exist in the max pyramid, the tile
// base itself is skipped as too noisy, and the 1x1 coarsest level is skipped
// as over-smoothed whenever a level remains between the two.
const (
	AirlightFirstLevel = 1
	AirlightLevelSkip  = TileLevels

	AirlightMin = 0.05
	AirlightMax = 1.0
)

// airlightRange returns the half-open range of max pyramid levels averaged
// for a frame whose full-resolution pyramid depth is depth and whose max
// pyramid has numLevels levels. A single-level pyramid falls back to [0, 1).
func airlightRange(depth, numLevels int) (first, last int) {
	first = AirlightFirstLevel
	last = min(depth-AirlightLevelSkip, numLevels)
	if last <= first {
		return 0, min(1, numLevels)
	}
	if last == numLevels && last-1 > first {
		last--
	}
	return first, last
}

// EstimateAirlight averages max pyramid levels [first, last) sampled at the
// texture coordinate of every pixel of a width x height frame and clamps the
// result to [AirlightMin, AirlightMax].
func EstimateAirlight(maxPyr *Pyramid, first, last, width, height int) (*Field, error) {
	return estimateAirlight(maxPyr, first, last, width, height, 0)
}

func estimateAirlight(maxPyr *Pyramid, first, last, width, height, workers int) (*Field, error) {
	if first < 0 || last > maxPyr.NumLevels() || first >= last {
		return nil, fmt.Errorf("%w: levels [%d, %d) of %d", ErrInvalidPlan, first, last, maxPyr.NumLevels())
	}
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyImage
	}

	levels := maxPyr.Levels[first:last]
	scale := 1 / float32(len(levels))
	out := NewField(width, height)
	parallelChunks(workers, height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			v := (float32(y) + 0.5) / float32(height)
			for x := 0; x < width; x++ {
				u := (float32(x) + 0.5) / float32(width)
				var sum float32
				for _, level := range levels {
					sum += level.Sample(u, v)
				}
				out.Pix[y*width+x] = clampAirlight(sum * scale)
			}
		}
	})
	return out, nil
}

// clampAirlight bounds a to [AirlightMin, AirlightMax]; NaN maps to the
// floor.
func clampAirlight(a float32) float32 {
	return clamp32(finiteOr(a, AirlightMin), AirlightMin, AirlightMax)
}
