package dehaze

import (
	"math/bits"
)

// ReduceOp selects how a 2x2 block collapses into one texel of the next
// pyramid level.
type ReduceOp int

const (
	// ReduceMax keeps the largest texel of the block.
	ReduceMax ReduceOp = iota
	// ReduceAverage keeps the mean of the block.
	ReduceAverage
)

// TileLevels is log2(TileSize): the max pyramid base sits this many levels
// below full resolution.
const TileLevels = 4

// PyramidDepth returns the number of levels of a full-resolution mip chain
// for a width x height buffer: the smallest L with 2^L >= max(width, height),
// plus one. It equals ceil(log2(2*max(width, height) - 1)).
func PyramidDepth(width, height int) int {
	n := max(width, height, 1)
	return bits.Len(uint(n-1)) + 1
}

// LevelSize returns the edge length of a mip level, halving with rounding
// up so odd edges keep their last texel.
func LevelSize(n, level int) int {
	s := (n + (1 << level) - 1) >> level
	return max(s, 1)
}

// MaxPyramidLevels returns the number of levels of the max pyramid whose
// base is the tile-maximum field of a width x height frame.
func MaxPyramidLevels(width, height int) int {
	return max(PyramidDepth(width, height)-TileLevels, 1)
}

// Pyramid is a chain of progressively reduced fields, level 0 finest.
type Pyramid struct {
	Op     ReduceOp
	Levels []*Field
}

// NumLevels returns the number of levels.
func (p *Pyramid) NumLevels() int {
	return len(p.Levels)
}

// Level returns level i.
func (p *Pyramid) Level(i int) *Field {
	return p.Levels[i]
}

// Coarsest returns the last level.
func (p *Pyramid) Coarsest() *Field {
	return p.Levels[len(p.Levels)-1]
}

// BuildPyramid reduces base levels-1 times with op. base becomes level 0.
func BuildPyramid(base *Field, levels int, op ReduceOp) *Pyramid {
	return buildPyramid(base, levels, op, 0)
}

// BuildMaxPyramid builds the max pyramid from a tile-maximum field.
func BuildMaxPyramid(tileMax *Field, levels int) *Pyramid {
	return BuildPyramid(tileMax, levels, ReduceMax)
}

// BuildVariancePyramid builds the averaged mip chain of a full-resolution
// variance field down to a single texel.
func BuildVariancePyramid(variance *Field) *Pyramid {
	return BuildPyramid(variance, PyramidDepth(variance.Width, variance.Height), ReduceAverage)
}

func buildPyramid(base *Field, levels int, op ReduceOp, workers int) *Pyramid {
	levels = max(levels, 1)
	p := &Pyramid{Op: op, Levels: make([]*Field, levels)}
	p.Levels[0] = base
	for l := 1; l < levels; l++ {
		prev := p.Levels[l-1]
		next := NewField(LevelSize(prev.Width, 1), LevelSize(prev.Height, 1))
		reduceLevel(prev, next, op, workers)
		p.Levels[l] = next
	}
	return p
}

// reduceLevel fills dst from the 2x2 blocks of src. Blocks that hang off
// an odd edge use only the texels that exist.
func reduceLevel(src, dst *Field, op ReduceOp, workers int) {
	parallelChunks(workers, dst.Height, func(y0, y1 int) {
		for dy := y0; dy < y1; dy++ {
			sy := dy * 2
			for dx := 0; dx < dst.Width; dx++ {
				sx := dx * 2

				var acc float32
				count := 0
				for y := sy; y < sy+2 && y < src.Height; y++ {
					for x := sx; x < sx+2 && x < src.Width; x++ {
						v := src.Pix[y*src.Width+x]
						if op == ReduceMax {
							if count == 0 || v > acc {
								acc = v
							}
						} else {
							acc += v
						}
						count++
					}
				}
				if op == ReduceAverage && count > 0 {
					acc /= float32(count)
				}
				dst.Pix[dy*dst.Width+dx] = acc
			}
		}
	})
}
