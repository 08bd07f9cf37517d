package dehaze

// tiledStatistics reduces each TileSize x TileSize output tile from its
// SupportSize x SupportSize support region with a summed-area table. Tiles
// are independent; each one borrows a workspace from pool for the duration
// of the tile only.
func tiledStatistics(dark *Field, pool *WorkspacePool, workers int) *Statistics {
	w, h := dark.Width, dark.Height
	tw, th := tileCount(w), tileCount(h)
	stats := &Statistics{
		Mean:     NewField(w, h),
		Variance: NewField(w, h),
		TileMax:  NewField(tw, th),
	}

	parallelChunks(workers, tw*th, func(t0, t1 int) {
		for t := t0; t < t1; t++ {
			ws := pool.get()
			ws.reduceTile(dark, stats, t%tw, t/tw)
			pool.put(ws)
		}
	})
	return stats
}

// reduceTile computes mean, variance and tile maximum for tile (tx, ty).
func (ws *tileWorkspace) reduceTile(dark *Field, stats *Statistics, tx, ty int) {
	ox, oy := tx*TileSize, ty*TileSize
	tileMax := ws.load(dark, ox, oy)

	// Row pass over the whole support region, then the column pass.
	for r := 1; r < satStride; r++ {
		row := r * satStride
		for c := 1; c < satStride; c++ {
			ws.sum[row+c] += ws.sum[row+c-1]
			ws.sumSq[row+c] += ws.sumSq[row+c-1]
		}
	}
	for c := 1; c < satStride; c++ {
		for r := 1; r < satStride; r++ {
			i := r*satStride + c
			ws.sum[i] += ws.sum[i-satStride]
			ws.sumSq[i] += ws.sumSq[i-satStride]
		}
	}

	x1 := min(ox+TileSize, dark.Width)
	y1 := min(oy+TileSize, dark.Height)
	for y := oy; y < y1; y++ {
		ly := y - oy
		for x := ox; x < x1; x++ {
			lx := x - ox
			s := ws.boxSum(ws.sum[:], lx, ly)
			s2 := ws.boxSum(ws.sumSq[:], lx, ly)
			i := y*dark.Width + x
			stats.Mean.Pix[i], stats.Variance.Pix[i] = windowMoments(s, s2)
		}
	}
	stats.TileMax.Pix[ty*stats.TileMax.Width+tx] = tileMax
}

// load copies the support region of the tile at (ox, oy) into the
// workspace with clamped reads and returns the maximum over the tile's
// in-bounds pixels.
func (ws *tileWorkspace) load(dark *Field, ox, oy int) float32 {
	for i := 0; i < satStride; i++ {
		ws.sum[i], ws.sumSq[i] = 0, 0
		ws.sum[i*satStride], ws.sumSq[i*satStride] = 0, 0
	}

	tileMax := float32(0)
	for sy := 0; sy < SupportSize; sy++ {
		y := oy - WindowRadius + sy
		inY := sy >= WindowRadius && sy < WindowRadius+TileSize && y < dark.Height
		for sx := 0; sx < SupportSize; sx++ {
			x := ox - WindowRadius + sx
			v := dark.At(x, y)
			i := (sy+1)*satStride + sx + 1
			ws.sum[i] = float64(v)
			ws.sumSq[i] = float64(v) * float64(v)
			if inY && sx >= WindowRadius && sx < WindowRadius+TileSize && x < dark.Width {
				tileMax = max(tileMax, v)
			}
		}
	}
	return tileMax
}

// boxSum returns the WindowSize^2 window sum for the tile-local pixel
// (lx, ly) from a prefix-summed table.
func (ws *tileWorkspace) boxSum(sat []float64, lx, ly int) float64 {
	// Pixel lx sits at support index lx+WindowRadius, so its window spans
	// support columns [lx, lx+WindowSize).
	r0, r1 := ly, ly+WindowSize
	c0, c1 := lx, lx+WindowSize
	return sat[r1*satStride+c1] - sat[r0*satStride+c1] - sat[r1*satStride+c0] + sat[r0*satStride+c0]
}
