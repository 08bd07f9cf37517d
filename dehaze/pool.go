package dehaze

import (
	"sync"
	"sync/atomic"
)

// Tile geometry of the tiled statistics strategy.
const (
	// TileSize is the edge of an output tile. It equals WindowSize so one
	// tile maximum seeds one texel of the max pyramid base.
	TileSize = 16
	// SupportSize is the edge of the region a tile reads: the tile plus a
	// WindowRadius halo on each side.
	SupportSize = TileSize + 2*WindowRadius
	// satStride is the row stride of a summed-area table with a zero guard
	// row and column.
	satStride = SupportSize + 1
)

// tileWorkspace is the scratch arena one tile uses while it is reduced.
// Every cell is rewritten by load, so no data outlives the tile.
type tileWorkspace struct {
	sum   [satStride * satStride]float64
	sumSq [satStride * satStride]float64
}

// WorkspacePool recycles tile workspaces and counts how often a fresh
// arena had to be allocated.
type WorkspacePool struct {
	pool   sync.Pool
	gets   int64 // atomic
	allocs int64 // atomic
}

// NewWorkspacePool creates an empty pool.
func NewWorkspacePool() *WorkspacePool {
	p := &WorkspacePool{}
	p.pool.New = func() any {
		atomic.AddInt64(&p.allocs, 1)
		return new(tileWorkspace)
	}
	return p
}

// defaultWorkspacePool backs the tiled strategy.
var defaultWorkspacePool = NewWorkspacePool()

func (p *WorkspacePool) get() *tileWorkspace {
	atomic.AddInt64(&p.gets, 1)
	return p.pool.Get().(*tileWorkspace)
}

func (p *WorkspacePool) put(ws *tileWorkspace) {
	p.pool.Put(ws)
}

// Stats returns the number of workspaces handed out and the number that
// had to be allocated.
func (p *WorkspacePool) Stats() (gets, allocs int64) {
	return atomic.LoadInt64(&p.gets), atomic.LoadInt64(&p.allocs)
}

// ResetStats zeroes the counters.
func (p *WorkspacePool) ResetStats() {
	atomic.StoreInt64(&p.gets, 0)
	atomic.StoreInt64(&p.allocs, 0)
}

// DefaultWorkspacePool returns the pool used by StrategyTiled.
func DefaultWorkspacePool() *WorkspacePool {
	return defaultWorkspacePool
}
