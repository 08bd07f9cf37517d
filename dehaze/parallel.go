package dehaze

import (
	"runtime"
	"sync"
)

// ParallelConfig configures how rows and tiles are spread over goroutines.
type ParallelConfig struct {
	// NumWorkers is the number of worker goroutines. 0 means runtime.GOMAXPROCS(0).
	NumWorkers int

	// GrainSize is the minimum number of rows or tiles per worker. Jobs with
	// fewer than GrainSize*NumWorkers items run on the calling goroutine.
	GrainSize int
}

// DefaultParallelConfig returns the default parallel configuration.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		NumWorkers: 0,
		GrainSize:  4,
	}
}

var (
	parallelConfig   = DefaultParallelConfig()
	parallelConfigMu sync.RWMutex
)

// SetParallelConfig sets the global parallel configuration.
func SetParallelConfig(config ParallelConfig) {
	parallelConfigMu.Lock()
	defer parallelConfigMu.Unlock()
	parallelConfig = config
}

// GetParallelConfig returns the current parallel configuration.
func GetParallelConfig() ParallelConfig {
	parallelConfigMu.RLock()
	defer parallelConfigMu.RUnlock()
	return parallelConfig
}

func effectiveWorkers(config ParallelConfig) int {
	if config.NumWorkers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return config.NumWorkers
}

// ParallelFor runs fn(i) for i in [0, n) using the global configuration.
func ParallelFor(n int, fn func(i int)) {
	parallelChunks(0, n, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// parallelChunks splits [0, n) into contiguous chunks, one per worker, and
// calls fn once per chunk. workers overrides the global worker count when
// positive. It returns after every chunk has finished.
func parallelChunks(workers, n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	config := GetParallelConfig()
	if workers > 0 {
		config.NumWorkers = workers
	}
	numWorkers := effectiveWorkers(config)
	grain := config.GrainSize
	if grain < 1 {
		grain = 1
	}

	if numWorkers == 1 || n < grain*numWorkers {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	chunkSize := (n + numWorkers - 1) / numWorkers
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
