package dehaze

import (
	"sync/atomic"
	"testing"
)

func TestParallelConfig(t *testing.T) {
	orig := GetParallelConfig()
	defer SetParallelConfig(orig)

	SetParallelConfig(ParallelConfig{NumWorkers: 3, GrainSize: 1})
	if got := GetParallelConfig(); got.NumWorkers != 3 || got.GrainSize != 1 {
		t.Errorf("GetParallelConfig() = %+v", got)
	}
	if got := effectiveWorkers(ParallelConfig{}); got < 1 {
		t.Errorf("effectiveWorkers(zero) = %d, want >= 1", got)
	}
}

func TestParallelFor(t *testing.T) {
	orig := GetParallelConfig()
	defer SetParallelConfig(orig)

	for _, workers := range []int{1, 2, 7} {
		SetParallelConfig(ParallelConfig{NumWorkers: workers, GrainSize: 1})
		const n = 1000
		var hits [n]int32
		ParallelFor(n, func(i int) {
			atomic.AddInt32(&hits[i], 1)
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("workers=%d: index %d visited %d times", workers, i, h)
			}
		}
	}
}

func TestParallelChunksCoverRange(t *testing.T) {
	for _, tt := range []struct{ workers, n int }{{4, 0}, {4, 3}, {4, 100}, {3, 101}, {16, 17}} {
		var covered int64
		var calls int32
		parallelChunks(tt.workers, tt.n, func(start, end int) {
			if start >= end {
				t.Errorf("empty chunk [%d, %d)", start, end)
			}
			atomic.AddInt64(&covered, int64(end-start))
			atomic.AddInt32(&calls, 1)
		})
		if int(covered) != tt.n {
			t.Errorf("workers=%d n=%d: covered %d", tt.workers, tt.n, covered)
		}
		if tt.n == 0 && calls != 0 {
			t.Errorf("n=0 made %d calls", calls)
		}
	}
}

func TestWorkersDoNotChangeResults(t *testing.T) {
	src := NewRGBImage(50, 70)
	for i := range src.Pix {
		src.Pix[i] = float32((i*37)%101) / 100
	}
	one := DefaultConfig()
	one.Workers = 1
	many := DefaultConfig()
	many.Workers = 8

	a, err := Analyze(src, nil, one)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Analyze(src, nil, many)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Transmission.Pix {
		if a.Transmission.Pix[i] != b.Transmission.Pix[i] {
			t.Fatalf("transmission[%d]: 1 worker %v, 8 workers %v", i, a.Transmission.Pix[i], b.Transmission.Pix[i])
		}
	}
}
