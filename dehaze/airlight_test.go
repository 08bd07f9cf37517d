package dehaze

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func TestAirlightRange(t *testing.T) {
	tests := []struct {
		name        string
		w, h        int
		first, last int
	}{
		{"single tile", 16, 16, 0, 1},
		{"two tiles", 32, 8, 1, 2},
		{"64 square", 64, 64, 1, 2},
		{"1080p", 1920, 1080, 1, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := airlightRange(PyramidDepth(tt.w, tt.h), MaxPyramidLevels(tt.w, tt.h))
			if first != tt.first || last != tt.last {
				t.Errorf("airlightRange = [%d, %d), want [%d, %d)", first, last, tt.first, tt.last)
			}
			if n := MaxPyramidLevels(tt.w, tt.h); n > 2 && last >= n {
				t.Errorf("airlightRange = [%d, %d) includes the 1x1 level of %d", first, last, n)
			}
		})
	}
}

func TestAirlightClampInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 42))
	for _, scale := range []float32{0, 0.01, 1, 4} {
		tileMax := NewField(4, 4)
		for i := range tileMax.Pix {
			tileMax.Pix[i] = rng.Float32() * scale
		}
		pyr := BuildMaxPyramid(tileMax, 3)
		air, err := EstimateAirlight(pyr, 1, 3, 64, 64)
		if err != nil {
			t.Fatalf("EstimateAirlight: %v", err)
		}
		for i, a := range air.Pix {
			if a < AirlightMin || a > AirlightMax {
				t.Fatalf("scale %v: airlight[%d] = %v outside [%v, %v]", scale, i, a, AirlightMin, AirlightMax)
			}
		}
	}
}

func TestAirlightAveragesLevels(t *testing.T) {
	pyr := &Pyramid{Op: ReduceMax, Levels: []*Field{
		NewConstantField(4, 4, 0.9),
		NewConstantField(2, 2, 0.4),
		NewConstantField(1, 1, 0.6),
	}}
	air, err := EstimateAirlight(pyr, 1, 3, 8, 8)
	if err != nil {
		t.Fatalf("EstimateAirlight: %v", err)
	}
	for i, a := range air.Pix {
		if a < 0.4999 || a > 0.5001 {
			t.Fatalf("airlight[%d] = %v, want 0.5", i, a)
		}
	}
}

func TestAirlightRejectsBadRange(t *testing.T) {
	pyr := BuildMaxPyramid(NewField(4, 4), 3)
	for _, r := range [][2]int{{-1, 2}, {1, 4}, {2, 2}, {3, 1}} {
		if _, err := EstimateAirlight(pyr, r[0], r[1], 64, 64); !errors.Is(err, ErrInvalidPlan) {
			t.Errorf("range %v: error = %v, want %v", r, err, ErrInvalidPlan)
		}
	}
}
