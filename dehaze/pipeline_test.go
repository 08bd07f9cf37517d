package dehaze

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func neutralConfig() Config {
	cfg := DefaultConfig()
	cfg.StrengthMultiplier = 0
	cfg.DepthMultiplier = 0
	return cfg
}

func TestAnalyzeConstantImage(t *testing.T) {
	src := constantImage(48, 40, 0.5, 0.6, 0.7)
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			cfg := neutralConfig()
			cfg.Strategy = s
			est, err := Analyze(src, nil, cfg)
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			for i, v := range est.Variance.Pix {
				if v > 1e-7 {
					t.Fatalf("variance[%d] = %v, want ~0", i, v)
				}
			}
			want := est.Transmission.Pix[0]
			if !near(want, 0.5, 1e-5) {
				t.Errorf("transmission = %v, want 0.5", want)
			}
			for i, v := range est.Transmission.Pix {
				if !near(v, want, 1e-6) {
					t.Fatalf("transmission[%d] = %v, want %v everywhere", i, v, want)
				}
			}
		})
	}
}

func TestAnalyzeSyntheticHaze(t *testing.T) {
	const w, h = 64, 64
	rng := rand.New(rand.NewPCG(64, 64))
	src := NewRGBImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := 0.6 + 0.1*rng.Float32()
			src.SetRGB(x, y, d, d+0.15, d+0.25)
		}
	}

	est, err := Analyze(src, NewField(w, h), neutralConfig())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if est.AirlightLevels != [2]int{1, 2} {
		t.Errorf("AirlightLevels = %v, want [1 2]", est.AirlightLevels)
	}

	noise := est.VarianceMips.Coarsest().Pix[0]
	var sumT float64
	for i := range est.Transmission.Pix {
		a := est.Airlight.Pix[i]
		if a < 0.6 || a > 0.7+1e-6 {
			t.Fatalf("airlight[%d] = %v, want within the haze band [0.6, 0.7]", i, a)
		}
		dark := est.Dark.Pix[i]
		veil := WienerVeil(dark, est.Mean.Pix[i], est.Variance.Pix[i], noise)
		if veil < 0.6-0.05 || veil > 0.7+0.05 {
			t.Fatalf("veil[%d] = %v, want 0.65 +- 0.1", i, veil)
		}
		want := 1 - veil*dark/a
		got := est.Transmission.Pix[i]
		if !near(got, want, 1e-5) {
			t.Fatalf("transmission[%d] = %v, want %v", i, got, want)
		}
		sumT += float64(got)
	}

	// The same structure without haze keeps transmission near 1.
	clean := NewRGBImage(w, h)
	for i := 0; i < w*h; i++ {
		d := 0.1 * rng.Float32()
		clean.Pix[3*i], clean.Pix[3*i+1], clean.Pix[3*i+2] = d, d+0.15, d+0.25
	}
	clearEst, err := Analyze(clean, nil, neutralConfig())
	if err != nil {
		t.Fatalf("Analyze(clear): %v", err)
	}
	var sumClear float64
	for _, v := range clearEst.Transmission.Pix {
		sumClear += float64(v)
	}

	hazy := sumT / float64(w*h)
	clearMean := sumClear / float64(w*h)
	if hazy > 0.5 {
		t.Errorf("mean hazy transmission = %v, want <= 0.5", hazy)
	}
	if clearMean < 0.9 {
		t.Errorf("mean clear transmission = %v, want >= 0.9", clearMean)
	}
}

func TestAnalyzeCapturesOriginal(t *testing.T) {
	src := constantImage(20, 20, 0.3, 0.4, 0.5)
	est, err := Analyze(src, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	src.SetRGB(5, 5, 1, 1, 1)
	if r, _, _ := est.Original.RGB(5, 5); r != 0.3 {
		t.Errorf("Original changed with the source: r = %v, want 0.3", r)
	}
}

func TestProcessWithoutOtherEffectsIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 9))
	src := NewRGBImage(40, 24)
	for i := range src.Pix {
		src.Pix[i] = 0.2 + 0.6*rng.Float32()
	}
	out, err := Process(src, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i := range src.Pix {
		if !near(out.Pix[i], src.Pix[i], 1e-4) {
			t.Fatalf("out[%d] = %v, want %v", i, out.Pix[i], src.Pix[i])
		}
	}
}

func TestReintroduceTracksTransmission(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))
	src := NewRGBImage(32, 32)
	for i := 0; i < 32*32; i++ {
		d := 0.5 + 0.2*rng.Float32()
		src.Pix[3*i], src.Pix[3*i+1], src.Pix[3*i+2] = d, d+0.1, d+0.2
	}
	est, err := Analyze(src, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	current := src.Clone()
	for i := range current.Pix {
		current.Pix[i] *= 1.3
	}
	out, err := est.Reintroduce(current)
	if err != nil {
		t.Fatalf("Reintroduce: %v", err)
	}

	for i := 0; i < 32*32; i++ {
		p := 3 * i
		ct := max(est.Transmission.Pix[i], TransmissionFloor)
		oy := Luma(src.Pix[p], src.Pix[p+1], src.Pix[p+2])
		cy := Luma(current.Pix[p], current.Pix[p+1], current.Pix[p+2])
		got := Luma(out.Pix[p], out.Pix[p+1], out.Pix[p+2])
		if want := oy + (cy-oy)*ct; !near(got, want, 1e-4) {
			t.Fatalf("luma[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestAnalyzeStrategiesAgree(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 13))
	src := NewRGBImage(70, 45)
	for i := range src.Pix {
		src.Pix[i] = rng.Float32()
	}
	depth := randomField(rng, 70, 45)

	tiledCfg := DefaultConfig()
	sepCfg := DefaultConfig()
	sepCfg.Strategy = StrategySeparable

	a, err := Analyze(src, depth, tiledCfg)
	if err != nil {
		t.Fatalf("Analyze(tiled): %v", err)
	}
	b, err := Analyze(src, depth, sepCfg)
	if err != nil {
		t.Fatalf("Analyze(separable): %v", err)
	}
	for i := range a.Transmission.Pix {
		if !near(a.Transmission.Pix[i], b.Transmission.Pix[i], 1e-4) {
			t.Fatalf("transmission[%d]: tiled %v, separable %v", i, a.Transmission.Pix[i], b.Transmission.Pix[i])
		}
	}
}

func TestAnalyzeHalfPrecision(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 3))
	src := NewRGBImage(33, 17)
	for i := range src.Pix {
		src.Pix[i] = rng.Float32()
	}
	cfg := DefaultConfig()
	full, err := Analyze(src, nil, cfg)
	if err != nil {
		t.Fatalf("Analyze(float): %v", err)
	}
	cfg.Precision = PrecisionHalf
	halfEst, err := Analyze(src, nil, cfg)
	if err != nil {
		t.Fatalf("Analyze(half): %v", err)
	}
	for i := range full.Transmission.Pix {
		if !near(full.Transmission.Pix[i], halfEst.Transmission.Pix[i], 0.02) {
			t.Fatalf("transmission[%d]: float %v, half %v", i, full.Transmission.Pix[i], halfEst.Transmission.Pix[i])
		}
	}
}

func TestAnalyzeNeverProducesNonFinite(t *testing.T) {
	src := NewRGBImage(24, 24)
	for i := range src.Pix {
		switch i % 5 {
		case 0:
			src.Pix[i] = float32(math.NaN())
		case 1:
			src.Pix[i] = float32(math.Inf(1))
		case 2:
			src.Pix[i] = -4
		default:
			src.Pix[i] = 0
		}
	}
	depth := NewConstantField(24, 24, float32(math.Inf(1)))

	est, err := Analyze(src, depth, DefaultConfig())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, f := range []*Field{est.Dark, est.Mean, est.Variance, est.Airlight, est.Transmission} {
		for i, v := range f.Pix {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("non-finite sample %v at %d", v, i)
			}
		}
	}
	for i, a := range est.Airlight.Pix {
		if a < AirlightMin || a > AirlightMax {
			t.Fatalf("airlight[%d] = %v outside [%v, %v]", i, a, AirlightMin, AirlightMax)
		}
	}
}

func TestAnalyzeErrors(t *testing.T) {
	src := NewRGBImage(8, 8)
	tests := []struct {
		name  string
		src   *RGBImage
		depth *Field
		cfg   Config
		want  error
	}{
		{"nil source", nil, nil, DefaultConfig(), ErrEmptyImage},
		{"empty source", &RGBImage{}, nil, DefaultConfig(), ErrEmptyImage},
		{"depth mismatch", src, NewField(7, 8), DefaultConfig(), ErrSizeMismatch},
		{"bad strength", src, nil, Config{StrengthMultiplier: -1.5}, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Analyze(tt.src, tt.depth, tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("Analyze error = %v, want %v", err, tt.want)
			}
		})
	}

	est, err := Analyze(src, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := est.Reintroduce(NewRGBImage(9, 8)); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Reintroduce error = %v, want %v", err, ErrSizeMismatch)
	}
}

func TestNewPlanSmallFrames(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {16, 16}, {17, 2}, {3, 200}} {
		p, err := newPlan(size[0], size[1])
		if err != nil {
			t.Fatalf("newPlan(%v): %v", size, err)
		}
		if p.airFirst < 0 || p.airLast > p.maxLevels || p.airFirst >= p.airLast {
			t.Errorf("newPlan(%v) airlight range [%d, %d) of %d", size, p.airFirst, p.airLast, p.maxLevels)
		}
	}
	if _, err := newPlan(0, 4); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("newPlan(0, 4) error = %v, want %v", err, ErrEmptyImage)
	}
}
