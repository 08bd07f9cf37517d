package dehaze

import (
	"fmt"
	"sync"
)

// plan fixes the pyramid geometry of one frame size.
type plan struct {
	width, height int
	depth         int // full-resolution pyramid depth
	maxLevels     int
	airFirst      int
	airLast       int
}

func newPlan(width, height int) (plan, error) {
	if width <= 0 || height <= 0 {
		return plan{}, ErrEmptyImage
	}
	p := plan{
		width:     width,
		height:    height,
		depth:     PyramidDepth(width, height),
		maxLevels: MaxPyramidLevels(width, height),
	}
	p.airFirst, p.airLast = airlightRange(p.depth, p.maxLevels)
	if p.airFirst < 0 || p.airLast > p.maxLevels || p.airFirst >= p.airLast {
		return plan{}, fmt.Errorf("%w: airlight levels [%d, %d) of %d",
			ErrInvalidPlan, p.airFirst, p.airLast, p.maxLevels)
	}
	return p, nil
}

// Estimate holds every field computed for one frame. It is produced by
// Analyze and consumed by Reintroduce; nothing in it is reused by later
// frames.
type Estimate struct {
	Config Config

	// Original is the source image as it was when the frame was analyzed.
	Original *RGBImage

	Dark         *Field
	Mean         *Field
	Variance     *Field
	VarianceMips *Pyramid
	MaxPyramid   *Pyramid
	Airlight     *Field
	Transmission *Field

	// AirlightLevels is the half-open max pyramid level range averaged
	// into Airlight.
	AirlightLevels [2]int
}

// Width returns the frame width.
func (e *Estimate) Width() int { return e.Original.Width }

// Height returns the frame height.
func (e *Estimate) Height() int { return e.Original.Height }

// Analyze runs dark channel extraction, window statistics, both pyramids,
// airlight estimation and the adaptive transmission filter over src.
// depth may be nil, meaning depth 0 everywhere.
func Analyze(src *RGBImage, depth *Field, cfg Config) (*Estimate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := src.validate(); err != nil {
		return nil, err
	}
	if depth != nil && (depth.Width != src.Width || depth.Height != src.Height || len(depth.Pix) != src.Width*src.Height) {
		return nil, fmt.Errorf("%w: depth %dx%d for a %dx%d frame",
			ErrSizeMismatch, depth.Width, depth.Height, src.Width, src.Height)
	}
	p, err := newPlan(src.Width, src.Height)
	if err != nil {
		return nil, err
	}

	est := &Estimate{
		Config:         cfg,
		Original:       src.Clone(),
		AirlightLevels: [2]int{p.airFirst, p.airLast},
	}

	est.Dark = darkChannel(src, cfg.Workers)
	est.Dark.quantize(cfg.Precision)

	stats := computeStatistics(est.Dark, cfg.Strategy, cfg.Workers)
	stats.Mean.quantize(cfg.Precision)
	stats.Variance.quantize(cfg.Precision)
	stats.TileMax.quantize(cfg.Precision)
	est.Mean, est.Variance = stats.Mean, stats.Variance

	var (
		wg         sync.WaitGroup
		airlight   *Field
		airlightEr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		est.MaxPyramid = buildPyramid(stats.TileMax, p.maxLevels, ReduceMax, cfg.Workers)
		quantizeLevels(est.MaxPyramid, cfg.Precision)
		airlight, airlightEr = estimateAirlight(est.MaxPyramid, p.airFirst, p.airLast, p.width, p.height, cfg.Workers)
	}()
	go func() {
		defer wg.Done()
		est.VarianceMips = buildPyramid(stats.Variance, p.depth, ReduceAverage, cfg.Workers)
		quantizeLevels(est.VarianceMips, cfg.Precision)
	}()
	wg.Wait()
	if airlightEr != nil {
		return nil, airlightEr
	}
	airlight.quantize(cfg.Precision)
	est.Airlight = airlight

	est.Transmission, err = filterTransmission(TransmissionInput{
		Dark:     est.Dark,
		Mean:     est.Mean,
		Variance: est.Variance,
		Noise:    est.VarianceMips.Coarsest(),
		Airlight: est.Airlight,
		Depth:    depth,
	}, cfg)
	if err != nil {
		return nil, err
	}
	est.Transmission.quantize(cfg.Precision)
	return est, nil
}

// quantizeLevels applies the storage precision to levels above 0; level 0
// is already quantized by its producer.
func quantizeLevels(p *Pyramid, precision Precision) {
	for _, level := range p.Levels[1:] {
		level.quantize(precision)
	}
}

// Reintroduce blends fog back into current, the working image after any
// other effects ran, using the transmission and airlight of the estimate.
func (e *Estimate) Reintroduce(current *RGBImage) (*RGBImage, error) {
	return reintroduceFog(e.Transmission, e.Airlight, e.Original, current, e.Config.Workers)
}

// Process analyzes src and reintroduces fog into it in one call.
func Process(src *RGBImage, depth *Field, cfg Config) (*RGBImage, error) {
	est, err := Analyze(src, depth, cfg)
	if err != nil {
		return nil, err
	}
	return est.Reintroduce(src)
}
