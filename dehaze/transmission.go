package dehaze

import (
	"fmt"
	"math"
)

// TransmissionInput gathers the per-frame fields the adaptive filter reads.
type TransmissionInput struct {
	Dark     *Field
	Mean     *Field
	Variance *Field
	// Noise is the coarsest level of the variance mip chain.
	Noise    *Field
	Airlight *Field
	// Depth is the linearized scene depth. nil means depth 0 everywhere.
	Depth *Field
}

func (in TransmissionInput) validate() error {
	if in.Dark == nil || in.Dark.Width <= 0 || in.Dark.Height <= 0 {
		return ErrEmptyImage
	}
	if in.Mean == nil || in.Variance == nil || in.Noise == nil || in.Airlight == nil {
		return fmt.Errorf("%w: missing filter input", ErrSizeMismatch)
	}
	w, h := in.Dark.Width, in.Dark.Height
	for _, f := range []*Field{in.Dark, in.Mean, in.Variance, in.Airlight, in.Depth} {
		if f != nil && !f.fits(w, h) {
			return fmt.Errorf("%w: %dx%d field of %d samples for a %dx%d frame",
				ErrSizeMismatch, f.Width, f.Height, len(f.Pix), w, h)
		}
	}
	if n := in.Noise; n.Width <= 0 || n.Height <= 0 || !n.fits(n.Width, n.Height) {
		return fmt.Errorf("%w: %dx%d noise field of %d samples", ErrSizeMismatch, n.Width, n.Height, len(n.Pix))
	}
	return nil
}

// WienerVeil applies the adaptive Wiener shrinkage to one dark-channel
// sample and returns the denoised veil estimate in [0, 1].
//
// The gain max(variance-noise, 0)/variance approaches 1 where local
// structure dominates the noise floor and 0 in flat regions, where the
// local mean is trusted instead.
func WienerVeil(dark, mean, variance, noise float32) float32 {
	gain := max(variance-noise, 0) / max(variance, VarianceEpsilon)
	filter := clamp32(finiteOr(gain*(dark-mean), 0), 0, 1)
	return clamp32(mean+filter, 0, 1)
}

// Transmission inverts the single-scattering model for one pixel:
// 1 - veil*dark/airlight. airlight is clamped to [AirlightMin, AirlightMax]
// so the division stays bounded. The result is not clamped above 1.
func Transmission(veil, dark, airlight float32) float32 {
	return 1 - veil*dark/clampAirlight(airlight)
}

// Modulation returns the combined depth and strength factor
// exp(depthMul*depth) * exp(strengthMul). A zero multiplier is a no-op.
func Modulation(depth, depthMul, strengthMul float32) float32 {
	return float32(math.Exp(float64(depthMul*depth)) * math.Exp(float64(strengthMul)))
}

// FilterTransmission runs the adaptive filter over a whole frame and
// returns the transmission field.
func FilterTransmission(in TransmissionInput, cfg Config) (*Field, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return filterTransmission(in, cfg)
}

func filterTransmission(in TransmissionInput, cfg Config) (*Field, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	w, h := in.Dark.Width, in.Dark.Height
	strength := math.Exp(float64(cfg.StrengthMultiplier))
	out := NewField(w, h)

	parallelChunks(cfg.Workers, h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			v := (float32(y) + 0.5) / float32(h)
			for x := 0; x < w; x++ {
				i := y*w + x
				u := (float32(x) + 0.5) / float32(w)

				dark := in.Dark.Pix[i]
				noise := in.Noise.Sample(u, v)
				veil := WienerVeil(dark, in.Mean.Pix[i], in.Variance.Pix[i], noise)
				t := Transmission(veil, dark, in.Airlight.Pix[i])

				scale := strength
				if in.Depth != nil {
					d := finiteOr(in.Depth.Pix[i], 0)
					scale *= math.Exp(float64(cfg.DepthMultiplier * d))
				}
				out.Pix[i] = finiteOr(t*float32(scale), 1)
			}
		}
	})
	return out, nil
}
