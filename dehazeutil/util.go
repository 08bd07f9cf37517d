package dehazeutil

import (
	"fmt"
	"math"
	"os"

	"github.com/montanaflynn/stats"

	"github.com/mrjoshuak/go-dehaze/capture"
	"github.com/mrjoshuak/go-dehaze/dehaze"
)

// ===========================================
// Field Statistics
// ===========================================

// FieldStats summarizes a field.
type FieldStats struct {
	Min, Max, Mean float32
	Median, P95    float32
	// NonFinite counts NaN and infinite samples, which are excluded from
	// the other values.
	NonFinite int
}

// Stats summarizes the finite samples of f.
func Stats(f *dehaze.Field) FieldStats {
	s := FieldStats{Min: float32(math.Inf(1)), Max: float32(math.Inf(-1))}
	data := make(stats.Float64Data, 0, len(f.Pix))
	for _, v := range f.Pix {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			s.NonFinite++
			continue
		}
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
		data = append(data, float64(v))
	}
	if len(data) == 0 {
		return FieldStats{NonFinite: s.NonFinite}
	}
	mean, _ := data.Mean()
	median, _ := data.Median()
	p95, _ := data.Percentile(95)
	s.Mean = float32(mean)
	s.Median = float32(median)
	s.P95 = float32(p95)
	return s
}

// ===========================================
// Validation
// ===========================================

// ValidationResult contains the results of capture validation.
type ValidationResult struct {
	Valid    bool
	Warnings []string
	Errors   []string
	Capture  *capture.Capture
}

// ValidateCapture reads a capture file and checks the stored fields against
// the ranges the pipeline guarantees.
func ValidateCapture(path string) (*ValidationResult, error) {
	result := &ValidationResult{Valid: true}

	if _, err := os.Stat(path); err != nil {
		result.fail("cannot access file: %v", err)
		return result, nil
	}

	c, err := capture.ReadFile(path)
	if err != nil {
		result.fail("cannot read capture: %v", err)
		return result, nil
	}
	result.Capture = c

	frameSized := []string{
		capture.FieldDark, capture.FieldMean, capture.FieldVariance,
		capture.FieldAirlight, capture.FieldTransmission,
	}
	for _, name := range frameSized {
		f := c.Field(name)
		if f == nil {
			result.fail("missing field %q", name)
			continue
		}
		if f.Width != c.Width || f.Height != c.Height {
			result.fail("field %q is %dx%d in a %dx%d capture", name, f.Width, f.Height, c.Width, c.Height)
		}
	}

	for _, nf := range c.Fields {
		s := Stats(nf.Field)
		if s.NonFinite > 0 {
			result.fail("field %q has %d non-finite samples", nf.Name, s.NonFinite)
			continue
		}
		switch nf.Name {
		case capture.FieldDark, capture.FieldMean, capture.FieldTileMax:
			if s.Min < 0 || s.Max > 1 {
				result.fail("field %q outside [0, 1]: [%g, %g]", nf.Name, s.Min, s.Max)
			}
		case capture.FieldVariance, capture.FieldNoise:
			if s.Min < 0 {
				result.fail("field %q has negative variance %g", nf.Name, s.Min)
			}
		case capture.FieldAirlight:
			// Binary16 storage rounds the 0.05 floor down slightly.
			if s.Min < dehaze.AirlightMin-1e-4 || s.Max > dehaze.AirlightMax {
				result.fail("airlight outside [%g, %g]: [%g, %g]",
					dehaze.AirlightMin, dehaze.AirlightMax, s.Min, s.Max)
			}
		case capture.FieldTransmission:
			if s.Max > 1 {
				result.warn("transmission exceeds 1 (max %g)", s.Max)
			}
			if s.Min < dehaze.TransmissionFloor {
				result.warn("transmission below the reintroduction floor (min %g)", s.Min)
			}
		}
	}

	if noise := c.Field(capture.FieldNoise); noise != nil && (noise.Width != 1 || noise.Height != 1) {
		result.warn("noise field is %dx%d, want 1x1", noise.Width, noise.Height)
	}
	return result, nil
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ===========================================
// Comparison
// ===========================================

// CompareOptions configures capture comparison.
type CompareOptions struct {
	Tolerance    float32 // Maximum allowed difference for a sample
	IgnoreConfig bool    // If true, only compare field data
}

// CompareCaptures checks whether two captures hold equivalent fields.
// It returns true if they match within tolerance, along with any
// differences found.
func CompareCaptures(a, b *capture.Capture, opts CompareOptions) (bool, []string) {
	var diffs []string
	if a.Width != b.Width || a.Height != b.Height {
		diffs = append(diffs, fmt.Sprintf("dimensions differ: %dx%d vs %dx%d",
			a.Width, a.Height, b.Width, b.Height))
		return false, diffs
	}
	if !opts.IgnoreConfig && a.Config != b.Config {
		diffs = append(diffs, fmt.Sprintf("config differs: %+v vs %+v", a.Config, b.Config))
	}

	for _, nf := range a.Fields {
		other := b.Field(nf.Name)
		if other == nil {
			diffs = append(diffs, fmt.Sprintf("field %q in first but not second", nf.Name))
			continue
		}
		if !nf.Field.SameSize(other) {
			diffs = append(diffs, fmt.Sprintf("field %q: size %dx%d vs %dx%d",
				nf.Name, nf.Field.Width, nf.Field.Height, other.Width, other.Height))
			continue
		}
		var maxDiff float32
		count := 0
		for i, v := range nf.Field.Pix {
			d := v - other.Pix[i]
			if d < 0 {
				d = -d
			}
			if d > opts.Tolerance || math.IsNaN(float64(d)) {
				count++
				maxDiff = max(maxDiff, d)
			}
		}
		if count > 0 {
			diffs = append(diffs, fmt.Sprintf("field %q: %d samples differ (max diff: %f)", nf.Name, count, maxDiff))
		}
	}
	for _, nf := range b.Fields {
		if a.Field(nf.Name) == nil {
			diffs = append(diffs, fmt.Sprintf("field %q in second but not first", nf.Name))
		}
	}
	return len(diffs) == 0, diffs
}
