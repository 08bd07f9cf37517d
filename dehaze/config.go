package dehaze

import (
	"fmt"
	"math"
	"strings"

	"github.com/BurntSushi/toml"
)

// Strategy selects how window statistics are computed. Both strategies
// produce the same fields up to floating-point rounding.
type Strategy int

const (
	// StrategyTiled reduces each 16x16 output tile from its 32x32 support
	// region with a two-dimensional summed-area table.
	StrategyTiled Strategy = iota
	// StrategySeparable runs a horizontal then a vertical box-sum pass.
	StrategySeparable
)

// String returns the preset name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyTiled:
		return "tiled"
	case StrategySeparable:
		return "separable"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses a preset strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "tiled":
		return StrategyTiled, nil
	case "separable":
		return StrategySeparable, nil
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, name)
}

// Precision selects the storage precision of intermediate fields.
type Precision int

const (
	// PrecisionFloat stores intermediates as float32.
	PrecisionFloat Precision = iota
	// PrecisionHalf rounds intermediates through IEEE binary16, matching a
	// 16-bit float render-target pipeline.
	PrecisionHalf
)

// String returns the preset name of the precision.
func (p Precision) String() string {
	switch p {
	case PrecisionFloat:
		return "float"
	case PrecisionHalf:
		return "half"
	default:
		return fmt.Sprintf("Precision(%d)", int(p))
	}
}

// ParsePrecision parses a preset precision name.
func ParsePrecision(name string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "float", "float32":
		return PrecisionFloat, nil
	case "half", "float16":
		return PrecisionHalf, nil
	}
	return 0, fmt.Errorf("%w: unknown precision %q", ErrInvalidConfig, name)
}

// Multiplier bounds and defaults.
const (
	MultiplierMin = -1.0
	MultiplierMax = 1.0

	DefaultStrengthMultiplier = -0.125
	DefaultDepthMultiplier    = -0.075
)

// Config holds the per-frame tuning inputs.
type Config struct {
	// StrengthMultiplier scales transmission by exp(StrengthMultiplier).
	StrengthMultiplier float32
	// DepthMultiplier scales transmission by exp(DepthMultiplier*depth).
	DepthMultiplier float32
	Strategy        Strategy
	Precision       Precision
	// Workers overrides the global ParallelConfig worker count when positive.
	Workers int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		StrengthMultiplier: DefaultStrengthMultiplier,
		DepthMultiplier:    DefaultDepthMultiplier,
		Strategy:           StrategyTiled,
		Precision:          PrecisionFloat,
	}
}

// Validate checks that every value is inside its recognized range.
func (c Config) Validate() error {
	if err := checkMultiplier("strength", c.StrengthMultiplier); err != nil {
		return err
	}
	if err := checkMultiplier("depth", c.DepthMultiplier); err != nil {
		return err
	}
	if c.Strategy != StrategyTiled && c.Strategy != StrategySeparable {
		return fmt.Errorf("%w: unknown strategy %d", ErrInvalidConfig, int(c.Strategy))
	}
	if c.Precision != PrecisionFloat && c.Precision != PrecisionHalf {
		return fmt.Errorf("%w: unknown precision %d", ErrInvalidConfig, int(c.Precision))
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func checkMultiplier(name string, v float32) error {
	f := float64(v)
	if math.IsNaN(f) || f < MultiplierMin || f > MultiplierMax {
		return fmt.Errorf("%w: %s multiplier %v outside [%v, %v]",
			ErrInvalidConfig, name, v, MultiplierMin, MultiplierMax)
	}
	return nil
}

// preset is the on-disk TOML form of a Config. Pointer fields distinguish
// absent keys from zero values.
type preset struct {
	Strength  *float32 `toml:"strength"`
	Depth     *float32 `toml:"depth"`
	Strategy  string   `toml:"strategy"`
	Precision string   `toml:"precision"`
	Workers   int      `toml:"workers"`
}

// LoadConfig reads a TOML preset. Keys missing from the file keep their
// DefaultConfig values.
//
//	strength  = -0.125
//	depth     = -0.075
//	strategy  = "tiled"      # or "separable"
//	precision = "float"      # or "half"
//	workers   = 0
func LoadConfig(path string) (Config, error) {
	var p preset
	meta, err := toml.DecodeFile(path, &p)
	if err != nil {
		return Config{}, fmt.Errorf("dehaze: reading preset %s: %w", path, err)
	}
	return p.config(meta)
}

// ParseConfig decodes a TOML preset from a string.
func ParseConfig(data string) (Config, error) {
	var p preset
	meta, err := toml.Decode(data, &p)
	if err != nil {
		return Config{}, fmt.Errorf("dehaze: parsing preset: %w", err)
	}
	return p.config(meta)
}

func (p preset) config(meta toml.MetaData) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown preset key %q", ErrInvalidConfig, undecoded[0].String())
	}
	cfg := DefaultConfig()
	if p.Strength != nil {
		cfg.StrengthMultiplier = *p.Strength
	}
	if p.Depth != nil {
		cfg.DepthMultiplier = *p.Depth
	}
	var err error
	if cfg.Strategy, err = ParseStrategy(p.Strategy); err != nil {
		return Config{}, err
	}
	if cfg.Precision, err = ParsePrecision(p.Precision); err != nil {
		return Config{}, err
	}
	cfg.Workers = p.Workers
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
