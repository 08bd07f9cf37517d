// dehaze estimates the fog in an image and reintroduces it into the image.
//
// Usage:
//
//	dehaze [options] infile outfile
//
// Options:
//
//	-current <file>     the image after other effects; defaults to infile
//	-depth <file>       grayscale depth map, resampled to the image size
//	-depth-far <d>      depth represented by a white depth pixel (default 10)
//	-config <file>      TOML preset; flags override its values
//	-strength <m>       strength multiplier in [-1, 1]
//	-depth-mul <m>      depth multiplier in [-1, 1]
//	-strategy <s>       window statistics strategy (tiled, separable)
//	-precision <p>      intermediate precision (float, half)
//	-workers <n>        worker goroutines, 0 for GOMAXPROCS
//	-capture <file>     write the analysis fields to a DHZC capture file
//	-v                  verbose console logging
//	-version            show version information
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrjoshuak/go-dehaze/capture"
	"github.com/mrjoshuak/go-dehaze/dehaze"
	"github.com/mrjoshuak/go-dehaze/dehazeutil"
	"github.com/mrjoshuak/go-dehaze/internal/logger"
)

const version = "1.0.0"

type options struct {
	currentFile string
	depthFile   string
	depthFar    float64
	configFile  string
	strength    float64
	depthMul    float64
	strategy    string
	precision   string
	workers     int
	captureFile string
	verbose     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.currentFile, "current", "", "image after other effects (default: infile)")
	flag.StringVar(&opts.depthFile, "depth", "", "grayscale depth map")
	flag.Float64Var(&opts.depthFar, "depth-far", 10, "depth represented by a white depth pixel")
	flag.StringVar(&opts.configFile, "config", "", "TOML preset file")
	flag.Float64Var(&opts.strength, "strength", dehaze.DefaultStrengthMultiplier, "strength multiplier in [-1, 1]")
	flag.Float64Var(&opts.depthMul, "depth-mul", dehaze.DefaultDepthMultiplier, "depth multiplier in [-1, 1]")
	flag.StringVar(&opts.strategy, "strategy", "tiled", "window statistics strategy (tiled, separable)")
	flag.StringVar(&opts.precision, "precision", "float", "intermediate precision (float, half)")
	flag.IntVar(&opts.workers, "workers", 0, "worker goroutines, 0 for GOMAXPROCS")
	flag.StringVar(&opts.captureFile, "capture", "", "write the analysis fields to a DHZC capture file")
	flag.BoolVar(&opts.verbose, "v", false, "verbose console logging")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dehaze [options] infile outfile\n\n")
		fmt.Fprintf(os.Stderr, "Estimate the fog in an image and reintroduce it, modulated by\n")
		fmt.Fprintf(os.Stderr, "scene depth and the strength multiplier. With -current, the fog\n")
		fmt.Fprintf(os.Stderr, "measured in infile is blended into an already processed image.\n\n")
		fmt.Fprintf(os.Stderr, "Inputs may be PNG, JPEG, BMP, TIFF or WebP. Outputs may be\n")
		fmt.Fprintf(os.Stderr, "PNG, TIFF, BMP or JPEG, chosen by extension.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("dehaze version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}

	var log *logger.ZerologAdapter
	if opts.verbose {
		log = logger.NewConsoleLogger(zerolog.DebugLevel)
	} else {
		log = logger.NewZerolog(os.Stderr, zerolog.WarnLevel)
	}

	cfg, err := buildConfig(opts, setFlags())
	if err != nil {
		log.Error("config", err, nil)
		os.Exit(1)
	}

	if err := run(args[0], args[1], opts, cfg, log); err != nil {
		log.Error("dehaze", err, map[string]any{"input": args[0]})
		os.Exit(1)
	}
}

// setFlags returns the names of the flags given on the command line.
func setFlags() map[string]bool {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// buildConfig starts from the defaults or the preset file and applies the
// flags that were given explicitly.
func buildConfig(opts options, set map[string]bool) (dehaze.Config, error) {
	cfg := dehaze.DefaultConfig()
	if opts.configFile != "" {
		var err error
		if cfg, err = dehaze.LoadConfig(opts.configFile); err != nil {
			return dehaze.Config{}, err
		}
	}
	if set["strength"] {
		cfg.StrengthMultiplier = float32(opts.strength)
	}
	if set["depth-mul"] {
		cfg.DepthMultiplier = float32(opts.depthMul)
	}
	if set["strategy"] {
		s, err := dehaze.ParseStrategy(opts.strategy)
		if err != nil {
			return dehaze.Config{}, err
		}
		cfg.Strategy = s
	}
	if set["precision"] {
		p, err := dehaze.ParsePrecision(opts.precision)
		if err != nil {
			return dehaze.Config{}, err
		}
		cfg.Precision = p
	}
	if set["workers"] {
		cfg.Workers = opts.workers
	}
	return cfg, cfg.Validate()
}

func run(inFile, outFile string, opts options, cfg dehaze.Config, log logger.Logger) error {
	start := time.Now()
	src, err := dehazeutil.LoadImage(inFile)
	if err != nil {
		return fmt.Errorf("cannot read input file: %w", err)
	}
	log.Debug("load", "image loaded", map[string]any{
		"path":    inFile,
		"width":   src.Width,
		"height":  src.Height,
		"elapsed": time.Since(start),
	})

	var depth *dehaze.Field
	if opts.depthFile != "" {
		start = time.Now()
		depth, err = dehazeutil.LoadDepth(opts.depthFile, src.Width, src.Height, float32(opts.depthFar))
		if err != nil {
			return fmt.Errorf("cannot read depth file: %w", err)
		}
		log.Debug("load", "depth loaded", map[string]any{
			"path":    opts.depthFile,
			"far":     opts.depthFar,
			"elapsed": time.Since(start),
		})
	}

	start = time.Now()
	est, err := dehaze.Analyze(src, depth, cfg)
	if err != nil {
		return err
	}
	air := dehazeutil.Stats(est.Airlight)
	trans := dehazeutil.Stats(est.Transmission)
	log.Info("analyze", "fog estimated", map[string]any{
		"strategy":         cfg.Strategy.String(),
		"precision":        cfg.Precision.String(),
		"airlight_levels":  est.AirlightLevels,
		"airlight_mean":    air.Mean,
		"transmission_min": trans.Min,
		"transmission_max": trans.Max,
		"transmission_p50": trans.Median,
		"noise":            est.VarianceMips.Coarsest().Pix[0],
		"elapsed":          time.Since(start),
	})

	if opts.captureFile != "" {
		c := capture.FromEstimate(est)
		if err := capture.WriteFile(opts.captureFile, c); err != nil {
			return fmt.Errorf("cannot write capture: %w", err)
		}
		log.Debug("capture", "capture written", map[string]any{"path": opts.captureFile, "id": c.ID.String()})
	}

	current := src
	if opts.currentFile != "" {
		if current, err = dehazeutil.LoadImage(opts.currentFile); err != nil {
			return fmt.Errorf("cannot read current image: %w", err)
		}
	}

	start = time.Now()
	out, err := est.Reintroduce(current)
	if err != nil {
		return err
	}
	if err := dehazeutil.SaveImage(outFile, out); err != nil {
		return fmt.Errorf("cannot write output file: %w", err)
	}
	log.Info("reintroduce", "output written", map[string]any{"path": outFile, "elapsed": time.Since(start)})
	return nil
}
