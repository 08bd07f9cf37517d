// dhzcheck validates DHZC capture files written by dehaze -capture.
//
// Usage:
//
//	dhzcheck [-q|--quiet] [-s|--strict] [-f|--fields] <filename> [<filename> ...]
//
// Options:
//
//	-q, --quiet   Only output errors. Exit code indicates pass/fail.
//	-s, --strict  Treat warnings as errors.
//	-f, --fields  Print min/max/mean of every stored field.
//	-h, --help    Show this help message.
//	--version     Show version information.
//
// Exit codes:
//
//	0: All files valid
//	1: One or more files invalid
//	2: Error (bad arguments, etc.)
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrjoshuak/go-dehaze/dehazeutil"
)

const version = "1.0.0"

type checkOptions struct {
	quiet  bool
	strict bool
	fields bool
}

func main() {
	var opts checkOptions
	files := []string{}

	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch arg {
		case "-q", "--quiet":
			opts.quiet = true
		case "-s", "--strict":
			opts.strict = true
		case "-f", "--fields":
			opts.fields = true
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		case "--version":
			fmt.Printf("dhzcheck version %s\n", version)
			os.Exit(0)
		default:
			if strings.HasPrefix(arg, "-") {
				fmt.Fprintf(os.Stderr, "Unknown option: %s\n", arg)
				printUsage()
				os.Exit(2)
			}
			files = append(files, arg)
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No input files specified")
		printUsage()
		os.Exit(2)
	}

	os.Exit(check(os.Stdout, os.Stderr, files, opts))
}

// check validates every file and returns the process exit code.
func check(stdout, stderr io.Writer, files []string, opts checkOptions) int {
	validCount := 0
	errorOccurred := false

	for _, filename := range files {
		result, err := dehazeutil.ValidateCapture(filename)
		if err != nil {
			if !opts.quiet {
				fmt.Fprintf(stderr, "%s: error: %v\n", filename, err)
			}
			errorOccurred = true
			continue
		}
		valid := result.Valid && (!opts.strict || len(result.Warnings) == 0)
		if valid {
			validCount++
		}

		if opts.quiet {
			for _, msg := range result.Errors {
				fmt.Fprintf(stderr, "%s: %s\n", filename, msg)
			}
			if opts.strict {
				for _, msg := range result.Warnings {
					fmt.Fprintf(stderr, "%s: %s\n", filename, msg)
				}
			}
			continue
		}
		printResult(stdout, filename, valid, result, opts.fields)
	}

	if len(files) > 1 && !opts.quiet {
		fmt.Fprintf(stdout, "\nSummary: %d of %d files valid\n", validCount, len(files))
	}

	if errorOccurred {
		return 2
	}
	if validCount < len(files) {
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Println(`Usage: dhzcheck [options] <filename> [<filename> ...]

Validate DHZC capture files written by dehaze -capture.

Options:
  -q, --quiet    Only output errors. Exit code indicates pass/fail.
  -s, --strict   Treat warnings as errors.
  -f, --fields   Print min/max/mean of every stored field.
  -h, --help     Show this help message.
  --version      Show version information.

Exit codes:
  0: All files valid
  1: One or more files invalid
  2: Error (bad arguments, etc.)

Examples:
  dhzcheck frame.dhzc                 Validate a single capture
  dhzcheck -q captures/*.dhzc         Validate all captures silently
  dhzcheck -f frame.dhzc              Show field statistics`)
}

func printResult(w io.Writer, filename string, valid bool, result *dehazeutil.ValidationResult, fields bool) {
	if valid {
		fmt.Fprintf(w, "%s: OK\n", filename)
	} else {
		fmt.Fprintf(w, "%s: INVALID\n", filename)
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(w, "  [ERROR] %s\n", msg)
	}
	for _, msg := range result.Warnings {
		fmt.Fprintf(w, "  [WARNING] %s\n", msg)
	}

	c := result.Capture
	if c == nil {
		return
	}
	fmt.Fprintf(w, "  id %s, %dx%d, strength %g, depth %g, %s/%s, airlight levels [%d, %d)\n",
		c.ID, c.Width, c.Height, c.Config.StrengthMultiplier, c.Config.DepthMultiplier,
		c.Config.Strategy, c.Config.Precision, c.AirlightLevels[0], c.AirlightLevels[1])
	if !fields {
		return
	}
	for _, nf := range c.Fields {
		s := dehazeutil.Stats(nf.Field)
		fmt.Fprintf(w, "  %-13s %5dx%-5d min %-10.5g max %-10.5g mean %-10.5g p95 %.5g\n",
			nf.Name, nf.Field.Width, nf.Field.Height, s.Min, s.Max, s.Mean, s.P95)
	}
}
