package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-slidecap/internal/config"
)

// ErrUsage marks invalid command-line usage.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared by serve and capture.
type commonFlags struct {
	config    string
	env       string
	baseURL   string
	logLevel  string
	logFormat string
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common      commonFlags
	addr        string
	workers     int
	timeout     string
	printConfig bool
}

// captureFlags holds all flags for the capture command.
type captureFlags struct {
	common   commonFlags
	category string
	id       string
	slides   int
	kind     string
	output   string
	timeout  string
	quiet    bool
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	json bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.env, "env", "", "browser environment: local, serverless (default: detect)")
	fs.StringVar(&f.baseURL, "base-url", "", "base URL of the app rendering slide pages")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
}

// newServeFlagSet registers the serve flags into f.
// Shared by parsing and shell completion.
func newServeFlagSet(f *serveFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default :8080)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent captures (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "capture timeout (e.g., 90s, 2m)")
	fs.BoolVar(&f.printConfig, "print-config", false, "print the resolved config as YAML and exit")
	addCommonFlags(fs, &f.common)
	return fs
}

// newCaptureFlagSet registers the capture flags into f.
func newCaptureFlagSet(f *captureFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	fs.StringVar(&f.category, "category", "", "content category (e.g., riddles)")
	fs.StringVar(&f.id, "id", "", "content id")
	fs.IntVarP(&f.slides, "slides", "n", 0, "number of slides on the page")
	fs.StringVarP(&f.kind, "kind", "k", "", "slide type: carousel, video (default: category default)")
	fs.StringVarP(&f.output, "output", "o", ".", "output directory for slide-NN.jpg files")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "capture timeout (e.g., 90s, 2m)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	addCommonFlags(fs, &f.common)
	return fs
}

// newDoctorFlagSet registers the doctor flags into f.
func newDoctorFlagSet(f *doctorFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.BoolVar(&f.json, "json", false, "output results as JSON")
	return fs
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, error) {
	f := &serveFlags{}
	fs := newServeFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printServeUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", ErrUsage, fs.Args())
	}
	if f.workers < 0 || f.workers > config.MaxWorkers {
		return nil, fmt.Errorf("%w: --workers must be between 0 and %d", ErrUsage, config.MaxWorkers)
	}
	return f, nil
}

// parseCaptureFlags parses capture command flags.
func parseCaptureFlags(args []string, stderr io.Writer) (*captureFlags, error) {
	f := &captureFlags{}
	fs := newCaptureFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printCaptureUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", ErrUsage, fs.Args())
	}

	var missing []string
	if f.category == "" {
		missing = append(missing, "--category")
	}
	if f.id == "" {
		missing = append(missing, "--id")
	}
	if f.slides == 0 {
		missing = append(missing, "--slides")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required flags %v", ErrUsage, missing)
	}
	return f, nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, stderr io.Writer) (*doctorFlags, error) {
	f := &doctorFlags{}
	fs := newDoctorFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printDoctorUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	return f, nil
}

// usageError wraps a flag parse error, keeping flag.ErrHelp recognizable.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

// mergeCommonFlags applies flags shared by serve and capture.
// Only non-empty flags override config values (CLI wins).
func mergeCommonFlags(f *commonFlags, cfg *config.Config) {
	if f.env != "" {
		cfg.Browser.Environment = f.env
	}
	if f.baseURL != "" {
		cfg.Target.BaseURL = f.baseURL
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
}

// mergeServeFlags applies serve flags to config.
func mergeServeFlags(f *serveFlags, cfg *config.Config) {
	mergeCommonFlags(&f.common, cfg)
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.timeout != "" {
		cfg.Server.CaptureTimeout = f.timeout
	}
}

// mergeCaptureFlags applies capture flags to config.
func mergeCaptureFlags(f *captureFlags, cfg *config.Config) {
	mergeCommonFlags(&f.common, cfg)
	if f.timeout != "" {
		cfg.Server.CaptureTimeout = f.timeout
	}
}
