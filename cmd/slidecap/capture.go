package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	slidecap "github.com/alnah/go-slidecap"
	"github.com/alnah/go-slidecap/internal/config"
	"github.com/alnah/go-slidecap/internal/fileutil"
	"github.com/alnah/go-slidecap/internal/hints"
	"github.com/alnah/go-slidecap/internal/imageops"
	"github.com/alnah/go-slidecap/internal/server"
)

// ErrWriteSlide is returned when a slide file cannot be written.
var ErrWriteSlide = errors.New("failed to write slide")

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// runCapture captures one content item and writes its slides to disk.
func runCapture(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseCaptureFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	req := slidecap.CaptureRequest{
		Category:    flags.category,
		ContentID:   flags.id,
		TotalSlides: flags.slides,
	}
	if flags.kind != "" {
		if req.Kind, err = slidecap.ParseSlideKind(flags.kind); err != nil {
			return err
		}
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ev := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	cfg, err := resolveConfig(flags.common.config, ev)
	if err != nil {
		return err
	}
	mergeCaptureFlags(flags, cfg)

	rt, err := setup(cfg, env)
	if err != nil {
		return err
	}
	if _, ok := rt.capturer.Category(req.Category); !ok {
		return fmt.Errorf("%w: %q", slidecap.ErrUnknownCategory, req.Category)
	}
	if err := req.CheckSlideLimit(rt.capturer.MaxSlides()); err != nil {
		return err
	}

	timeout := config.Duration(cfg.Server.CaptureTimeout, server.DefaultCaptureTimeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := env.Now()
	res, err := rt.capturer.Capture(ctx, req)
	if err != nil {
		return fmt.Errorf("%w%s", err, captureHint(err, cfg))
	}

	paths, err := writeSlides(flags.output, res.Slides)
	if err != nil {
		return err
	}

	if !flags.quiet {
		printCaptureSummary(env.Stdout, res, paths, env.Now().Sub(start))
	}
	return nil
}

// captureHint returns an actionable hint for common capture failures.
func captureHint(err error, cfg *config.Config) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, slidecap.ErrBrowserLaunch), errors.Is(err, slidecap.ErrBrowserConnect):
		return hints.ForBrowserLaunch()
	case errors.Is(err, slidecap.ErrPageLoad):
		return hints.ForTargetUnreachable(cfg.Target.BaseURL)
	case errors.Is(err, slidecap.ErrContainerNotFound):
		return hints.ForContainerNotFound(cfg.Target.ContainerSelector)
	}
	return ""
}

// slideFileName returns the 1-based file name of a slide.
func slideFileName(index int) string {
	return fmt.Sprintf("slide-%02d.jpg", index+1)
}

// writeSlides decodes each slide data URL and writes it under dir.
// Returns the written paths in slide order.
func writeSlides(dir string, slides []slidecap.Slide) ([]string, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: %v%s", ErrWriteSlide, err, hints.ForOutputDirectory())
	}

	paths := make([]string, 0, len(slides))
	for _, s := range slides {
		mime, data, err := imageops.DecodeDataURL(s.DataURL)
		if err != nil {
			return nil, fmt.Errorf("%w: slide %d: %v", ErrWriteSlide, s.Index, err)
		}
		if mime != imageops.MIMEJPEG {
			return nil, fmt.Errorf("%w: slide %d: unexpected media type %q", ErrWriteSlide, s.Index, mime)
		}

		path := filepath.Join(dir, slideFileName(s.Index))
		if err := fileutil.WriteFileAtomic(path, data, filePermissions); err != nil {
			return nil, fmt.Errorf("%w: %v%s", ErrWriteSlide, err, hints.ForOutputDirectory())
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// printCaptureSummary prints written files and payload metadata.
func printCaptureSummary(w io.Writer, res *slidecap.Result, paths []string, elapsed time.Duration) {
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
	fmt.Fprintf(w, "%d %s slide(s) %dx%d, %.2f MB (avg %d KB/slide) in %s\n",
		len(res.Slides), res.Kind,
		res.Dimensions.Width, res.Dimensions.Height,
		res.Metadata.TotalPayloadMB, res.Metadata.AvgSizePerSlideKB,
		elapsed.Round(time.Millisecond))
}
