package slidecap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Environment identifies where the capturer runs.
type Environment string

// Execution environments.
const (
	EnvLocal      Environment = "local"
	EnvServerless Environment = "serverless"
)

// ParseEnvironment parses an environment name (case-insensitive).
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(EnvLocal):
		return EnvLocal, nil
	case string(EnvServerless):
		return EnvServerless, nil
	}
	return "", fmt.Errorf("%w: %q (must be local or serverless)", ErrInvalidEnvironment, s)
}

// serverlessMarkers are environment variables set by serverless platforms.
var serverlessMarkers = []string{
	"VERCEL_ENV",
	"AWS_LAMBDA_FUNCTION_NAME",
	"K_SERVICE", // Cloud Run
	"FUNCTIONS_WORKER_RUNTIME",
}

// DetectEnvironment inspects platform markers through getenv.
// Call it once at startup and inject the result; nothing else in the
// package reads the process environment to pick a browser strategy.
func DetectEnvironment(getenv func(string) string) Environment {
	for _, key := range serverlessMarkers {
		if getenv(key) != "" {
			return EnvServerless
		}
	}
	return EnvLocal
}

// BrowserLauncher starts a headless browser owned by a single capture.
type BrowserLauncher interface {
	Launch(ctx context.Context) (Browser, error)
	Environment() Environment
}

// Browser is a launched browser process. Close must be safe to call more
// than once and must terminate the process.
type Browser interface {
	OpenPage(ctx context.Context, spec PageSpec) (Page, error)
	Close() error
}

// Page is a navigated page ready for capture.
type Page interface {
	// ContainerBox returns the live bounding box of the element matching
	// selector. Returns ErrContainerNotFound when no element matches.
	ContainerBox(ctx context.Context, selector string) (Box, error)

	// CaptureClip captures the pixels inside box as a PNG.
	CaptureClip(ctx context.Context, box Box) ([]byte, error)
}

// PageSpec describes how to open and settle the target page.
type PageSpec struct {
	URL               string
	ViewportWidth     int
	ViewportHeight    int
	DevicePixelRatio  float64
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	ForceReflow       bool
	Stealth           bool
}

// LauncherOptions configures the launcher strategies.
type LauncherOptions struct {
	// Bin is the Chrome binary. Empty = rod's lookup, then its managed download.
	Bin string

	// NoSandbox disables the Chrome sandbox (containers, CI).
	// Always true for the serverless strategy.
	NoSandbox bool

	// Logger receives launch and teardown events. Default: slog.Default().
	Logger *slog.Logger
}

func (o *LauncherOptions) defaults() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// NewLauncher returns the launcher strategy for env.
func NewLauncher(env Environment, opts LauncherOptions) BrowserLauncher {
	opts.defaults()
	if env == EnvServerless {
		return &rodLauncher{env: EnvServerless, opts: opts, configure: configureServerless}
	}
	return &rodLauncher{env: EnvLocal, opts: opts, configure: configureLocal}
}
