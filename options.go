package slidecap

import (
	"log/slog"
	"time"

	"github.com/alnah/go-slidecap/internal/imageops"
)

// Option configures a Capturer.
type Option func(*Capturer)

// capturerConfig holds internal configuration for Capturer.
type capturerConfig struct {
	baseURL           string
	selector          string
	navigationTimeout time.Duration
	settleDelay       time.Duration
	forceReflow       bool
	stealth           bool
	dpr               float64 // 0 = environment policy
	quality           int
	maxSlides         int // 0 = no limit
	categories        []Category
}

// Defaults used when no option overrides them.
const (
	DefaultBaseURL           = "http://localhost:3000"
	DefaultContainerSelector = "[data-slides-container]"
	DefaultNavigationTimeout = 30 * time.Second
	DefaultSettleDelay       = 2 * time.Second
)

func defaultCapturerConfig() capturerConfig {
	return capturerConfig{
		baseURL:           DefaultBaseURL,
		selector:          DefaultContainerSelector,
		navigationTimeout: DefaultNavigationTimeout,
		settleDelay:       DefaultSettleDelay,
		forceReflow:       true,
		quality:           imageops.DefaultJPEGQuality,
		maxSlides:         DefaultMaxSlides,
		categories:        DefaultCategories(),
	}
}

// WithLauncher sets the browser launcher strategy.
// Default: NewLauncher(EnvLocal, LauncherOptions{}).
func WithLauncher(l BrowserLauncher) Option {
	return func(c *Capturer) {
		c.launcher = l
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Capturer) {
		c.logger = l
	}
}

// WithBaseURL sets the base URL of the app serving the target pages.
func WithBaseURL(u string) Option {
	return func(c *Capturer) {
		c.cfg.baseURL = u
	}
}

// WithContainerSelector sets the CSS selector of the multi-slide container.
func WithContainerSelector(sel string) Option {
	return func(c *Capturer) {
		c.cfg.selector = sel
	}
}

// WithNavigationTimeout sets the page navigation timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithNavigationTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("slidecap: WithNavigationTimeout duration must be positive")
	}
	return func(c *Capturer) {
		c.cfg.navigationTimeout = d
	}
}

// WithSettleDelay sets the fixed delay after network idle. Zero disables it.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Capturer) {
		c.cfg.settleDelay = max(d, 0)
	}
}

// WithForceReflow toggles the forced layout and font wait before capture.
func WithForceReflow(enabled bool) Option {
	return func(c *Capturer) {
		c.cfg.forceReflow = enabled
	}
}

// WithStealth opens target pages through go-rod/stealth.
func WithStealth(enabled bool) Option {
	return func(c *Capturer) {
		c.cfg.stealth = enabled
	}
}

// WithDevicePixelRatio overrides the environment's device pixel ratio.
// Zero restores the environment policy.
func WithDevicePixelRatio(dpr float64) Option {
	return func(c *Capturer) {
		c.cfg.dpr = dpr
	}
}

// WithJPEGQuality sets the slide JPEG quality (1-100).
func WithJPEGQuality(q int) Option {
	return func(c *Capturer) {
		c.cfg.quality = q
	}
}

// WithMaxSlides caps TotalSlides per request. Zero removes the cap.
// Default: DefaultMaxSlides.
func WithMaxSlides(n int) Option {
	return func(c *Capturer) {
		c.cfg.maxSlides = n
	}
}

// WithCategories replaces the category set.
func WithCategories(cats ...Category) Option {
	return func(c *Capturer) {
		c.cfg.categories = cats
	}
}
