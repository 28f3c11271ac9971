package slidecap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-slidecap/internal/imageops"
)

// Capturer orchestrates the capture pipeline.
// Create with NewCapturer and call Capture per request. Safe for concurrent
// use: every Capture launches and closes its own browser.
type Capturer struct {
	cfg        capturerConfig
	launcher   BrowserLauncher
	logger     *slog.Logger
	slicer     *slicer
	categories map[string]Category
}

// NewCapturer creates a Capturer with default configuration.
// Returns an error if options produce an unusable configuration.
func NewCapturer(opts ...Option) (*Capturer, error) {
	c := &Capturer{cfg: defaultCapturerConfig()}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.launcher == nil {
		c.launcher = NewLauncher(EnvLocal, LauncherOptions{Logger: c.logger})
	}

	if err := c.validateConfig(); err != nil {
		return nil, err
	}

	c.categories = make(map[string]Category, len(c.cfg.categories))
	for _, cat := range c.cfg.categories {
		c.categories[cat.Name] = cat
	}
	c.slicer = &slicer{quality: c.cfg.quality}
	return c, nil
}

// validateConfig checks options that would otherwise fail on every request.
func (c *Capturer) validateConfig() error {
	sample := CaptureRequest{ContentID: "sample", TotalSlides: 1, Kind: KindCarousel}
	if _, err := BuildTargetURL(c.cfg.baseURL, "/", sample); err != nil {
		return err
	}
	if strings.TrimSpace(c.cfg.selector) == "" {
		return fmt.Errorf("slidecap: container selector cannot be empty")
	}
	if c.cfg.quality < imageops.MinJPEGQuality || c.cfg.quality > imageops.MaxJPEGQuality {
		return fmt.Errorf("%w: %d", imageops.ErrInvalidQuality, c.cfg.quality)
	}
	if c.cfg.maxSlides < 0 {
		return fmt.Errorf("slidecap: max slides cannot be negative: %d", c.cfg.maxSlides)
	}
	if c.cfg.dpr < 0 {
		return fmt.Errorf("slidecap: device pixel ratio cannot be negative: %v", c.cfg.dpr)
	}
	if len(c.cfg.categories) == 0 {
		return fmt.Errorf("slidecap: at least one category is required")
	}
	for _, cat := range c.cfg.categories {
		if cat.Name == "" || cat.IDField == "" {
			return fmt.Errorf("slidecap: category needs a name and an id field: %+v", cat)
		}
		if !strings.HasPrefix(cat.PathTemplate, "/") {
			return fmt.Errorf("%w: %q (category %s)", ErrInvalidPathTemplate, cat.PathTemplate, cat.Name)
		}
		for _, k := range cat.Kinds {
			if !k.Valid() {
				return fmt.Errorf("%w: %q (category %s)", ErrInvalidSlideKind, k, cat.Name)
			}
		}
	}
	return nil
}

// Categories returns the configured categories in configuration order.
func (c *Capturer) Categories() []Category {
	out := make([]Category, len(c.cfg.categories))
	copy(out, c.cfg.categories)
	return out
}

// Category looks up a category by name.
func (c *Capturer) Category(name string) (Category, bool) {
	cat, ok := c.categories[name]
	return cat, ok
}

// MaxSlides returns the TotalSlides cap, 0 when unlimited.
func (c *Capturer) MaxSlides() int {
	return c.cfg.maxSlides
}

// Environment returns the environment of the configured launcher.
func (c *Capturer) Environment() Environment {
	return c.launcher.Environment()
}

// DevicePixelRatio returns the ratio used for captures.
func (c *Capturer) DevicePixelRatio() float64 {
	if c.cfg.dpr > 0 {
		return c.cfg.dpr
	}
	return DefaultDevicePixelRatio(c.launcher.Environment())
}

// Capture runs the full pipeline and returns the ordered slides.
// Invalid requests fail before any browser is launched. Once launched, the
// browser is closed on every return path. Recovers from internal panics to
// prevent crashes from propagating to callers.
func (c *Capturer) Capture(ctx context.Context, req CaptureRequest) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	req, cat, err := c.resolveRequest(req)
	if err != nil {
		return nil, err
	}

	targetURL, err := BuildTargetURL(c.cfg.baseURL, cat.PathTemplate, req)
	if err != nil {
		return nil, err
	}

	plan := NewViewportPlan(req.Kind, req.TotalSlides, c.DevicePixelRatio())
	log := c.logger.With(
		"run", uuid.NewString(),
		"category", req.Category,
		"id", req.ContentID,
		"slides", req.TotalSlides,
		"kind", req.Kind,
	)
	start := time.Now()

	log.Info("capture: launching", "env", c.launcher.Environment(), "dpr", plan.DevicePixelRatio)
	browser, err := c.launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			log.Warn("capture: browser close", "error", cerr)
		}
		log.Info("capture: closed", "elapsed", time.Since(start).Round(time.Millisecond))
	}()

	page, err := browser.OpenPage(ctx, PageSpec{
		URL:               targetURL,
		ViewportWidth:     plan.ViewportWidth,
		ViewportHeight:    plan.ViewportHeight,
		DevicePixelRatio:  plan.DevicePixelRatio,
		NavigationTimeout: c.cfg.navigationTimeout,
		SettleDelay:       c.cfg.settleDelay,
		ForceReflow:       c.cfg.forceReflow,
		Stealth:           c.cfg.stealth,
	})
	if err != nil {
		return nil, err
	}
	log.Info("capture: navigated", "url", targetURL,
		"viewport", fmt.Sprintf("%dx%d", plan.ViewportWidth, plan.ViewportHeight))

	box, err := page.ContainerBox(ctx, c.cfg.selector)
	if err != nil {
		return nil, err
	}

	composite, err := page.CaptureClip(ctx, box)
	if err != nil {
		return nil, err
	}
	log.Info("capture: captured",
		"box", fmt.Sprintf("%.0fx%.0f+%.0f+%.0f", box.Width, box.Height, box.X, box.Y),
		"bytes", len(composite))

	slides, actual, err := c.slicer.Reconstruct(ctx, composite, plan, log)
	if err != nil {
		return nil, err
	}

	return Assemble(slides, req.Kind, actual, log), nil
}

// resolveRequest validates req against its category and fills the default kind.
func (c *Capturer) resolveRequest(req CaptureRequest) (CaptureRequest, Category, error) {
	if err := req.Validate(); err != nil {
		return req, Category{}, err
	}
	if err := req.CheckSlideLimit(c.cfg.maxSlides); err != nil {
		return req, Category{}, err
	}
	cat, ok := c.categories[req.Category]
	if !ok {
		return req, Category{}, fmt.Errorf("%w: %q", ErrUnknownCategory, req.Category)
	}
	if req.Kind == "" {
		req.Kind = cat.DefaultKind()
	}
	if !cat.Supports(req.Kind) {
		return req, Category{}, fmt.Errorf("%w: %s does not render %s", ErrSlideKindUnsupported, cat.Name, req.Kind)
	}
	return req, cat, nil
}
