package slidecap

import (
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Rendering geometry constants.
const (
	// LogicalScale divides the canonical size to get the CSS size of one
	// slide in the target page (1080 / 2.5 = 432 CSS px).
	LogicalScale = 2.5

	// ViewportMargin is added to the viewport so the container never touches
	// the viewport edge.
	ViewportMargin = 100

	// LocalDevicePixelRatio renders sharper output on a workstation.
	LocalDevicePixelRatio = 2.5

	// ServerlessDevicePixelRatio avoids renderer overlap bugs seen at higher
	// ratios on constrained instances.
	ServerlessDevicePixelRatio = 2.0

	// CompositeWidthTolerance is the fraction of the expected composite width
	// below which a mismatch warning is logged.
	CompositeWidthTolerance = 0.9
)

// ScreenshotQueryFlag tells the target page to render in capture layout.
const ScreenshotQueryFlag = "screenshot"

// ViewportPlan holds the nominal geometry of one capture.
// It sizes the browser viewport and sanity-checks the captured composite;
// crop geometry never comes from it.
type ViewportPlan struct {
	Kind             SlideKind
	TotalSlides      int
	DevicePixelRatio float64
	SlideCSSWidth    float64
	SlideCSSHeight   float64
	ViewportWidth    int
	ViewportHeight   int
}

// NewViewportPlan computes the nominal geometry for n slides of kind k
// rendered at the given device pixel ratio.
func NewViewportPlan(k SlideKind, n int, dpr float64) ViewportPlan {
	canon := k.Canonical()
	slideW := float64(canon.Width) / LogicalScale
	slideH := float64(canon.Height) / LogicalScale
	return ViewportPlan{
		Kind:             k,
		TotalSlides:      n,
		DevicePixelRatio: dpr,
		SlideCSSWidth:    slideW,
		SlideCSSHeight:   slideH,
		ViewportWidth:    int(math.Ceil(slideW*float64(n))) + ViewportMargin,
		ViewportHeight:   int(math.Ceil(slideH)) + ViewportMargin,
	}
}

// ExpectedCompositeWidth is the naive pixel width of the composite:
// slide CSS width * slides * device pixel ratio.
func (p ViewportPlan) ExpectedCompositeWidth() float64 {
	return p.SlideCSSWidth * float64(p.TotalSlides) * p.DevicePixelRatio
}

// CheckCompositeWidth logs a warning when the actual composite is narrower
// than CompositeWidthTolerance of the expected width. It never fails;
// processing continues with the actual dimensions. Returns true when the
// width is within tolerance.
func (p ViewportPlan) CheckCompositeWidth(actualWidth int, log *slog.Logger) bool {
	expected := p.ExpectedCompositeWidth()
	if float64(actualWidth) >= expected*CompositeWidthTolerance {
		return true
	}
	if log != nil {
		log.Warn("slice: composite narrower than expected",
			"actual", actualWidth,
			"expected", int(math.Round(expected)),
			"dpr", p.DevicePixelRatio)
	}
	return false
}

// DefaultDevicePixelRatio returns the device pixel ratio policy for env.
func DefaultDevicePixelRatio(env Environment) float64 {
	if env == EnvServerless {
		return ServerlessDevicePixelRatio
	}
	return LocalDevicePixelRatio
}

// BuildTargetURL builds the URL of the page that renders the request's
// slides. The path template accepts {id}, {kind} and {category}
// placeholders; the query gets the screenshot flag and the slide count.
func BuildTargetURL(baseURL, pathTemplate string, req CaptureRequest) (string, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	if !strings.HasPrefix(pathTemplate, "/") {
		return "", fmt.Errorf("%w: %q (must start with /)", ErrInvalidPathTemplate, pathTemplate)
	}

	path := strings.NewReplacer(
		"{id}", url.PathEscape(req.ContentID),
		"{kind}", string(req.Kind),
		"{category}", url.PathEscape(req.Category),
	).Replace(pathTemplate)

	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPathTemplate, err)
	}

	target := base.JoinPath(ref.EscapedPath())
	q := ref.Query()
	q.Set(ScreenshotQueryFlag, "true")
	q.Set("slides", strconv.Itoa(req.TotalSlides))
	target.RawQuery = q.Encode()
	return target.String(), nil
}
