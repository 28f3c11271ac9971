package slidecap

import (
	"fmt"
	"slices"
	"strings"
)

// SlideKind selects the slide aspect ratio and canonical output size.
type SlideKind string

// Slide kinds.
const (
	KindCarousel SlideKind = "carousel" // 4:5, 1080x1350
	KindVideo    SlideKind = "video"    // 9:16, 1080x1920
)

// Canonical output sizes in pixels.
const (
	CanonicalWidth = 1080
	CarouselHeight = 1350
	VideoHeight    = 1920
)

// DefaultMaxSlides is the TotalSlides cap a Capturer applies unless
// WithMaxSlides changes it. The viewport grows linearly with the slide count.
const DefaultMaxSlides = 20

// ParseSlideKind parses a slide type name (case-insensitive).
// An empty string yields KindCarousel.
func ParseSlideKind(s string) (SlideKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(KindCarousel):
		return KindCarousel, nil
	case string(KindVideo):
		return KindVideo, nil
	}
	return "", fmt.Errorf("%w: %q (must be carousel or video)", ErrInvalidSlideKind, s)
}

// Valid reports whether k is a known slide kind.
func (k SlideKind) Valid() bool {
	return k == KindCarousel || k == KindVideo
}

// Canonical returns the final output size for the kind.
func (k SlideKind) Canonical() Dimensions {
	if k == KindVideo {
		return Dimensions{Width: CanonicalWidth, Height: VideoHeight}
	}
	return Dimensions{Width: CanonicalWidth, Height: CarouselHeight}
}

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Box is a rectangle in CSS pixels, as reported by the page layout engine.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Category describes one content category served by the capturer.
type Category struct {
	Name         string      // route segment, e.g. "riddles"
	IDField      string      // JSON field carrying the content id, e.g. "riddleId"
	PathTemplate string      // target page path, placeholders {id} {kind} {category}
	Kinds        []SlideKind // supported kinds; first entry is the default
}

// Supports reports whether the category renders the given kind.
func (c Category) Supports(k SlideKind) bool {
	return slices.Contains(c.Kinds, k)
}

// MultiKind reports whether the category supports more than one kind.
// Responses only echo slideType for such categories.
func (c Category) MultiKind() bool {
	return len(c.Kinds) > 1
}

// DefaultKind returns the kind used when a request does not specify one.
func (c Category) DefaultKind() SlideKind {
	if len(c.Kinds) == 0 {
		return KindCarousel
	}
	return c.Kinds[0]
}

// DefaultCategories returns the built-in content categories.
func DefaultCategories() []Category {
	return []Category{
		{
			Name:         "riddles",
			IDField:      "riddleId",
			PathTemplate: "/riddles/{id}/{kind}",
			Kinds:        []SlideKind{KindCarousel},
		},
		{
			Name:         "tutorials",
			IDField:      "tutorialId",
			PathTemplate: "/tutorials/{id}/{kind}",
			Kinds:        []SlideKind{KindCarousel, KindVideo},
		},
		{
			Name:         "sites",
			IDField:      "siteId",
			PathTemplate: "/sites/{id}/{kind}",
			Kinds:        []SlideKind{KindCarousel, KindVideo},
		},
	}
}

// CaptureRequest contains capture parameters.
type CaptureRequest struct {
	Category    string    // Category name (required)
	ContentID   string    // Content identifier (required)
	TotalSlides int       // Number of slides rendered side by side (>= 1)
	Kind        SlideKind // Slide kind (optional, empty = category default)
}

// Validate checks request fields that do not depend on the category.
// Does not mutate.
func (r CaptureRequest) Validate() error {
	if strings.TrimSpace(r.ContentID) == "" {
		return ErrMissingContentID
	}
	if r.TotalSlides < 1 {
		return fmt.Errorf("%w: %d (must be at least 1)", ErrInvalidTotalSlides, r.TotalSlides)
	}
	if r.Kind != "" && !r.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSlideKind, r.Kind)
	}
	return nil
}

// CheckSlideLimit rejects a request with more than limit slides.
// A limit <= 0 means no limit.
func (r CaptureRequest) CheckSlideLimit(limit int) error {
	if limit > 0 && r.TotalSlides > limit {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManySlides, r.TotalSlides, limit)
	}
	return nil
}

// Slide is one processed slide image.
type Slide struct {
	Index   int    `json:"slideIndex"`
	DataURL string `json:"dataUrl"`
}

// PayloadMetadata describes the encoded size of a capture result.
type PayloadMetadata struct {
	TotalBytes        int     `json:"-"`
	TotalPayloadMB    float64 `json:"totalPayloadMB"`
	AvgSizePerSlideKB int     `json:"avgSizePerSlideKB"`
	NearLimit         bool    `json:"-"`
}

// Result is the outcome of a successful capture.
type Result struct {
	Slides     []Slide         // Ordered by Index, 0..N-1
	Kind       SlideKind       // Kind actually rendered
	Dimensions Dimensions      // Canonical output size of every slide
	Composite  Dimensions      // Actual size of the captured composite
	Metadata   PayloadMetadata // Payload size information
}
