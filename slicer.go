package slidecap

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/alnah/go-slidecap/internal/imageops"
)

// SharpenTier names the sharpening intensity applied after resizing.
type SharpenTier string

// Sharpening tiers.
const (
	SharpenLight    SharpenTier = "light"    // meaningful downscale
	SharpenModerate SharpenTier = "moderate" // near 1:1
	SharpenStrong   SharpenTier = "strong"   // upscale
)

// Resize ratio thresholds. A ratio of exactly 1.0 is moderate, a ratio of
// exactly 1.2 is light.
const (
	DownscaleRatio = 1.2
	IdentityRatio  = 1.0
)

// sharpenParams holds unsharp-mask parameters per tier.
var sharpenParams = map[SharpenTier]struct{ sigma, amount float64 }{
	SharpenLight:    {sigma: 0.5, amount: 0.6},
	SharpenModerate: {sigma: 0.75, amount: 1.0},
	SharpenStrong:   {sigma: 1.0, amount: 1.4},
}

// ResizePlan describes how one slice is brought to the canonical width.
type ResizePlan struct {
	SourceWidth int
	TargetWidth int
	Ratio       float64
	Tier        SharpenTier
	Sigma       float64
	Amount      float64
}

// PlanResize selects the sharpening tier from sourceWidth / targetWidth.
// The three tiers are a fixed step function, not a continuous curve.
func PlanResize(sourceWidth, targetWidth int) ResizePlan {
	ratio := 0.0
	if targetWidth > 0 {
		ratio = float64(sourceWidth) / float64(targetWidth)
	}

	tier := SharpenModerate
	switch {
	case ratio >= DownscaleRatio:
		tier = SharpenLight
	case ratio < IdentityRatio:
		tier = SharpenStrong
	}

	p := sharpenParams[tier]
	return ResizePlan{
		SourceWidth: sourceWidth,
		TargetWidth: targetWidth,
		Ratio:       ratio,
		Tier:        tier,
		Sigma:       p.sigma,
		Amount:      p.amount,
	}
}

// SliceBounds partitions a composite of the given actual size into n equal
// slices. The slice width is floor(width / n); any remainder stays as
// uncropped trailing pixels after the last slice.
func SliceBounds(width, height, n int) []image.Rectangle {
	if n < 1 || width < 1 || height < 1 {
		return nil
	}
	sliceW := width / n
	rects := make([]image.Rectangle, n)
	for i := range n {
		rects[i] = image.Rect(i*sliceW, 0, (i+1)*sliceW, height)
	}
	return rects
}

// slicer turns one composite screenshot into canonical slide images.
type slicer struct {
	quality int
}

// Reconstruct decodes the composite, slices it by its actual width and
// returns the processed slides in index order. Slides are processed one at a
// time; the first failure aborts the whole batch.
func (s *slicer) Reconstruct(ctx context.Context, composite []byte, plan ViewportPlan, log *slog.Logger) ([]Slide, Dimensions, error) {
	img, err := imageops.Decode(composite)
	if err != nil {
		if errors.Is(err, imageops.ErrEmptyInput) {
			return nil, Dimensions{}, ErrEmptyComposite
		}
		return nil, Dimensions{}, fmt.Errorf("%w: %v", ErrCompositeDecode, err)
	}

	size := img.Bounds().Size()
	actual := Dimensions{Width: size.X, Height: size.Y}
	if actual.Width < plan.TotalSlides || actual.Height < 1 {
		return nil, actual, fmt.Errorf("%w: %dx%d for %d slides", ErrEmptyComposite, actual.Width, actual.Height, plan.TotalSlides)
	}

	plan.CheckCompositeWidth(actual.Width, log)

	canon := plan.Kind.Canonical()
	bounds := SliceBounds(actual.Width, actual.Height, plan.TotalSlides)
	rp := PlanResize(bounds[0].Dx(), canon.Width)
	log.Info("slice: start",
		"composite", fmt.Sprintf("%dx%d", actual.Width, actual.Height),
		"sliceWidth", rp.SourceWidth,
		"ratio", fmt.Sprintf("%.3f", rp.Ratio),
		"tier", rp.Tier)

	slides := make([]Slide, 0, len(bounds))
	for i, rect := range bounds {
		if err := ctx.Err(); err != nil {
			return nil, actual, err
		}
		dataURL, err := s.processSlice(img, rect, canon, rp)
		if err != nil {
			return nil, actual, fmt.Errorf("slide %d: %w", i, err)
		}
		slides = append(slides, Slide{Index: i, DataURL: dataURL})
		log.Debug("slice: done", "index", i, "left", rect.Min.X, "bytes", len(dataURL))
	}
	return slides, actual, nil
}

// processSlice crops, resizes, sharpens and encodes one slide.
func (s *slicer) processSlice(img image.Image, rect image.Rectangle, canon Dimensions, rp ResizePlan) (string, error) {
	crop := imageops.Crop(img, rect)
	resized, err := imageops.ResizeExact(crop, canon.Width, canon.Height)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSliceEncode, err)
	}
	sharp := imageops.UnsharpMask(resized, rp.Sigma, rp.Amount)
	data, err := imageops.EncodeJPEG(sharp, s.quality)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSliceEncode, err)
	}
	return imageops.DataURL(imageops.MIMEJPEG, data), nil
}
