package imageops

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/jpegli"
)

// JPEG encoding defaults.
const (
	DefaultJPEGQuality = 98
	MinJPEGQuality     = 1
	MaxJPEGQuality     = 100
)

// jpegProgressiveLevel selects jpegli's default progressive scan script.
const jpegProgressiveLevel = 2

// MIMEJPEG is the media type of encoded slides.
const MIMEJPEG = "image/jpeg"

var (
	ErrEmptyInput     = errors.New("imageops: empty input")
	ErrInvalidQuality = errors.New("imageops: invalid JPEG quality")
	ErrInvalidSize    = errors.New("imageops: invalid target size")
)

// Decode decodes a PNG/JPEG/GIF/BMP/TIFF buffer.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imageops: decode: %w", err)
	}
	return img, nil
}

// Crop returns the part of img inside rect, relative to img's bounds origin.
func Crop(img image.Image, rect image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, rect.Add(img.Bounds().Min))
}

// ResizeExact scales img to exactly width x height with a Lanczos filter.
// The aspect ratio is not preserved; the caller guarantees it already matches.
func ResizeExact(img image.Image, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}

// UnsharpMask sharpens img: out = src + amount * (src - blur(src, sigma)).
// Channels are clamped to [0, 255]; alpha is kept from the source.
// sigma <= 0 or amount <= 0 returns an unmodified copy.
func UnsharpMask(img image.Image, sigma, amount float64) *image.NRGBA {
	src := imaging.Clone(img)
	if sigma <= 0 || amount <= 0 {
		return src
	}
	blurred := imaging.Blur(src, sigma)

	dst := image.NewNRGBA(src.Rect)
	for i := 0; i+3 < len(src.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			s := float64(src.Pix[i+c])
			b := float64(blurred.Pix[i+c])
			dst.Pix[i+c] = clamp8(s + amount*(s-b))
		}
		dst.Pix[i+3] = src.Pix[i+3]
	}
	return dst
}

func clamp8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// EncodeJPEG encodes img as a progressive JPEG at the given quality (1-100)
// with 4:4:4 chroma, so colored text keeps sharp edges.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < MinJPEGQuality || quality > MaxJPEGQuality {
		return nil, fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidQuality, quality, MinJPEGQuality, MaxJPEGQuality)
	}
	var buf bytes.Buffer
	err := jpegli.Encode(&buf, img, &jpegli.EncodingOptions{
		Quality:           quality,
		ChromaSubsampling: image.YCbCrSubsampleRatio444,
		ProgressiveLevel:  jpegProgressiveLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("imageops: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL returns data as a base64 data URL with the given media type.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL reverses DataURL and returns the media type and payload.
func DecodeDataURL(s string) (string, []byte, error) {
	const marker = ";base64,"
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("imageops: not a data URL")
	}
	idx := strings.Index(rest, marker)
	if idx < 0 {
		return "", nil, fmt.Errorf("imageops: data URL is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(rest[idx+len(marker):])
	if err != nil {
		return "", nil, fmt.Errorf("imageops: data URL payload: %w", err)
	}
	return rest[:idx], data, nil
}
