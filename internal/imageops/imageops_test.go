package imageops

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// solid returns a w x h image filled with c.
func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		_, err := Decode(nil)
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Decode(nil) error = %v, want ErrEmptyInput", err)
		}
	})

	t.Run("garbage input", func(t *testing.T) {
		t.Parallel()

		if _, err := Decode([]byte("not an image")); err == nil {
			t.Error("Decode(garbage) error = nil, want error")
		}
	})

	t.Run("png keeps actual size", func(t *testing.T) {
		t.Parallel()

		img, err := Decode(encodePNG(t, solid(37, 11, color.NRGBA{R: 255, A: 255})))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if got := img.Bounds().Size(); got != image.Pt(37, 11) {
			t.Errorf("size = %v, want (37,11)", got)
		}
	})
}

func TestCrop(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 30, 10))
	for x := 10; x < 20; x++ {
		for y := 0; y < 10; y++ {
			img.SetNRGBA(x, y, color.NRGBA{G: 255, A: 255})
		}
	}

	got := Crop(img, image.Rect(10, 0, 20, 10))
	if got.Bounds().Dx() != 10 || got.Bounds().Dy() != 10 {
		t.Fatalf("crop size = %v, want 10x10", got.Bounds().Size())
	}
	if c := got.NRGBAAt(5, 5); c.G != 255 || c.R != 0 {
		t.Errorf("crop center = %v, want green", c)
	}
}

func TestCrop_OffsetOrigin(t *testing.T) {
	t.Parallel()

	full := solid(20, 10, color.NRGBA{B: 255, A: 255})
	sub := full.SubImage(image.Rect(5, 0, 20, 10))

	got := Crop(sub, image.Rect(0, 0, 5, 10))
	if got.Bounds().Dx() != 5 {
		t.Errorf("crop width = %d, want 5", got.Bounds().Dx())
	}
}

func TestResizeExact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		w, h    int
		wantErr bool
	}{
		{name: "upscale", w: 1080, h: 1350},
		{name: "downscale", w: 10, h: 12},
		{name: "zero width", w: 0, h: 10, wantErr: true},
		{name: "negative height", w: 10, h: -1, wantErr: true},
	}

	src := solid(432, 540, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResizeExact(src, tt.w, tt.h)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSize) {
					t.Errorf("error = %v, want ErrInvalidSize", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResizeExact() error = %v", err)
			}
			if got.Bounds().Dx() != tt.w || got.Bounds().Dy() != tt.h {
				t.Errorf("size = %v, want %dx%d", got.Bounds().Size(), tt.w, tt.h)
			}
		})
	}
}

func TestUnsharpMask(t *testing.T) {
	t.Parallel()

	t.Run("uniform image is unchanged", func(t *testing.T) {
		t.Parallel()

		c := color.NRGBA{R: 120, G: 60, B: 30, A: 255}
		got := UnsharpMask(solid(16, 16, c), 1.0, 1.5)
		if px := got.NRGBAAt(8, 8); px != c {
			t.Errorf("pixel = %v, want %v", px, c)
		}
	})

	t.Run("zero amount copies input", func(t *testing.T) {
		t.Parallel()

		src := solid(4, 4, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
		got := UnsharpMask(src, 1.0, 0)
		if !bytes.Equal(got.Pix, src.Pix) {
			t.Error("zero amount modified pixels")
		}
		got.Pix[0] = 99
		if src.Pix[0] == 99 {
			t.Error("result aliases the input")
		}
	})

	t.Run("edge contrast increases", func(t *testing.T) {
		t.Parallel()

		img := solid(20, 4, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
		for x := 10; x < 20; x++ {
			for y := 0; y < 4; y++ {
				img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
			}
		}
		got := UnsharpMask(img, 1.0, 1.0)
		if dark := got.NRGBAAt(9, 2).R; dark >= 100 {
			t.Errorf("dark side of edge = %d, want < 100", dark)
		}
		if light := got.NRGBAAt(10, 2).R; light <= 200 {
			t.Errorf("light side of edge = %d, want > 200", light)
		}
	})
}

func TestEncodeJPEG(t *testing.T) {
	t.Parallel()

	img := solid(64, 80, color.NRGBA{G: 255, A: 255})

	t.Run("round trip keeps size", func(t *testing.T) {
		t.Parallel()

		data, err := EncodeJPEG(img, DefaultJPEGQuality)
		if err != nil {
			t.Fatalf("EncodeJPEG() error = %v", err)
		}
		if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
			t.Fatalf("missing JPEG SOI marker")
		}
		decoded, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if got := decoded.Bounds().Size(); got != image.Pt(64, 80) {
			t.Errorf("decoded size = %v, want (64,80)", got)
		}
	})

	t.Run("progressive with full chroma", func(t *testing.T) {
		t.Parallel()

		data, err := EncodeJPEG(solid(40, 50, color.NRGBA{R: 200, G: 30, B: 90, A: 255}), DefaultJPEGQuality)
		if err != nil {
			t.Fatalf("EncodeJPEG() error = %v", err)
		}
		frame, err := readJPEGFrame(data)
		if err != nil {
			t.Fatalf("readJPEGFrame() error = %v", err)
		}
		if frame.marker != markerSOF2 {
			t.Errorf("frame marker = %#x, want %#x (progressive)", frame.marker, markerSOF2)
		}
		if frame.width != 40 || frame.height != 50 {
			t.Errorf("frame size = %dx%d, want 40x50", frame.width, frame.height)
		}
		if len(frame.sampling) != 3 {
			t.Fatalf("components = %d, want 3", len(frame.sampling))
		}
		for i, s := range frame.sampling {
			if s != 0x11 {
				t.Errorf("component %d sampling = %#x, want 0x11 (4:4:4)", i, s)
			}
		}
	})

	for _, q := range []int{0, 101, -5} {
		if _, err := EncodeJPEG(img, q); !errors.Is(err, ErrInvalidQuality) {
			t.Errorf("EncodeJPEG(q=%d) error = %v, want ErrInvalidQuality", q, err)
		}
	}
}

func TestDataURL(t *testing.T) {
	t.Parallel()

	payload := []byte{0xFF, 0xD8, 0x00, 0x01}
	u := DataURL(MIMEJPEG, payload)
	if want := "data:image/jpeg;base64,"; u[:len(want)] != want {
		t.Fatalf("DataURL() prefix = %q, want %q", u[:len(want)], want)
	}

	mime, data, err := DecodeDataURL(u)
	if err != nil {
		t.Fatalf("DecodeDataURL() error = %v", err)
	}
	if mime != MIMEJPEG {
		t.Errorf("mime = %q, want %q", mime, MIMEJPEG)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("payload = %v, want %v", data, payload)
	}
}

func TestDecodeDataURL_Invalid(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"image/jpeg;base64,AAAA",
		"data:image/jpeg,plain",
		"data:image/jpeg;base64,!!!",
	}
	for _, in := range tests {
		if _, _, err := DecodeDataURL(in); err == nil {
			t.Errorf("DecodeDataURL(%q) error = nil, want error", in)
		}
	}
}

// ---------------------------------------------------------------------------
// JPEG frame header helpers
// ---------------------------------------------------------------------------

const (
	markerSOF0 = 0xC0 // baseline
	markerSOF2 = 0xC2 // progressive
)

// jpegFrame is the part of a SOFn segment the tests assert on.
type jpegFrame struct {
	marker   byte
	width    int
	height   int
	sampling []byte // one H<<4|V byte per component
}

// readJPEGFrame walks the marker segments up to the first SOFn header.
func readJPEGFrame(data []byte) (jpegFrame, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return jpegFrame{}, errors.New("missing SOI")
	}
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return jpegFrame{}, fmt.Errorf("expected marker at offset %d", i)
		}
		marker := data[i+1]
		if marker == 0xFF { // fill byte
			i++
			continue
		}
		length := int(data[i+2])<<8 | int(data[i+3])
		seg := data[i+4 : min(i+2+length, len(data))]
		if marker >= markerSOF0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC {
			if len(seg) < 6 {
				return jpegFrame{}, errors.New("short SOF segment")
			}
			f := jpegFrame{
				marker: marker,
				height: int(seg[1])<<8 | int(seg[2]),
				width:  int(seg[3])<<8 | int(seg[4]),
			}
			n := int(seg[5])
			if len(seg) < 6+3*n {
				return jpegFrame{}, errors.New("truncated SOF components")
			}
			for c := 0; c < n; c++ {
				f.sampling = append(f.sampling, seg[6+3*c+1])
			}
			return f, nil
		}
		i += 2 + length
	}
	return jpegFrame{}, errors.New("no SOF marker")
}
