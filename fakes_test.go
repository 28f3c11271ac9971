package slidecap

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/alnah/go-slidecap/internal/imageops"
)

// ---------------------------------------------------------------------------
// Fake browser stack
// ---------------------------------------------------------------------------

// fakeLauncher implements BrowserLauncher and records every launch.
type fakeLauncher struct {
	env       Environment
	launchErr error
	openErr   error
	page      *fakePage

	mu       sync.Mutex
	browsers []*fakeBrowser
}

func (l *fakeLauncher) Environment() Environment {
	if l.env == "" {
		return EnvLocal
	}
	return l.env
}

func (l *fakeLauncher) Launch(ctx context.Context) (Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	b := &fakeBrowser{page: l.page, openErr: l.openErr}
	l.browsers = append(l.browsers, b)
	return b, nil
}

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.browsers)
}

// lastBrowser returns the most recent browser, failing the test if none.
func (l *fakeLauncher) lastBrowser(t *testing.T) *fakeBrowser {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.browsers) == 0 {
		t.Fatal("no browser was launched")
	}
	return l.browsers[len(l.browsers)-1]
}

// fakeBrowser implements Browser and counts closes.
type fakeBrowser struct {
	page    *fakePage
	openErr error

	mu     sync.Mutex
	spec   PageSpec
	closes int
}

func (b *fakeBrowser) OpenPage(ctx context.Context, spec PageSpec) (Page, error) {
	b.mu.Lock()
	b.spec = spec
	b.mu.Unlock()
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.page, nil
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	return nil
}

func (b *fakeBrowser) closeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes
}

func (b *fakeBrowser) openedSpec() PageSpec {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spec
}

// fakePage implements Page with canned results.
type fakePage struct {
	box        Box
	boxErr     error
	composite  []byte
	captureErr error
	panicMsg   string
	block      chan struct{} // if set, CaptureClip waits on it

	mu       sync.Mutex
	selector string
}

func (p *fakePage) ContainerBox(ctx context.Context, selector string) (Box, error) {
	p.mu.Lock()
	p.selector = selector
	p.mu.Unlock()
	if p.boxErr != nil {
		return Box{}, p.boxErr
	}
	return p.box, nil
}

func (p *fakePage) CaptureClip(ctx context.Context, box Box) ([]byte, error) {
	if p.panicMsg != "" {
		panic(p.panicMsg)
	}
	if p.block != nil {
		<-p.block
	}
	if p.captureErr != nil {
		return nil, p.captureErr
	}
	return p.composite, nil
}

// ---------------------------------------------------------------------------
// Image helpers
// ---------------------------------------------------------------------------

// slideColors are distinct solid colors for composite fixtures.
var slideColors = []color.NRGBA{
	{R: 220, G: 30, B: 30, A: 255},
	{R: 30, G: 200, B: 40, A: 255},
	{R: 30, G: 40, B: 220, A: 255},
	{R: 230, G: 220, B: 30, A: 255},
	{R: 200, G: 30, B: 200, A: 255},
	{R: 30, G: 210, B: 210, A: 255},
}

// compositePNG renders len(colors) solid columns of sliceW x height pixels,
// followed by extra trailing pixels of the last color.
func compositePNG(t testing.TB, colors []color.NRGBA, sliceW, height, extra int) []byte {
	t.Helper()
	width := sliceW*len(colors) + extra
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		c := colors[min(x/sliceW, len(colors)-1)]
		for y := 0; y < height; y++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// decodeSlide decodes a slide data URL into an image.
func decodeSlide(t *testing.T, s Slide) image.Image {
	t.Helper()
	mime, data, err := imageops.DecodeDataURL(s.DataURL)
	if err != nil {
		t.Fatalf("slide %d: DecodeDataURL() error = %v", s.Index, err)
	}
	if mime != imageops.MIMEJPEG {
		t.Errorf("slide %d: mime = %q, want %q", s.Index, mime, imageops.MIMEJPEG)
	}
	img, err := imageops.Decode(data)
	if err != nil {
		t.Fatalf("slide %d: Decode() error = %v", s.Index, err)
	}
	return img
}

// assertDominantColor checks the center pixel of img against want.
func assertDominantColor(t *testing.T, idx int, img image.Image, want color.NRGBA) {
	t.Helper()
	b := img.Bounds()
	got := color.NRGBAModel.Convert(img.At(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2)).(color.NRGBA)
	const tolerance = 16
	if absDiff(got.R, want.R) > tolerance || absDiff(got.G, want.G) > tolerance || absDiff(got.B, want.B) > tolerance {
		t.Errorf("slide %d: center color = %v, want about %v", idx, got, want)
	}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// ---------------------------------------------------------------------------
// Logging helpers
// ---------------------------------------------------------------------------

// discardLogger drops all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncBuffer is a goroutine-safe bytes.Buffer for log assertions.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// bufferLogger logs everything at debug level into buf.
func bufferLogger(buf *syncBuffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
