package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	slidecap "github.com/alnah/go-slidecap"
	"github.com/alnah/go-slidecap/internal/config"
	"github.com/alnah/go-slidecap/internal/imageops"
)

func jpegSlide(index int, payload string) slidecap.Slide {
	return slidecap.Slide{Index: index, DataURL: imageops.DataURL(imageops.MIMEJPEG, []byte(payload))}
}

// ---------------------------------------------------------------------------
// TestWriteSlides
// ---------------------------------------------------------------------------

func TestWriteSlides(t *testing.T) {
	t.Parallel()

	t.Run("writes numbered files in order", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "out", "nested")
		slides := []slidecap.Slide{jpegSlide(0, "first"), jpegSlide(1, "second"), jpegSlide(9, "tenth")}

		paths, err := writeSlides(dir, slides)
		if err != nil {
			t.Fatalf("writeSlides() error = %v", err)
		}

		wantNames := []string{"slide-01.jpg", "slide-02.jpg", "slide-10.jpg"}
		wantData := []string{"first", "second", "tenth"}
		if len(paths) != len(wantNames) {
			t.Fatalf("paths = %v, want %d entries", paths, len(wantNames))
		}
		for i, p := range paths {
			if filepath.Base(p) != wantNames[i] {
				t.Errorf("paths[%d] = %s, want %s", i, filepath.Base(p), wantNames[i])
			}
			data, err := os.ReadFile(p)
			if err != nil {
				t.Fatalf("read %s: %v", p, err)
			}
			if string(data) != wantData[i] {
				t.Errorf("%s content = %q, want %q", p, data, wantData[i])
			}
		}
	})

	t.Run("rejects non-jpeg data url", func(t *testing.T) {
		t.Parallel()

		slides := []slidecap.Slide{{Index: 0, DataURL: imageops.DataURL("image/png", []byte("x"))}}
		if _, err := writeSlides(t.TempDir(), slides); !errors.Is(err, ErrWriteSlide) {
			t.Errorf("error = %v, want ErrWriteSlide", err)
		}
	})

	t.Run("rejects malformed data url", func(t *testing.T) {
		t.Parallel()

		slides := []slidecap.Slide{{Index: 0, DataURL: "http://not-inline"}}
		if _, err := writeSlides(t.TempDir(), slides); !errors.Is(err, ErrWriteSlide) {
			t.Errorf("error = %v, want ErrWriteSlide", err)
		}
	})

	t.Run("output path is a file", func(t *testing.T) {
		t.Parallel()

		file := filepath.Join(t.TempDir(), "taken")
		if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := writeSlides(file, []slidecap.Slide{jpegSlide(0, "a")})
		if !errors.Is(err, ErrWriteSlide) {
			t.Fatalf("error = %v, want ErrWriteSlide", err)
		}
		if exitCodeFor(err) != ExitIO {
			t.Errorf("exit code = %d, want %d", exitCodeFor(err), ExitIO)
		}
		if !strings.Contains(err.Error(), "hint:") {
			t.Errorf("error should carry a hint: %v", err)
		}
	})
}

func TestSlideFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		index int
		want  string
	}{
		{0, "slide-01.jpg"},
		{8, "slide-09.jpg"},
		{19, "slide-20.jpg"},
	}
	for _, tt := range tests {
		if got := slideFileName(tt.index); got != tt.want {
			t.Errorf("slideFileName(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestCaptureHint
// ---------------------------------------------------------------------------

func TestCaptureHint(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Target.BaseURL = "http://app.test"

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{name: "timeout", err: fmt.Errorf("nav: %w", context.DeadlineExceeded), contains: "--timeout"},
		{name: "launch", err: slidecap.ErrBrowserLaunch, contains: "slidecap doctor"},
		{name: "connect", err: slidecap.ErrBrowserConnect, contains: "slidecap doctor"},
		{name: "page load", err: slidecap.ErrPageLoad, contains: "http://app.test"},
		{name: "container", err: slidecap.ErrContainerNotFound, contains: config.DefaultContainerSelector},
		{name: "other", err: slidecap.ErrSliceEncode, contains: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := captureHint(tt.err, cfg)
			if tt.contains == "" {
				if got != "" {
					t.Errorf("captureHint() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("captureHint() = %q, want substring %q", got, tt.contains)
			}
		})
	}
}

func TestPrintCaptureSummary(t *testing.T) {
	t.Parallel()

	res := &slidecap.Result{
		Slides:     []slidecap.Slide{jpegSlide(0, "a"), jpegSlide(1, "b")},
		Kind:       slidecap.KindVideo,
		Dimensions: slidecap.KindVideo.Canonical(),
		Metadata:   slidecap.PayloadMetadata{TotalPayloadMB: 1.25, AvgSizePerSlideKB: 640},
	}

	var buf bytes.Buffer
	printCaptureSummary(&buf, res, []string{"out/slide-01.jpg", "out/slide-02.jpg"}, 1500*time.Millisecond)

	out := buf.String()
	for _, want := range []string{"out/slide-01.jpg", "out/slide-02.jpg", "2 video slide(s) 1080x1920", "1.25 MB", "avg 640 KB/slide", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
