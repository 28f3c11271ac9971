//go:build integration

package slidecap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alnah/go-slidecap/internal/process"
)

func TestCapture_Integration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		req      CaptureRequest
		wantSize Dimensions
	}{
		{
			name:     "six carousel slides",
			req:      CaptureRequest{Category: "riddles", ContentID: "abc123", TotalSlides: 6},
			wantSize: Dimensions{Width: 1080, Height: 1350},
		},
		{
			name:     "three video slides",
			req:      CaptureRequest{Category: "tutorials", ContentID: "t1", TotalSlides: 3, Kind: KindVideo},
			wantSize: Dimensions{Width: 1080, Height: 1920},
		},
		{
			name:     "single slide",
			req:      CaptureRequest{Category: "sites", ContentID: "s1", TotalSlides: 1},
			wantSize: Dimensions{Width: 1080, Height: 1350},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
			defer cancel()

			res, err := testPool.Capture(ctx, tt.req)
			if err != nil {
				t.Fatalf("Capture() error = %v", err)
			}
			if len(res.Slides) != tt.req.TotalSlides {
				t.Fatalf("len(Slides) = %d, want %d", len(res.Slides), tt.req.TotalSlides)
			}
			if res.Dimensions != tt.wantSize {
				t.Errorf("Dimensions = %+v, want %+v", res.Dimensions, tt.wantSize)
			}

			// Composite width follows 432 CSS px * slides * local DPR.
			plan := NewViewportPlan(res.Kind, tt.req.TotalSlides, LocalDevicePixelRatio)
			if !plan.CheckCompositeWidth(res.Composite.Width, nil) {
				t.Errorf("Composite width %d below tolerance of %v", res.Composite.Width, plan.ExpectedCompositeWidth())
			}

			for i, s := range res.Slides {
				img := decodeSlide(t, s)
				if got := img.Bounds().Size(); got.X != tt.wantSize.Width || got.Y != tt.wantSize.Height {
					t.Errorf("Slides[%d] size = %v, want %+v", i, got, tt.wantSize)
				}
				assertDominantColor(t, i, img, slideColors[i%len(slideColors)])
			}
		})
	}
}

func TestCapture_Integration_ContainerMissing(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	_, err := testPool.Capture(ctx, CaptureRequest{Category: "riddles", ContentID: "missing", TotalSlides: 2})
	if !errors.Is(err, ErrContainerNotFound) {
		t.Errorf("Capture() error = %v, want %v", err, ErrContainerNotFound)
	}
}

func TestRodBrowser_Integration_CloseKillsProcess(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	capt := testPool.Capturer()
	b, err := capt.launcher.Launch(ctx)
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	rb, ok := b.(*rodBrowser)
	if !ok {
		t.Fatalf("Launch() returned %T, want *rodBrowser", b)
	}
	pid := rb.PID()
	if !process.Alive(pid) {
		t.Fatalf("browser pid %d not alive after launch", pid)
	}

	page, err := b.OpenPage(ctx, PageSpec{
		URL:               testApp.URL + "/riddles/missing/carousel?screenshot=true&slides=2",
		ViewportWidth:     964,
		ViewportHeight:    640,
		DevicePixelRatio:  1,
		NavigationTimeout: 20 * time.Second,
	})
	if err != nil {
		_ = b.Close()
		t.Fatalf("OpenPage() error = %v", err)
	}
	if _, err := page.ContainerBox(ctx, DefaultContainerSelector); !errors.Is(err, ErrContainerNotFound) {
		t.Errorf("ContainerBox() error = %v, want %v", err, ErrContainerNotFound)
	}

	_ = b.Close()
	_ = b.Close() // second close is a no-op

	deadline := time.Now().Add(5 * time.Second)
	for process.Alive(pid) && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if process.Alive(pid) {
		t.Errorf("browser pid %d still alive after Close()", pid)
	}
}
