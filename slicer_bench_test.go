//go:build bench

package slidecap

import (
	"context"
	"fmt"
	"testing"

	"github.com/alnah/go-slidecap/internal/imageops"
)

// BenchmarkResolvePoolSize benchmarks pool size calculation.
func BenchmarkResolvePoolSize(b *testing.B) {
	for _, w := range []int{0, 1, 2, 4, 8} {
		b.Run(workerName(w), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				_ = ResolvePoolSize(w)
			}
		})
	}
}

func workerName(w int) string {
	if w == 0 {
		return "auto"
	}
	return fmt.Sprintf("%d", w)
}

// BenchmarkPoolAcquireRelease benchmarks one slot reservation cycle.
// The capturer is never used, so no browser is launched.
func BenchmarkPoolAcquireRelease(b *testing.B) {
	for _, size := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("size=%d", size), func(b *testing.B) {
			pool := NewCapturerPool(nil, size)
			defer pool.Close()
			ctx := context.Background()

			b.ReportAllocs()
			for b.Loop() {
				if err := pool.Acquire(ctx); err != nil {
					b.Fatal(err)
				}
				pool.Release()
			}
		})
	}
}

// BenchmarkSlicer_Reconstruct measures decode, crop, resize, sharpen and
// encode for composites at the local device pixel ratio.
func BenchmarkSlicer_Reconstruct(b *testing.B) {
	cases := []struct {
		kind SlideKind
		n    int
	}{
		{kind: KindCarousel, n: 1},
		{kind: KindCarousel, n: 5},
		{kind: KindVideo, n: 3},
	}

	for _, c := range cases {
		b.Run(fmt.Sprintf("%s/%d", c.kind, c.n), func(b *testing.B) {
			canon := c.kind.Canonical()
			composite := compositePNG(b, slideColors[:c.n], canon.Width, canon.Height, 0)
			plan := NewViewportPlan(c.kind, c.n, LocalDevicePixelRatio)
			s := &slicer{quality: imageops.DefaultJPEGQuality}
			log := discardLogger()

			b.ReportAllocs()
			b.SetBytes(int64(len(composite)))
			for b.Loop() {
				if _, _, err := s.Reconstruct(context.Background(), composite, plan, log); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkPlanResize benchmarks tier selection.
func BenchmarkPlanResize(b *testing.B) {
	for _, w := range []int{864, 1080, 1350} {
		b.Run(fmt.Sprintf("src=%d", w), func(b *testing.B) {
			for b.Loop() {
				_ = PlanResize(w, CanonicalWidth)
			}
		})
	}
}
