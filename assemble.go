package slidecap

import (
	"log/slog"
	"math"
)

// PayloadWarnBytes is the total payload size from which a warning is
// logged. Serverless platforms commonly cap responses around 4.5 MB.
const PayloadWarnBytes = 4 << 20

// Assemble packages ordered slides with size metadata. It never fails:
// a payload close to platform limits only produces a warning.
func Assemble(slides []Slide, kind SlideKind, composite Dimensions, log *slog.Logger) *Result {
	meta := payloadMetadata(slides)
	if meta.NearLimit && log != nil {
		log.Warn("assemble: payload close to platform response limit",
			"totalPayloadMB", meta.TotalPayloadMB,
			"limitMB", PayloadWarnBytes>>20)
	}
	if log != nil {
		log.Info("assemble: done",
			"slides", len(slides),
			"totalPayloadMB", meta.TotalPayloadMB,
			"avgSizePerSlideKB", meta.AvgSizePerSlideKB)
	}
	return &Result{
		Slides:     slides,
		Kind:       kind,
		Dimensions: kind.Canonical(),
		Composite:  composite,
		Metadata:   meta,
	}
}

// payloadMetadata sums the encoded data URL sizes.
func payloadMetadata(slides []Slide) PayloadMetadata {
	total := 0
	for _, s := range slides {
		total += len(s.DataURL)
	}
	meta := PayloadMetadata{
		TotalBytes:     total,
		TotalPayloadMB: round2(float64(total) / (1 << 20)),
		NearLimit:      total >= PayloadWarnBytes,
	}
	if len(slides) > 0 {
		meta.AvgSizePerSlideKB = int(math.Round(float64(total) / float64(len(slides)) / 1024))
	}
	return meta
}

// round2 rounds v to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
