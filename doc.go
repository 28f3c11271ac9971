// Package slidecap captures multi-slide web pages with headless Chrome and
// slices the composite screenshot into canonical social-media slide images.
//
// # Quick Start
//
// Create a capturer, capture a page, and read the slides:
//
//	capt, err := slidecap.NewCapturer(
//	    slidecap.WithBaseURL("http://localhost:3000"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := capt.Capture(ctx, slidecap.CaptureRequest{
//	    Category:    "riddles",
//	    ContentID:   "abc123",
//	    TotalSlides: 6,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range result.Slides {
//	    fmt.Println(s.Index, len(s.DataURL))
//	}
//
// Every call to Capture launches its own browser and closes it before
// returning, on success and on failure alike.
//
// # Capture Pipeline
//
// The capture process follows these stages:
//
//  1. Request validation (no browser is launched for an invalid request)
//  2. Viewport planning: per-slide CSS size, device pixel ratio, viewport width
//  3. Browser launch via the configured BrowserLauncher (local or serverless)
//  4. Navigation, network-idle wait, settle delay, forced reflow
//  5. Container lookup and a single clipped PNG screenshot of all slides
//  6. Slicing: crop each slide from the actual composite width, Lanczos
//     resize to the canonical size, tiered sharpening, JPEG encoding
//  7. Assembly of the ordered slides with payload size metadata
//
// Crop geometry is always derived from the decoded composite's own bounds.
// The viewport arithmetic only feeds a non-fatal width sanity check.
//
// # Environments
//
// The launcher strategy is chosen once at startup:
//
//	env := slidecap.DetectEnvironment(os.Getenv)
//	launcher := slidecap.NewLauncher(env, slidecap.LauncherOptions{})
//	capt, err := slidecap.NewCapturer(slidecap.WithLauncher(launcher))
//
// Local launches render at a device pixel ratio of 2.5; serverless launches
// use 2.0 and a constrained set of Chrome flags.
//
// # Concurrency
//
// A Capturer is safe for concurrent use. CapturerPool bounds the number of
// simultaneous captures; browsers are never shared between requests.
//
// # Browser Requirements
//
// Capturing requires Chrome/Chromium. The go-rod library downloads a managed
// Chromium on first run when none is found. Set ROD_BROWSER_BIN to use a
// specific binary and ROD_NO_SANDBOX=1 in containers.
package slidecap
