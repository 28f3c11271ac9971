package slidecap

import "errors"

// Sentinel errors for library operations.
var (
	// Request validation errors.
	ErrMissingContentID     = errors.New("content id is required")
	ErrInvalidTotalSlides   = errors.New("invalid total slides")
	ErrTooManySlides        = errors.New("too many slides")
	ErrInvalidSlideKind     = errors.New("invalid slide type")
	ErrSlideKindUnsupported = errors.New("slide type not supported by category")
	ErrUnknownCategory      = errors.New("unknown category")

	// Browser and render errors.
	ErrBrowserLaunch     = errors.New("failed to launch browser")
	ErrBrowserConnect    = errors.New("failed to connect to browser")
	ErrPageCreate        = errors.New("failed to create browser page")
	ErrPageLoad          = errors.New("failed to load page")
	ErrContainerNotFound = errors.New("slides container not found")
	ErrScreenshot        = errors.New("screenshot capture failed")

	// Image processing errors.
	ErrCompositeDecode = errors.New("failed to decode composite screenshot")
	ErrEmptyComposite  = errors.New("composite screenshot is empty")
	ErrSliceEncode     = errors.New("failed to encode slide")

	// Configuration errors.
	ErrInvalidBaseURL      = errors.New("invalid base URL")
	ErrInvalidEnvironment  = errors.New("invalid environment")
	ErrInvalidPathTemplate = errors.New("invalid path template")
)

// IsValidationError reports whether err was caused by an invalid request
// rather than by rendering or image processing.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingContentID) ||
		errors.Is(err, ErrInvalidTotalSlides) ||
		errors.Is(err, ErrTooManySlides) ||
		errors.Is(err, ErrInvalidSlideKind) ||
		errors.Is(err, ErrSlideKindUnsupported)
}

// IsBrowserError reports whether err originated in the browser session.
func IsBrowserError(err error) bool {
	return errors.Is(err, ErrBrowserLaunch) ||
		errors.Is(err, ErrBrowserConnect) ||
		errors.Is(err, ErrPageCreate) ||
		errors.Is(err, ErrPageLoad) ||
		errors.Is(err, ErrScreenshot)
}
