package main

import (
	"errors"
	"os"

	slidecap "github.com/alnah/go-slidecap"
	"github.com/alnah/go-slidecap/internal/config"
)

// Exit codes for the slidecap CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Command completed
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or request
	ExitIO      = 3 // Output directory or file errors
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if slidecap.IsBrowserError(err) ||
		errors.Is(err, slidecap.ErrContainerNotFound) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrWriteSlide) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if slidecap.IsValidationError(err) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, slidecap.ErrUnknownCategory) ||
		errors.Is(err, slidecap.ErrInvalidBaseURL) ||
		errors.Is(err, slidecap.ErrInvalidEnvironment) ||
		errors.Is(err, slidecap.ErrInvalidPathTemplate) {
		return ExitUsage
	}

	return ExitGeneral
}
