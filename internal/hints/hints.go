// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
// Plain strips that formatting for JSON error details.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-slidecap/internal/fileutil"
)

// hintPrefix starts every formatted hint.
const hintPrefix = "\n  hint: "

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// InCI reports whether common CI environment variables are set.
func InCI() bool {
	return os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
}

// ForBrowserLaunch returns hints for browser launch and connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserLaunch() string {
	var hints []string

	// Suggest ROD_NO_SANDBOX for container/CI environments
	if (InCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	// Suggest ROD_BROWSER_BIN if not set
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use a specific Chrome")
	}

	hints = append(hints, "run `slidecap doctor` to check the browser")
	return formatHints(hints)
}

// ForTimeout returns a hint about raising the navigation timeout.
func ForTimeout() string {
	return format("slow target pages need a longer --timeout (SLIDECAP_TIMEOUT)")
}

// ForContainerNotFound explains what the target page must render.
func ForContainerNotFound(selector string) string {
	if selector == "" {
		return format("the target page must render the slides container when ?screenshot=true is set")
	}
	return format("the target page must render an element matching " + selector + " when ?screenshot=true is set")
}

// ForTargetUnreachable suggests checking the base URL of the slide app.
func ForTargetUnreachable(baseURL string) string {
	return format("is the slide app running at " + baseURL + "? set SLIDECAP_BASE_URL or --base-url")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/slidecap/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	// Find a user config path (contains .config/slidecap) to suggest
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/slidecap") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// Plain returns hint text without the CLI formatting.
// Multiple hints stay joined by "; ".
func Plain(hint string) string {
	return strings.TrimPrefix(hint, hintPrefix)
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return hintPrefix + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
