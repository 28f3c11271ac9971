package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/alnah/go-slidecap/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxAddrLength     = 256
	MaxURLLength      = 2048 // Browser limit
	MaxSelectorLength = 256
	MaxPathLength     = 512
	MaxBinLength      = 4096 // PATH_MAX
	MaxNameLength     = 64   // Category name, used as a route segment
	MaxIDFieldLength  = 64
	MaxDurationLength = 20 // "1m30s", "2500ms"
)

// Value bounds.
const (
	MaxDevicePixelRatio = 4.0
	MaxWorkers          = 64
	MaxCategories       = 32
	MinBodyBytes        = 1 << 10
	MaxBodyBytesLimit   = 1 << 20
)

// Defaults.
const (
	DefaultAddr              = ":8080"
	DefaultMaxBodyBytes      = 64 << 10
	DefaultMaxSlides         = 20
	DefaultCaptureTimeout    = "90s"
	DefaultShutdownTimeout   = "15s"
	DefaultBaseURL           = "http://localhost:3000"
	DefaultContainerSelector = "[data-slides-container]"
	DefaultNavigationTimeout = "30s"
	DefaultSettleDelay       = "2s"
	DefaultJPEGQuality       = 98
	DefaultLogLevel          = "info"
)

// categoryNamePattern keeps names safe as a single route segment.
var categoryNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Config holds all configuration for the capture service.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Target     TargetConfig     `yaml:"target"`
	Browser    BrowserConfig    `yaml:"browser"`
	Output     OutputConfig     `yaml:"output"`
	Log        LogConfig        `yaml:"log"`
	Categories []CategoryConfig `yaml:"categories"` // Empty = built-in categories
	Workers    int              `yaml:"workers"`    // 0 = auto from GOMAXPROCS
}

// ServerConfig defines HTTP server options.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	MaxBodyBytes    int64  `yaml:"maxBodyBytes"`
	MaxSlides       int    `yaml:"maxSlides"` // 0 = no limit
	CaptureTimeout  string `yaml:"captureTimeout"`  // Go duration, e.g. "90s"
	ShutdownTimeout string `yaml:"shutdownTimeout"` // Go duration
}

// TargetConfig locates the app that renders slide pages.
type TargetConfig struct {
	BaseURL           string `yaml:"baseURL"`
	ContainerSelector string `yaml:"containerSelector"`
}

// BrowserConfig defines Chrome launch and render options.
type BrowserConfig struct {
	Environment       string  `yaml:"environment"` // "local", "serverless" (empty = detect)
	Bin               string  `yaml:"bin"`         // Empty = rod lookup
	NoSandbox         bool    `yaml:"noSandbox"`
	DevicePixelRatio  float64 `yaml:"devicePixelRatio"` // 0 = environment policy
	NavigationTimeout string  `yaml:"navigationTimeout"`
	SettleDelay       string  `yaml:"settleDelay"`
	Stealth           bool    `yaml:"stealth"`
	ForceReflow       bool    `yaml:"forceReflow"`
}

// OutputConfig defines slide encoding options.
type OutputConfig struct {
	JPEGQuality int `yaml:"jpegQuality"` // 1-100
}

// LogConfig defines logging options.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json (empty = by environment)
}

// CategoryConfig declares one content category.
type CategoryConfig struct {
	Name    string   `yaml:"name"`
	IDField string   `yaml:"idField"`
	Path    string   `yaml:"path"`  // Placeholders: {id} {kind} {category}
	Kinds   []string `yaml:"kinds"` // First entry is the default
}

// Validate checks lengths, ranges and enumerations.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually or apply overrides after loading.
func (c *Config) Validate() error {
	// Validate server fields
	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes != 0 && (c.Server.MaxBodyBytes < MinBodyBytes || c.Server.MaxBodyBytes > MaxBodyBytesLimit) {
		return fmt.Errorf("%w: server.maxBodyBytes must be between %d and %d, got %d",
			ErrInvalidValue, MinBodyBytes, MaxBodyBytesLimit, c.Server.MaxBodyBytes)
	}
	if err := validateDuration("server.captureTimeout", c.Server.CaptureTimeout, false); err != nil {
		return err
	}
	if err := validateDuration("server.shutdownTimeout", c.Server.ShutdownTimeout, false); err != nil {
		return err
	}

	// Validate target fields
	if err := validateFieldLength("target.baseURL", c.Target.BaseURL, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("target.containerSelector", c.Target.ContainerSelector, MaxSelectorLength); err != nil {
		return err
	}

	// Validate browser fields
	switch strings.ToLower(c.Browser.Environment) {
	case "", "local", "serverless":
		// valid
	default:
		return fmt.Errorf("%w: browser.environment %q (must be local or serverless)", ErrInvalidValue, c.Browser.Environment)
	}
	if err := validateFieldLength("browser.bin", c.Browser.Bin, MaxBinLength); err != nil {
		return err
	}
	if c.Browser.DevicePixelRatio < 0 || c.Browser.DevicePixelRatio > MaxDevicePixelRatio {
		return fmt.Errorf("%w: browser.devicePixelRatio must be between 0 and %.0f, got %.2f",
			ErrInvalidValue, MaxDevicePixelRatio, c.Browser.DevicePixelRatio)
	}
	if err := validateDuration("browser.navigationTimeout", c.Browser.NavigationTimeout, false); err != nil {
		return err
	}
	if err := validateDuration("browser.settleDelay", c.Browser.SettleDelay, true); err != nil {
		return err
	}

	// Validate output fields
	if c.Output.JPEGQuality != 0 && (c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100) {
		return fmt.Errorf("%w: output.jpegQuality must be between 1 and 100, got %d", ErrInvalidValue, c.Output.JPEGQuality)
	}

	// Validate log fields
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("%w: log.level %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
		// valid
	default:
		return fmt.Errorf("%w: log.format %q (must be text or json)", ErrInvalidValue, c.Log.Format)
	}

	if c.Server.MaxSlides < 0 {
		return fmt.Errorf("%w: server.maxSlides must be 0 (no limit) or positive, got %d", ErrInvalidValue, c.Server.MaxSlides)
	}

	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Workers)
	}

	return c.validateCategories()
}

// validateCategories checks each category and rejects duplicates.
func (c *Config) validateCategories() error {
	if len(c.Categories) > MaxCategories {
		return fmt.Errorf("%w: at most %d categories, got %d", ErrInvalidValue, MaxCategories, len(c.Categories))
	}
	seen := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		field := fmt.Sprintf("categories[%d]", i)
		if err := validateFieldLength(field+".name", cat.Name, MaxNameLength); err != nil {
			return err
		}
		if !categoryNamePattern.MatchString(cat.Name) {
			return fmt.Errorf("%w: %s.name %q (lowercase letters, digits and dashes)", ErrInvalidValue, field, cat.Name)
		}
		if seen[cat.Name] {
			return fmt.Errorf("%w: %s.name %q is duplicated", ErrInvalidValue, field, cat.Name)
		}
		seen[cat.Name] = true

		if cat.IDField == "" {
			return fmt.Errorf("%w: %s.idField is required", ErrInvalidValue, field)
		}
		if err := validateFieldLength(field+".idField", cat.IDField, MaxIDFieldLength); err != nil {
			return err
		}
		if !strings.HasPrefix(cat.Path, "/") {
			return fmt.Errorf("%w: %s.path %q must start with /", ErrInvalidValue, field, cat.Path)
		}
		if err := validateFieldLength(field+".path", cat.Path, MaxPathLength); err != nil {
			return err
		}
		if len(cat.Kinds) == 0 {
			return fmt.Errorf("%w: %s.kinds needs at least one of carousel, video", ErrInvalidValue, field)
		}
		for j, k := range cat.Kinds {
			switch strings.ToLower(k) {
			case "carousel", "video":
				// valid
			default:
				return fmt.Errorf("%w: %s.kinds[%d] %q (must be carousel or video)", ErrInvalidValue, field, j, k)
			}
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateDuration checks a Go duration string. Empty means default.
func validateDuration(fieldName, value string, allowZero bool) error {
	if value == "" {
		return nil
	}
	if err := validateFieldLength(fieldName, value, MaxDurationLength); err != nil {
		return err
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: %s %q is not a duration", ErrInvalidValue, fieldName, value)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidValue, fieldName, value)
	}
	return nil
}

// Duration parses a validated duration string, returning fallback when empty
// or malformed.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// DefaultConfig returns the configuration used when no file is given.
// Categories stay empty so callers use the built-in set.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			MaxSlides:       DefaultMaxSlides,
			CaptureTimeout:  DefaultCaptureTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Target: TargetConfig{
			BaseURL:           DefaultBaseURL,
			ContainerSelector: DefaultContainerSelector,
		},
		Browser: BrowserConfig{
			NavigationTimeout: DefaultNavigationTimeout,
			SettleDelay:       DefaultSettleDelay,
			ForceReflow:       true,
		},
		Output: OutputConfig{JPEGQuality: DefaultJPEGQuality},
		Log:    LogConfig{Level: DefaultLogLevel},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields missing from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is operator-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths returns the locations LoadConfig tries for a config name, in
// order: current directory, then the user config directory, each with .yaml
// then .yml. A file path has no search locations.
func SearchPaths(name string) []string {
	if name == "" || fileutil.IsFilePath(name) {
		return nil
	}
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, "slidecap", name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing SearchPaths entry for name.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
