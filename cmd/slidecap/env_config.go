package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alnah/go-slidecap/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides deploy-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string // SLIDECAP_CONFIG: config file name or path
	Addr       string // SLIDECAP_ADDR: listen address
	BaseURL    string // SLIDECAP_BASE_URL, else NEXT_PUBLIC_APP_URL
	Env        string // SLIDECAP_ENV: local, serverless

	// Tier 2 - Timing and capacity
	Timeout     string // SLIDECAP_TIMEOUT: capture timeout
	SettleDelay string // SLIDECAP_SETTLE_DELAY: delay after network idle
	Workers     int    // SLIDECAP_WORKERS: concurrent captures

	// Tier 3 - Logging
	LogLevel  string // SLIDECAP_LOG_LEVEL: debug, info, warn, error
	LogFormat string // SLIDECAP_LOG_FORMAT: text, json

	// Browser (rod conventions)
	BrowserBin string // ROD_BROWSER_BIN: Chrome binary
	NoSandbox  bool   // ROD_NO_SANDBOX: 1 or true
}

// knownEnvVars lists valid SLIDECAP_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"SLIDECAP_CONFIG":   true,
	"SLIDECAP_ADDR":     true,
	"SLIDECAP_BASE_URL": true,
	"SLIDECAP_ENV":      true,
	// Tier 2 - Timing and capacity
	"SLIDECAP_TIMEOUT":      true,
	"SLIDECAP_SETTLE_DELAY": true,
	"SLIDECAP_WORKERS":      true,
	// Tier 3 - Logging
	"SLIDECAP_LOG_LEVEL":  true,
	"SLIDECAP_LOG_FORMAT": true,
	// Doctor
	"SLIDECAP_CONTAINER": true,
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized values.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:  getenv("SLIDECAP_CONFIG"),
		Addr:        getenv("SLIDECAP_ADDR"),
		BaseURL:     getenv("SLIDECAP_BASE_URL"),
		Env:         getenv("SLIDECAP_ENV"),
		Timeout:     getenv("SLIDECAP_TIMEOUT"),
		SettleDelay: getenv("SLIDECAP_SETTLE_DELAY"),
		LogLevel:    getenv("SLIDECAP_LOG_LEVEL"),
		LogFormat:   getenv("SLIDECAP_LOG_FORMAT"),
		BrowserBin:  getenv("ROD_BROWSER_BIN"),
	}

	// The app's public URL is what the capturer needs when deployed next to it
	if cfg.BaseURL == "" {
		cfg.BaseURL = getenv("NEXT_PUBLIC_APP_URL")
	}

	// Parse int for workers
	if workers := getenv("SLIDECAP_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	switch strings.ToLower(getenv("ROD_NO_SANDBOX")) {
	case "1", "true", "yes":
		cfg.NoSandbox = true
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized SLIDECAP_* variables.
// Helps catch typos like SLIDECAP_BASEURL instead of SLIDECAP_BASE_URL.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, "SLIDECAP_") {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// A set variable overrides the config file; CLI flags are applied later
// via mergeFlags. This ensures: CLI flags > env vars > config file > defaults.
// Values are validated afterwards by config.Validate.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	// Tier 1
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.BaseURL != "" {
		cfg.Target.BaseURL = env.BaseURL
	}
	if env.Env != "" {
		cfg.Browser.Environment = env.Env
	}

	// Tier 2
	if env.Timeout != "" {
		cfg.Server.CaptureTimeout = env.Timeout
	}
	if env.SettleDelay != "" {
		cfg.Browser.SettleDelay = env.SettleDelay
	}
	if env.Workers > 0 {
		cfg.Workers = env.Workers
	}

	// Tier 3
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}

	// Browser
	if env.BrowserBin != "" {
		cfg.Browser.Bin = env.BrowserBin
	}
	if env.NoSandbox {
		cfg.Browser.NoSandbox = true
	}
}
