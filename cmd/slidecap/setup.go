package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lmittmann/tint"
	"go.uber.org/automaxprocs/maxprocs"

	slidecap "github.com/alnah/go-slidecap"
	"github.com/alnah/go-slidecap/internal/config"
	"github.com/alnah/go-slidecap/internal/hints"
)

// resolveConfig loads the config file (if any) and applies env overrides.
// The flag name wins over SLIDECAP_CONFIG. Command flags are merged by the
// caller, which then validates.
func resolveConfig(configFlag string, ev *envConfig) (*config.Config, error) {
	name := configFlag
	if name == "" {
		name = ev.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(ev, cfg)
	return cfg, nil
}

// resolveEnvironment returns the configured environment, or detects it from
// platform markers when unset. Called once per process.
func resolveEnvironment(cfg *config.Config, getenv func(string) string) (slidecap.Environment, error) {
	if cfg.Browser.Environment == "" {
		return slidecap.DetectEnvironment(getenv), nil
	}
	return slidecap.ParseEnvironment(cfg.Browser.Environment)
}

// newLogger builds the process logger. An empty format means json in
// serverless environments (log collectors) and tint text elsewhere.
func newLogger(w io.Writer, level, format string, env slidecap.Environment) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	if format == "" {
		format = "text"
		if env == slidecap.EnvServerless {
			format = "json"
		}
	}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
	case "text":
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: "15:04:05",
		})), nil
	default:
		return nil, fmt.Errorf("%w: log format %q (must be text or json)", ErrUsage, format)
	}
}

// parseLevel maps a level name to slog.Level. Empty means info.
func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: log level %q (must be debug, info, warn, or error)", ErrUsage, s)
}

// setMaxProcs aligns GOMAXPROCS with the container CPU quota before the
// pool size is derived from it.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply and the program continues safely.
func setMaxProcs(log *slog.Logger) {
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug("runtime: " + fmt.Sprintf(format, args...))
	}))
}

// categoriesFromConfig converts configured categories. Nil when the config
// declares none, so the capturer keeps its built-in set.
func categoriesFromConfig(ccs []config.CategoryConfig) ([]slidecap.Category, error) {
	if len(ccs) == 0 {
		return nil, nil
	}
	cats := make([]slidecap.Category, 0, len(ccs))
	for _, cc := range ccs {
		kinds := make([]slidecap.SlideKind, 0, len(cc.Kinds))
		for _, k := range cc.Kinds {
			kind, err := slidecap.ParseSlideKind(k)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cc.Name, err)
			}
			kinds = append(kinds, kind)
		}
		cats = append(cats, slidecap.Category{
			Name:         cc.Name,
			IDField:      cc.IDField,
			PathTemplate: cc.Path,
			Kinds:        kinds,
		})
	}
	return cats, nil
}

// capturerOptions translates config into capturer options. The launcher
// strategy is picked here, once, from the resolved environment.
func capturerOptions(cfg *config.Config, env slidecap.Environment, log *slog.Logger) ([]slidecap.Option, error) {
	cats, err := categoriesFromConfig(cfg.Categories)
	if err != nil {
		return nil, err
	}

	launcher := slidecap.NewLauncher(env, slidecap.LauncherOptions{
		Bin:       cfg.Browser.Bin,
		NoSandbox: cfg.Browser.NoSandbox,
		Logger:    log,
	})

	opts := []slidecap.Option{
		slidecap.WithLauncher(launcher),
		slidecap.WithLogger(log),
		slidecap.WithBaseURL(cfg.Target.BaseURL),
		slidecap.WithContainerSelector(cfg.Target.ContainerSelector),
		slidecap.WithNavigationTimeout(config.Duration(cfg.Browser.NavigationTimeout, slidecap.DefaultNavigationTimeout)),
		slidecap.WithSettleDelay(config.Duration(cfg.Browser.SettleDelay, slidecap.DefaultSettleDelay)),
		slidecap.WithForceReflow(cfg.Browser.ForceReflow),
		slidecap.WithStealth(cfg.Browser.Stealth),
		slidecap.WithDevicePixelRatio(cfg.Browser.DevicePixelRatio),
		slidecap.WithMaxSlides(cfg.Server.MaxSlides),
	}
	if cfg.Output.JPEGQuality > 0 {
		opts = append(opts, slidecap.WithJPEGQuality(cfg.Output.JPEGQuality))
	}
	if cats != nil {
		opts = append(opts, slidecap.WithCategories(cats...))
	}
	return opts, nil
}

// runtimeSetup is the state shared by serve and capture.
type runtimeSetup struct {
	cfg      *config.Config
	env      slidecap.Environment
	log      *slog.Logger
	capturer *slidecap.Capturer
}

// setup validates cfg, builds the logger and the capturer.
func setup(cfg *config.Config, env *Environment) (*runtimeSetup, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	envName, err := resolveEnvironment(cfg, env.Getenv)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(env.Stderr, cfg.Log.Level, cfg.Log.Format, envName)
	if err != nil {
		return nil, err
	}

	opts, err := capturerOptions(cfg, envName, log)
	if err != nil {
		return nil, err
	}
	capt, err := slidecap.NewCapturer(opts...)
	if err != nil {
		return nil, err
	}

	return &runtimeSetup{cfg: cfg, env: envName, log: log, capturer: capt}, nil
}
