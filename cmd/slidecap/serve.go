package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	slidecap "github.com/alnah/go-slidecap"
	"github.com/alnah/go-slidecap/internal/config"
	"github.com/alnah/go-slidecap/internal/server"
)

// ErrListen is returned when the HTTP listener cannot be opened or fails.
var ErrListen = errors.New("failed to listen")

// readHeaderTimeout bounds slow clients; captures themselves are bounded by
// the capture timeout.
const readHeaderTimeout = 10 * time.Second

// runServe starts the HTTP server and blocks until ctx is canceled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	ev := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	cfg, err := resolveConfig(flags.common.config, ev)
	if err != nil {
		return err
	}
	mergeServeFlags(flags, cfg)

	if flags.printConfig {
		if err := cfg.Validate(); err != nil {
			return err
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = env.Stdout.Write(data)
		return err
	}

	rt, err := setup(cfg, env)
	if err != nil {
		return err
	}
	setMaxProcs(rt.log)

	poolSize := slidecap.ResolvePoolSize(cfg.Workers)
	pool := slidecap.NewCapturerPool(rt.capturer, poolSize)
	defer func() { _ = pool.Close() }()

	handler := server.New(server.Config{
		Service:           pool,
		Categories:        rt.capturer.Categories(),
		Logger:            rt.log,
		MaxSlides:         rt.capturer.MaxSlides(),
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		CaptureTimeout:    config.Duration(cfg.Server.CaptureTimeout, server.DefaultCaptureTimeout),
		BaseURL:           cfg.Target.BaseURL,
		ContainerSelector: cfg.Target.ContainerSelector,
	})

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrListen, err)
	}

	rt.log.Info("serve: starting",
		"version", Version,
		"env", rt.env,
		"workers", poolSize,
		"dpr", rt.capturer.DevicePixelRatio(),
		"baseURL", cfg.Target.BaseURL)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(rt.log.Handler(), slog.LevelWarn),
	}
	shutdownTimeout := config.Duration(cfg.Server.ShutdownTimeout, 15*time.Second)
	return serveHTTP(ctx, srv, ln, shutdownTimeout, rt.log)
}

// serveHTTP serves on ln until ctx is canceled or the server fails, then
// shuts down gracefully, letting in-flight captures finish within timeout.
func serveHTTP(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, log *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("serve: listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%w: %v", ErrListen, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("serve: shutting down", "timeout", timeout)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info("serve: stopped")
		return nil
	})

	return g.Wait()
}
