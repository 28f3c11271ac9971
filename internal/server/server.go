// Package server exposes the capture pipeline over HTTP.
//
// Routes:
//
//	GET  /health
//	POST /api/{category}/screenshot-full
//
// The capture endpoint accepts {<idField>, totalSlides, slideType?} where
// idField depends on the category (riddleId, tutorialId, siteId, ...).
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	slidecap "github.com/alnah/go-slidecap"
)

// Defaults for Config fields left zero.
const (
	DefaultMaxBodyBytes   = 64 << 10
	DefaultCaptureTimeout = 90 * time.Second
)

// CaptureHeader carries the per-request capture id.
const CaptureHeader = "X-Capture-Id"

// CaptureService runs one capture. Implemented by *slidecap.CapturerPool and
// *slidecap.Capturer.
type CaptureService interface {
	Capture(ctx context.Context, req slidecap.CaptureRequest) (*slidecap.Result, error)
}

// Compile-time interface checks.
var (
	_ CaptureService = (*slidecap.CapturerPool)(nil)
	_ CaptureService = (*slidecap.Capturer)(nil)
)

// Config holds server dependencies and limits.
type Config struct {
	Service    CaptureService
	Categories []slidecap.Category
	Logger     *slog.Logger

	// MaxSlides caps totalSlides before the capture runs. Zero means no cap.
	MaxSlides int

	// MaxBodyBytes limits the request body. Default: 64 KiB.
	MaxBodyBytes int64

	// CaptureTimeout bounds one capture, independent of the client
	// connection. Default: 90s.
	CaptureTimeout time.Duration

	// BaseURL and ContainerSelector only feed error hints.
	BaseURL           string
	ContainerSelector string

	// NewID generates capture ids. Default: uuid.NewString.
	NewID func() string
}

// Server routes HTTP requests to the capture service.
type Server struct {
	cfg        Config
	log        *slog.Logger
	categories map[string]slidecap.Category
	router     chi.Router
}

// New builds a Server with its routes and middleware.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.CaptureTimeout <= 0 {
		cfg.CaptureTimeout = DefaultCaptureTimeout
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	s := &Server{
		cfg:        cfg,
		log:        cfg.Logger,
		categories: make(map[string]slidecap.Category, len(cfg.Categories)),
	}
	for _, c := range cfg.Categories {
		s.categories[c.Name] = c
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})

	r.Get("/health", s.handleHealth)
	r.Post("/api/{category}/screenshot-full", s.handleScreenshot)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger logs one line per request once the response is written.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("http: request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"elapsed", time.Since(start).Round(time.Millisecond),
					"requestId", middleware.GetReqID(r.Context()),
					"remote", r.RemoteAddr)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
