package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/forkview/pkg/config"
	"github.com/matzehuels/forkview/pkg/controller"
	"github.com/matzehuels/forkview/pkg/observability"
	"github.com/matzehuels/forkview/pkg/pipeline"
)

// maxBodyBytes bounds request bodies; the only body is a select request.
const maxBodyBytes = 1 << 16

// Server serves one controller. It is safe for concurrent requests.
type Server struct {
	ctrl    *controller.Controller
	runner  *pipeline.Runner
	render  pipeline.Options
	metrics http.Handler
	logger  *log.Logger
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithRunner sets the pipeline runner used for layouts and diagrams.
func WithRunner(r *pipeline.Runner) Option { return func(s *Server) { s.runner = r } }

// WithRenderOptions sets the base pipeline options. Formats, selection and
// interactivity are filled per request.
func WithRenderOptions(o pipeline.Options) Option { return func(s *Server) { s.render = o } }

// WithMetricsHandler sets the /metrics handler (default: promhttp.Handler()).
func WithMetricsHandler(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// New creates a server for ctrl.
func New(ctrl *controller.Controller, opts ...Option) *Server {
	s := &Server{ctrl: ctrl}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.metrics == nil {
		s.metrics = promhttp.Handler()
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics)
	r.Get("/diagram.svg", s.handleSVG)
	r.Get("/diagram.dot", s.handleDOT)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/layout", s.handleLayout)
		r.Post("/select", s.handleSelect)
		r.Post("/append", s.handleAppend)
		r.Post("/fork", s.handleFork)
		r.Post("/reset", s.handleReset)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe listens on cfg.Addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.Server) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, cfg)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully
// within cfg.ShutdownTimeout. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener, cfg config.Server) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// instrument reports every request to the HTTP hooks, labelled by route
// pattern rather than raw path.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		observability.HTTP().OnRequest(r.Context(), r.Method, route, status, dur)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "duration", dur)
	})
}
