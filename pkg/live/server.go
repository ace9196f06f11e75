package live

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loom-ui/loom/internal/config"
	"github.com/loom-ui/loom/pkg/middleware"
)

// Server exposes the live WebSocket endpoint, metrics, and static
// files for one application view.
type Server struct {
	cfg      *config.Config
	view     View
	manager  *Manager
	chain    middleware.Middleware
	upgrader websocket.Upgrader
	logger   *slog.Logger

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMiddleware sets the event middleware chain, outermost first.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(s *Server) { s.chain = middleware.Chain(mws...) }
}

// WithCheckOrigin overrides the WebSocket origin check. The default
// accepts same-host origins only.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) { s.upgrader.CheckOrigin = fn }
}

// NewServer creates a live server for the given view factory.
func NewServer(cfg *config.Config, view View, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Server{
		cfg:    cfg,
		view:   view,
		logger: slog.Default().With("component", "live_server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.manager = NewManager(cfg.SessionIdle(), s.logger)
	return s
}

// Manager returns the session registry.
func (s *Server) Manager() *Manager {
	return s.manager
}

// Handler builds the HTTP router: the WebSocket endpoint, Prometheus
// metrics, a health probe, and the configured static directory.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/live", s.handleLive)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if dir := s.cfg.StaticPath(); dir != "" {
		prefix := s.cfg.Static.Prefix
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
		r.Handle(prefix+"*", fs)
	}

	return r
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sess, err := newSession(conn, s.view, s.chain, s.cfg.Engine.Minify, s.logger)
	if err != nil {
		s.logger.Error("session render failed", "error", err)
		conn.Close()
		return
	}
	s.manager.Add(sess)

	// Blocks until the connection drops.
	sess.Run()
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("live server listening", "addr", s.cfg.Address())
		errc <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.manager.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}
