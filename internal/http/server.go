package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"datalens/internal/log"
	"datalens/internal/middleware/ratelimit"
	"datalens/internal/middleware/security"
	"datalens/internal/middleware/trace"
	"datalens/internal/session"
	"datalens/internal/view"
	appweb "datalens/web"
)

// Options configures the UI server.
type Options struct {
	Addr    string
	Backend view.Backend
	Logger  *log.Logger

	SessionTTL  time.Duration
	MaxSessions int
	RateLimit   ratelimit.Config

	// Ready reports backend readiness for /readyz. Defaults to listing
	// transactions through Backend.
	Ready func(ctx context.Context) error
}

// Server serves the TransactionView to browsers. Each browser session owns
// one view; handlers translate user events into view operations and answer
// with the re-rendered view.
type Server struct {
	http.Server
	templates *template.Template
	sessions  *session.Store
	backend   view.Backend
	ready     func(ctx context.Context) error
	logger    *log.Logger
	cookieTTL time.Duration

	tracer   *trace.Middleware
	detector *security.Detector
	limiter  *ratelimit.Limiter
	metrics  uiMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options) (*Server, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}

	s := &Server{
		templates: t,
		backend:   opts.Backend,
		ready:     opts.Ready,
		logger:    logger,
		cookieTTL: ttl,
		detector:  security.NewDetector(logger),
		limiter:   ratelimit.NewLimiter(opts.RateLimit),
		metrics:   uiMetrics{started: time.Now()},
	}
	if s.ready == nil {
		s.ready = func(ctx context.Context) error {
			_, err := opts.Backend.ListTransactions(ctx)
			return err
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.sessions = session.NewStore(s.newView, ttl, opts.MaxSessions, logger)
	s.sessions.StartCleanup(time.Minute)

	mux := http.NewServeMux()

	staticFS, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/view", s.handleView)
	mux.HandleFunc("POST /ui/transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /ui/refresh", s.handleRefresh)
	mux.HandleFunc("POST /ui/theme", s.handleToggleTheme)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// newView builds the view for a fresh session.
func (s *Server) newView(id string) *view.View {
	vlog := s.logger.With(log.FieldSessionID, id)
	return view.New(s.backend, vlog, view.Effects{
		Theme: func(dark bool) {
			vlog.WithComponent(log.ComponentView).Debug("Theme effect", log.FieldDarkMode, dark)
		},
	})
}

// Shutdown stops accepting requests, then tears down every session view so
// in-flight backend calls complete into closed views.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Server.Shutdown(ctx)
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.sessions.Close()
	})
	return err
}

// Sessions exposes the session store.
func (s *Server) Sessions() *session.Store {
	return s.sessions
}
