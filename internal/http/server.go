package http

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"budgetdash/internal/cache"
	"budgetdash/internal/config"
	"budgetdash/internal/dashboard"
	"budgetdash/internal/log"
	"budgetdash/internal/middleware/ratelimit"
	"budgetdash/internal/middleware/security"
	"budgetdash/internal/middleware/trace"
	appweb "budgetdash/web"
)

// Backend is the budget API as seen by the server: everything the
// controllers need plus a cheap reachability probe for /readyz.
type Backend interface {
	dashboard.API
	Ping(ctx context.Context) error
}

type appMetrics struct {
	actions     atomic.Int64
	actionFails atomic.Int64
	rejected    atomic.Int64
	pageLoads   atomic.Int64
	uptime      time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	api       Backend
	cfg       *config.Config
	logger    *log.Logger
	publisher dashboard.EventPublisher
	clock     func() time.Time

	sessions         *sessionStore
	caches           *cache.Manager
	ownsCaches       bool
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       appMetrics

	shutdownOnce sync.Once
}

// Option customises a Server.
type Option func(*Server)

// WithPublisher sends a dashboard event after every successful write.
func WithPublisher(p dashboard.EventPublisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithCacheManager registers the session cache with m instead of a private manager.
func WithCacheManager(m *cache.Manager) Option {
	return func(s *Server) { s.caches = m }
}

// WithClock overrides the clock used for the current month and today's date.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.clock = now }
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, api Backend, cfg *config.Config, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:           addr,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		api:              api,
		cfg:              cfg,
		logger:           logger.WithComponent(log.ComponentHTTP),
		clock:            time.Now,
		securityDetector: security.NewDetector(logger),
	}
	s.appMetrics.uptime = time.Now()
	for _, opt := range opts {
		opt(s)
	}

	if s.caches == nil {
		s.caches = cache.NewManager(logger)
		s.caches.StartCleanup(5 * time.Minute)
		s.ownsCaches = true
	}
	s.sessions = newSessionStore(cfg.MaxSessions, cfg.SessionTTL, s.newController, s.logger)
	s.caches.Register("sessions", s.sessions.cache)

	limits := ratelimit.DefaultConfig()
	limits.RequestsPerMinute = cfg.RateLimitPerMinute
	s.rateLimiter = ratelimit.NewLimiter(limits)
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ClientIP)

	t, err := appweb.Templates(templateFuncs)
	if err != nil {
		s.logger.Warn("Failed parsing templates",
			log.FieldError, err,
			log.FieldComponent, log.ComponentTemplate)
	} else {
		s.templates = t
	}

	if sub, err := appweb.Static(); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssets(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// UI partials
	mux.HandleFunc("GET /ui/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /ui/charts", s.handleCharts)
	mux.HandleFunc("GET /ui/categories", s.handleCategories)

	// Actions
	mux.HandleFunc("POST /actions/income", s.handleSetIncome)
	mux.HandleFunc("POST /actions/transaction", s.handleAddTransaction)
	mux.HandleFunc("DELETE /actions/transaction/{id}", s.handleDeleteTransaction)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ClientIP, s.rateLimited)(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.traceMiddleware.Handler(handler)
	s.Handler = handler

	return s
}

// newController builds the controller of a new session.
func (s *Server) newController() *dashboard.Controller {
	opts := dashboard.OptionsFromConfig(s.cfg)
	opts.Publisher = s.publisher
	opts.Logger = s.logger
	opts.Clock = s.clock
	return dashboard.New(s.api, opts)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.securityDetector.ClientIP(r))
	TooManyRequestsError("Too many requests, please wait a minute").Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		if s.ownsCaches {
			s.caches.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
