package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"artikujt/internal/loader"
	applog "artikujt/internal/log"
	"artikujt/internal/middleware/ratelimit"
	"artikujt/internal/middleware/security"
	"artikujt/internal/middleware/trace"
	"artikujt/internal/services"
	appweb "artikujt/web"
)

// Options configure the HTTP server.
type Options struct {
	Addr             string
	RefreshPerMinute int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	// TrustedProxies extend the proxies whose X-Forwarded-For is honored.
	TrustedProxies []string
	// Loader is optional and only feeds /metrics.
	Loader *loader.Loader
}

// DefaultOptions returns the timeouts used by cmd/artikujt.
func DefaultOptions(addr string) Options {
	return Options{
		Addr:             addr,
		RefreshPerMinute: 6,
		ReadTimeout:      10 * time.Second,
		WriteTimeout:     30 * time.Second,
		IdleTimeout:      60 * time.Second,
	}
}

// Server serves the article dashboard.
type Server struct {
	http.Server

	service   *services.DashboardService
	loader    *loader.Loader
	templates *template.Template
	logger    *applog.Logger
	events    *applog.StructuredLogger

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options, svc *services.DashboardService, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s := &Server{
		Server: http.Server{
			Addr:         opts.Addr,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  opts.IdleTimeout,
		},
		service:  svc,
		loader:   opts.Loader,
		logger:   logger,
		events:   applog.NewStructuredLogger(logger),
		detector: detector,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RefreshPerMinute,
			Burst:             max(1, opts.RefreshPerMinute/2),
		}),
		tracer:  trace.NewMiddleware(detector.ExtractClientIP, logger),
		started: time.Now(),
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /about", s.handleAbout)
	mux.HandleFunc("GET /ui/groups", s.handleGroups)
	mux.Handle("POST /refresh", s.limiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)(http.HandlerFunc(s.handleRefresh)))
	mux.HandleFunc("GET /api/articles", s.handleAPIArticles)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.Handler = s.chain(mux)
	return s
}

// chain wraps h with the middleware stack, outermost first.
func (s *Server) chain(h http.Handler) http.Handler {
	h = s.rejectSuspicious(h)
	h = applog.RequestIDMiddleware(trace.RequestID)(h)
	h = applog.Middleware(s.logger)(h)
	h = s.tracer.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return h
}

// rejectSuspicious answers requests that look like scans with 400.
func (s *Server) rejectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(),
				"Suspicious request rejected",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.UserAgent())
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
