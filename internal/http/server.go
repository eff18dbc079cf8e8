package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	applog "stepqueen/internal/log"
	"stepqueen/internal/services"
	appweb "stepqueen/web"
)

// DefaultStoreTimeout bounds a single read-compute-write cycle against the
// record store.
const DefaultStoreTimeout = 15 * time.Second

// requestIDHeader carries the request ID on both request and response.
const requestIDHeader = "X-Request-ID"

// Options tune a Server. Zero values fall back to defaults.
type Options struct {
	StoreTimeout      time.Duration
	RequestsPerMinute int
	Logger            *applog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type Server struct {
	http.Server
	templates    *template.Template
	ledger       *services.LedgerService
	logger       *applog.Logger
	structured   *applog.StructuredLogger
	rateLimiter  *rateLimiter
	secMetrics   *securityMetrics
	appMetrics   *appMetrics
	storeTimeout time.Duration
	now          func() time.Time
}

// appMetrics counts ledger activity for /metrics.
type appMetrics struct {
	uptime        time.Time
	stepsSaved    int64
	stepsDeleted  int64
	storeFailures int64
}

// NewServer wires the dashboard routes around a ledger service.
func NewServer(addr string, ledger *services.LedgerService, opts Options) *Server {
	mux := http.NewServeMux()

	logger := opts.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           applog.Middleware(logger)(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:       ledger,
		logger:       logger,
		structured:   applog.NewStructuredLogger(logger),
		rateLimiter:  newRateLimiter(opts.RequestsPerMinute),
		secMetrics:   &securityMetrics{},
		appMetrics:   &appMetrics{uptime: time.Now()},
		storeTimeout: opts.StoreTimeout,
		now:          opts.Now,
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.WithComponent(applog.ComponentTemplate).Error("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/steps", s.withSecurityHeaders(s.handleSubmitSteps))
	mux.HandleFunc("/steps/delete", s.withSecurityHeaders(s.handleDeleteSteps))
	// UI partials
	mux.HandleFunc("/ui/dashboard", s.withSecurityHeaders(s.handleDashboard))

	return s
}

// Shutdown stops background goroutines and drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r, s.secMetrics)

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = generateRequestID()
			r.Header.Set(requestIDHeader, requestID)
		}
		w.Header().Set(requestIDHeader, requestID)

		if reason := detectSuspiciousRequest(r, s.secMetrics); reason != "" {
			s.logger.WithComponent(applog.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				applog.FieldRequestID, requestID,
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path,
				"reason", reason)
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.secMetrics) {
			s.logger.WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		withRequestID := applog.RequestIDMiddleware(func(r *http.Request) string {
			return r.Header.Get(requestIDHeader)
		})
		withRequestID(next).ServeHTTP(rw, r)

		s.structured.LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds(), clientIP, requestID)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
