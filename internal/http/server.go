package http

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"cashflow/internal/backend"
	"cashflow/internal/cache"
	applog "cashflow/internal/log"
	"cashflow/internal/metrics"
	"cashflow/internal/middleware/ratelimit"
	"cashflow/internal/middleware/security"
	"cashflow/internal/middleware/trace"
	"cashflow/internal/services"
	appweb "cashflow/web"

	"github.com/shopspring/decimal"
)

// Server serves the cash-flow sheet and its JSON views.
type Server struct {
	http.Server

	service   *services.LedgerService
	templates *template.Template
	views     *cache.Views
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	ready     backend.ReadyFunc

	now     func() time.Time
	started time.Time

	shutdownOnce sync.Once
}

// Options carries the server's collaborators. Service is required.
type Options struct {
	Service *services.LedgerService

	// Views caches computed aggregates; nil disables caching.
	Views *cache.Views

	Metrics        metrics.Collector
	MetricsHandler http.Handler

	// Ready reports whether the persistence backend is usable.
	Ready backend.ReadyFunc

	Logger    *applog.Logger
	RateLimit ratelimit.Config
}

var templateFuncs = template.FuncMap{
	// amount renders an empty cell for zero, as the sheet shows absent entries.
	"amount": func(d decimal.Decimal) string {
		if d.IsZero() {
			return ""
		}
		return d.StringFixed(2)
	},
	"fixed": func(d decimal.Decimal) string {
		return d.StringFixed(2)
	},
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	views := opts.Views
	if views == nil {
		views = cache.NewViews(1)
	}

	s := &Server{
		service:  opts.Service,
		views:    views,
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		detector: security.NewDetector(),
		ready:    opts.Ready,
		now:      time.Now,
		started:  time.Now(),
	}
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ClientIP, routeLabel, opts.Metrics)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", applog.FieldComponent, applog.ComponentHTTP, "error", err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/daily", s.handleDaily)
	mux.HandleFunc("GET /api/monthly", s.handleMonthly)
	mux.HandleFunc("GET /api/transactions", s.handleTransactions)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("/cells", s.handleSetCell)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ClientIP, http.MethodPost)(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// routeLabel is the metrics label of a request: the matched mux pattern,
// so that unknown paths collapse into a single series.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

// Shutdown gracefully shuts down the server and its background routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
