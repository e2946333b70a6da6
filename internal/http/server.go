package http

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"financecalc/internal/cache"
	"financecalc/internal/config"
	"financecalc/internal/finance"
	"financecalc/internal/log"
	"financecalc/internal/middleware/ratelimit"
	"financecalc/internal/middleware/security"
	"financecalc/internal/middleware/trace"
	appweb "financecalc/web"
)

// PolicyStatus is the view of the tax policy provider the server needs.
type PolicyStatus interface {
	Current() finance.TaxPolicy
	Status() (loadedAt time.Time, lastErr error)
}

// Deps are the collaborators a Server is built from.
type Deps struct {
	Engine   *finance.Engine
	Policies PolicyStatus
	Memo     *cache.Memo
	Stats    func() cache.Stats
	Logger   *log.Logger
}

type appMetrics struct {
	calculations      int64
	calculationErrors int64
	cacheHits         int64
	cacheMisses       int64
	exports           int64
	uptime            time.Time
}

type Server struct {
	http.Server
	engine   *finance.Engine
	policies PolicyStatus
	memo     *cache.Memo
	stats    func() cache.Stats
	logger   *log.Logger
	sl       *log.StructuredLogger
	maxBody  int64

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       appMetrics

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector, err := security.NewDetector(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	engine := deps.Engine
	if engine == nil {
		engine = finance.NewEngine(deps.Policies)
	}
	memo := deps.Memo
	if memo == nil {
		memo = cache.NewMemo(nil, logger)
	}

	s := &Server{
		Server: http.Server{
			Addr:              ":" + cfg.Port,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		engine:           engine,
		policies:         deps.Policies,
		memo:             memo,
		stats:            deps.Stats,
		logger:           logger,
		sl:               log.NewStructuredLogger(logger),
		maxBody:          cfg.MaxBodyBytes,
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       appMetrics{uptime: time.Now()},
	}
	if cfg.RateLimitPerMinute > 0 {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
	}

	static, err := staticFS(cfg.StaticDir)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(handleNotFound)
	handleAPI(api, "/health", s.handleHealth, http.MethodGet, http.MethodHead)
	handleAPI(api, "/gst", s.handleGST, http.MethodPost)
	handleAPI(api, "/calculate/{calculator}", s.handleCalculate, http.MethodPost)
	handleAPI(api, "/export/{calculator}", s.handleExport, http.MethodPost)
	handleAPI(api, "/tax-policy", s.handleTaxPolicy, http.MethodGet)

	r.HandleFunc("/healthz", s.handleLiveness).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", s.handleReadiness).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(spaHandler(static)).Methods(http.MethodGet, http.MethodHead)

	// Middleware wraps the router rather than using r.Use so that 404 and
	// 405 responses pass through it too.
	var handler http.Handler = r
	if s.rateLimiter != nil {
		handler = s.rateLimitPOST(handler)
	}
	handler = security.CORS(cfg.CORSAllowedOrigins)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = s.recoverer(handler)
	s.Handler = handler

	return s, nil
}

// handleAPI registers h for methods and answers 405 for any other method on
// path. Method mismatches do not survive subrouter matching once a later
// route's prefix matches, so the 405 is an explicit route.
func handleAPI(api *mux.Router, path string, h http.HandlerFunc, methods ...string) {
	api.HandleFunc(path, h).Methods(methods...)
	api.HandleFunc(path, handleMethodNotAllowed)
}

// staticFS serves dir when set, the embedded bundle otherwise.
func staticFS(dir string) (fs.FS, error) {
	if dir == "" {
		return appweb.Dist()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: dir, Err: fs.ErrInvalid}
	}
	return os.DirFS(dir), nil
}

// rateLimitPOST limits calculation traffic; reads are not limited.
func (s *Server) rateLimitPOST(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverer turns a handler panic into a 500 envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panic",
					log.FieldPath, r.URL.Path,
					log.FieldErrorType, log.ErrorTypeInternal,
					"panic", rec)
				InternalServerError().Write(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) recordCalculation(hit bool, err error) {
	atomic.AddInt64(&s.appMetrics.calculations, 1)
	switch {
	case err != nil:
		atomic.AddInt64(&s.appMetrics.calculationErrors, 1)
	case hit:
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
	default:
		atomic.AddInt64(&s.appMetrics.cacheMisses, 1)
	}
}
