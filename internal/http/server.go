package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"tripplanner/internal/auth"
	"tripplanner/internal/core"
	applog "tripplanner/internal/log"
	"tripplanner/internal/middleware/ratelimit"
	"tripplanner/internal/middleware/security"
	"tripplanner/internal/middleware/trace"
	"tripplanner/internal/tripapi"
	"tripplanner/internal/trips"
	"tripplanner/internal/view"
	appweb "tripplanner/web"
)

// Config holds the settings NewServer needs beyond its collaborators.
type Config struct {
	Addr               string
	CookieName         string
	LoginURL           string
	RateLimitPerMinute int
}

// Server serves the trip pages and their HTMX partials.
type Server struct {
	http.Server
	templates *template.Template
	backend   trips.Backend
	notifier  view.ChangeNotifier
	logger    *applog.Logger

	cookieName string
	loginURL   string

	traceMiddleware  *trace.Middleware
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime         time.Time
	tripActions    int64
	actionFailures int64
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server. notifier may be nil.
func NewServer(cfg Config, backend trips.Backend, notifier view.ChangeNotifier, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		backend:          backend,
		notifier:         notifier,
		logger:           logger,
		cookieName:       cfg.CookieName,
		loginURL:         cfg.LoginURL,
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		}),
		appMetrics: &appMetrics{uptime: time.Now()},
	}
	if s.cookieName == "" {
		s.cookieName = auth.DefaultCookieName
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
		t = nil
	}
	s.templates = t

	mux := http.NewServeMux()
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /trips/new", s.handleNewTrip)
	mux.HandleFunc("POST /trips", s.handleCreateTrip)
	mux.HandleFunc("GET /trips/{id}", s.handleTripDetail)
	mux.HandleFunc("GET /trips/{id}/edit", s.handleEditTrip)
	mux.HandleFunc("POST /trips/{id}", s.handleUpdateTrip)
	mux.HandleFunc("POST /trips/{id}/delete", s.handleDeleteTrip)
	mux.HandleFunc("POST /trips/{id}/invite", s.handleInvite)

	mux.HandleFunc("POST /trips/{id}/activities", s.handleCreateActivity)
	mux.HandleFunc("POST /trips/{id}/activities/{aid}", s.handleUpdateActivity)
	mux.HandleFunc("POST /trips/{id}/activities/{aid}/delete", s.handleDeleteActivity)
	mux.HandleFunc("POST /trips/{id}/activities/{aid}/vote", s.handleVote)
	mux.HandleFunc("GET /ui/trips/{id}/activities", s.handleActivitiesPartial)

	mux.HandleFunc("GET /join", s.handleJoinPage)
	mux.HandleFunc("POST /join", s.handleJoin)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, s.rateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.withSuspiciousRequestLogging(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) withSuspiciousRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldComponent, applog.ComponentSecurity,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.UserAgent(),
				applog.FieldClientIP, s.securityDetector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").
		TriggerErrorNotification("Too many requests. Please try again later.").
		Write(w)
}

// token returns the caller's bearer token or answers 401.
func (s *Server) token(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := auth.TokenFromRequest(r, s.cookieName)
	if token == "" {
		s.unauthorized(w, r)
		return "", false
	}
	return token, true
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		UnauthorizedError(tripapi.MsgSessionExpired, s.loginURL).Write(w)
		return
	}
	s.render(w, r, NewHTMXResponse().Status(http.StatusUnauthorized), "error.html", errorPage{
		basePage: s.page("Sign in required"),
		Message:  tripapi.MsgSessionExpired,
		Login:    true,
	})
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, url string) {
	if isHTMX(r) {
		resp.Redirect(url).Write(w)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// render executes a template into a buffer so a failure never leaves a
// half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, name string, data any) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldComponent, applog.ComponentTemplate)
		InternalServerError("templates not loaded").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			"error", err,
			"template", name,
			applog.FieldComponent, applog.ComponentTemplate)
		InternalServerError("Failed to render page").Write(w)
		return
	}
	resp.BodyHTML(buf.String()).Write(w)
}

func (s *Server) page(title string) basePage {
	return basePage{Title: title, LoginURL: s.loginURL}
}

func (s *Server) recordAction(ctx context.Context, op string, tripID, activityID int64, err error) {
	logger := applog.FromContext(ctx)
	if err != nil {
		atomic.AddInt64(&s.appMetrics.actionFailures, 1)
		applog.NewStructuredLogger(logger).LogError(ctx, "Trip action failed", err, op,
			applog.NewFields().WithTrip(tripID, activityID))
		return
	}
	atomic.AddInt64(&s.appMetrics.tripActions, 1)
	applog.NewStructuredLogger(logger).LogTripAction(ctx, op, tripID, activityID)
}

// Page models. Every page embeds basePage for the shared header.
type (
	basePage struct {
		Title    string
		LoginURL string
	}

	errorPage struct {
		basePage
		Message string
		Login   bool
	}

	tripsPage struct {
		basePage
		Trips []core.Trip
		Error string
	}

	detailPage struct {
		basePage
		Detail *view.TripDetail
	}

	tripFormPage struct {
		basePage
		Form   view.TripForm
		Action string
		TripID int64
	}

	joinPage struct {
		basePage
		Form view.JoinForm
	}
)
