package httpapi

import (
	"context"
	"net/http"
	"time"

	"ai-diet-planner/internal/auth"
	"ai-diet-planner/internal/metrics"
	"ai-diet-planner/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// UsageReporter reads aggregated token usage; *metrics.Store satisfies it.
type UsageReporter interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Deps are the collaborators of the HTTP API. Generator and Sessions are
// required; the rest are optional.
type Deps struct {
	Generator      session.Generator
	Sessions       *session.Manager
	Recorder       session.UsageRecorder
	Usage          UsageReporter
	Tokens         *auth.Tokens
	Logger         *zap.Logger
	DataDir        string
	AllowedOrigins []string
	// RequestTimeout bounds a single request, model calls included.
	RequestTimeout time.Duration
}

// Server serves the meal planning HTTP API.
type Server struct {
	gen      session.Generator
	sessions *session.Manager
	recorder session.UsageRecorder
	usage    UsageReporter
	tokens   *auth.Tokens
	logger   *zap.Logger
	dataDir  string
	origins  []string
	timeout  time.Duration
}

// NewServer creates a Server from d.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Server{
		gen:      d.Generator,
		sessions: d.Sessions,
		recorder: d.Recorder,
		usage:    d.Usage,
		tokens:   d.Tokens,
		logger:   logger,
		dataDir:  d.DataDir,
		origins:  d.AllowedOrigins,
		timeout:  timeout,
	}
}

// Routes builds the router. Callers may mount extra handlers, such as a bot
// webhook, on the returned mux.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.SessionHeader},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(requestTimeout(s.timeout))

		r.Post("/api/generate-meal-plan", s.handleGenerateMealPlan)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.tokens))

			r.Route("/api/session", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleResetSession)
				r.Post("/plan", s.handleSessionGenerate)
				r.Post("/plan/regenerate", s.handleSessionRegenerate)
				r.Post("/locks", s.handleToggleLock)
				r.Delete("/locks", s.handleClearLocks)
				r.Get("/shopping-list", s.handleSessionShoppingList)
				r.Get("/insights", s.handleSessionInsights)
			})

			r.Route("/api/plans", func(r chi.Router) {
				r.Get("/", s.handleListPlans)
				r.Post("/", s.handleSavePlan)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetPlan)
					r.Delete("/", s.handleDeletePlan)
					r.Post("/favorite", s.handleToggleFavorite)
					r.Post("/load", s.handleLoadPlan)
					r.Get("/shopping-list", s.handleSavedShoppingList)
				})
			})

			if s.usage != nil {
				r.Get("/api/metrics/usage", s.handleUsage)
			}
		})
	})

	return r
}

// requestTimeout bounds the request context. Unlike middleware.Timeout it
// writes nothing itself; handlers report an expired deadline through fail.
func requestTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestLogger(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				l.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
