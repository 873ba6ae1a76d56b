package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/inkpost/inkpost/internal/metrics"
	"github.com/inkpost/inkpost/internal/middleware"
	"github.com/inkpost/inkpost/internal/service"
	"github.com/inkpost/inkpost/internal/session"
)

// RouterConfig carries everything the HTTP surface depends on.
type RouterConfig struct {
	Logger   *slog.Logger
	Views    *Renderer
	Articles *service.ArticleService
	Accounts *service.AccountService
	Sessions *session.Manager

	Metrics        metrics.Recorder
	MetricsHandler http.Handler // nil disables /metrics

	DB    HealthChecker
	Cache HealthChecker

	Cookie    CookieConfig
	Security  middleware.SecurityConfig
	CORS      middleware.CORSConfig
	RateLimit middleware.RateLimitConfig
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.RateLimit.Logger == nil {
		cfg.RateLimit.Logger = cfg.Logger
	}
	if cfg.RateLimit.Metrics == nil {
		cfg.RateLimit.Metrics = cfg.Metrics
	}
	if cfg.Security.MaxRequestBodySize <= 0 {
		cfg.Security.MaxRequestBodySize = middleware.DefaultSecurityConfig().MaxRequestBodySize
	}

	h := New(cfg.Views)
	healthHandler := NewHealthHandler(cfg.DB, cfg.Cache)
	articleHandler := NewArticleHandler(cfg.Articles, cfg.Logger)
	viewHandler := NewViewHandler(cfg.Articles, cfg.Views, cfg.Logger)
	accountHandler := NewAccountHandler(cfg.Accounts, cfg.Views, cfg.Logger)
	authHandler := NewAuthHandler(cfg.Accounts, cfg.Sessions, cfg.Views, cfg.Metrics, cfg.Cookie, cfg.Logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.MaxBodySize(cfg.Security.MaxRequestBodySize))
	r.Use(middleware.SessionGate(middleware.SessionGateConfig{
		Logger:      cfg.Logger,
		Sessions:    cfg.Sessions,
		CookieName:  cfg.Cookie.Name,
		PublicPaths: middleware.DefaultPublicPaths(),
	}))

	// Infrastructure
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}
	r.Handle("/static/*", StaticHandler())

	// Authentication
	loginLimit := middleware.RateLimitLogin(cfg.RateLimit)
	r.Get("/login", authHandler.LoginPage)
	r.With(loginLimit).Post("/login", authHandler.Login)
	r.Get("/signup", authHandler.SignupPage)
	r.With(loginLimit).Post("/user", accountHandler.Create)
	r.Post("/logout", authHandler.Logout)

	// HTML views
	r.Get("/", h.Home)
	r.Get("/articles", viewHandler.ArticleList)
	r.Get("/articles/{id}", viewHandler.Article)
	r.Get("/new-article", viewHandler.NewArticle)

	// JSON API
	r.Route("/api/articles", func(r chi.Router) {
		r.Get("/", articleHandler.List)
		r.Post("/", articleHandler.Create)
		r.Get("/{id}", articleHandler.Get)
		r.Put("/{id}", articleHandler.Update)
		r.Delete("/{id}", articleHandler.Delete)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
