// Package main is the entrypoint for the Inkpost server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/cache"
	"github.com/inkpost/inkpost/internal/config"
	"github.com/inkpost/inkpost/internal/handler"
	"github.com/inkpost/inkpost/internal/metrics"
	"github.com/inkpost/inkpost/internal/middleware"
	"github.com/inkpost/inkpost/internal/repository"
	"github.com/inkpost/inkpost/internal/server"
	"github.com/inkpost/inkpost/internal/service"
	"github.com/inkpost/inkpost/internal/session"
)

const sessionSweepInterval = 5 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return err
	}
	logger.Info("connected to database")

	if cfg.RunMigrations {
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return err
		}
		logger.Info("database migrations applied")
	}

	// Initialize cache
	var cacheClient *cache.Cache
	if cfg.UsesRedis() {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			repo.Close()
			return err
		}
		logger.Info("connected to Redis")
	}

	hasher, err := auth.NewHasher(auth.HasherConfig{
		Algorithm:     cfg.PasswordAlgorithm,
		Argon2Time:    cfg.Argon2Time,
		Argon2Memory:  cfg.Argon2MemoryKB,
		Argon2Threads: cfg.Argon2Threads,
		BcryptCost:    cfg.BcryptCost,
	})
	if err != nil {
		closeAll(repo, cacheClient)
		return err
	}

	// Initialize services
	recorder := metrics.NewPrometheus()
	articleService := service.NewArticleService(repo, recorder)
	accountService := service.NewAccountService(repo, hasher, recorder)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	var sessionStore session.Store
	if cfg.SessionBackend == config.SessionBackendRedis {
		sessionStore = cache.NewSessionStore(cacheClient)
	} else {
		memStore := session.NewMemoryStore()
		go memStore.RunSweeper(sweepCtx, sessionSweepInterval)
		sessionStore = memStore
		logger.Warn("using in-memory sessions; sessions are lost on restart")
	}
	sessions := session.NewManager(sessionStore, cfg.SessionTTL)

	views, err := handler.NewRenderer(logger)
	if err != nil {
		stopSweeper()
		closeAll(repo, cacheClient)
		return err
	}

	routerCfg := handler.RouterConfig{
		Logger:         logger,
		Views:          views,
		Articles:       articleService,
		Accounts:       accountService,
		Sessions:       sessions,
		Metrics:        recorder,
		MetricsHandler: recorder.Handler(),
		DB:             repo,
		Cookie: handler.CookieConfig{
			Name:   cfg.SessionCookieName,
			Secure: !cfg.IsDevelopment(),
		},
		Security: middleware.SecurityConfig{
			IsDevelopment:      cfg.IsDevelopment(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
		CORS: corsConfig(cfg),
		RateLimit: middleware.RateLimitConfig{
			Enabled: cfg.RateLimitLoginEnabled,
			RPS:     cfg.RateLimitLoginRPS,
			Burst:   cfg.RateLimitLoginBurst,
		},
	}
	// A typed nil would defeat the nil checks downstream.
	if cacheClient != nil {
		routerCfg.Cache = cacheClient
		routerCfg.RateLimit.Limiter = cacheClient
	}

	srv := server.New(handler.NewRouter(routerCfg), server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Registered first, closed last.
	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}
	srv.OnShutdown("session-sweeper", func(ctx context.Context) error {
		stopSweeper()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"session_backend", cfg.SessionBackend,
		"password_algorithm", hasher.Algorithm(),
	)

	return srv.Run(ctx)
}

func closeAll(repo *repository.Repository, cacheClient *cache.Cache) {
	if cacheClient != nil {
		_ = cacheClient.Close()
	}
	repo.Close()
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	return corsCfg
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
