package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kosench/shortlink/internal/cache"
	"github.com/Kosench/shortlink/internal/config"
	"github.com/Kosench/shortlink/internal/database"
	"github.com/Kosench/shortlink/internal/handler"
	"github.com/Kosench/shortlink/internal/logger"
	"github.com/Kosench/shortlink/internal/repository"
	"github.com/Kosench/shortlink/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.IsProduction())
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logger.Sync(zlog)

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("shortlink stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx := context.Background()
	dialect := database.Dialect(cfg.Database.Driver)

	db, err := database.Open(dialect, cfg.DatabaseDSN(), cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, dialect); err != nil {
		return err
	}
	zlog.Info("database ready", zap.String("driver", cfg.Database.Driver))

	// Подключаемся к Redis, без него работаем через NullCache
	var cacheManager cache.CacheManager = cache.NewNullCache()
	var cacheHealth handler.CacheChecker
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			CacheTTL:     cfg.Redis.CacheTTL,
			Namespace:    cfg.Redis.Namespace,
		})
		if err != nil {
			zlog.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheManager = redisClient
			cacheHealth = redisClient
			zlog.Info("redis cache enabled", zap.String("addr", cfg.RedisAddress()))
		}
	}

	base := repository.NewSQLLinkRepository(db, dialect)
	reads := repository.NewRetryingLinkRepository(base, repository.DefaultRetryPolicy())
	store := repository.NewCachedLinkRepository(reads, cacheManager, zlog)

	clickPolicy := repository.DefaultRetryPolicy()
	clickPolicy.MaxAttempts = cfg.Clicks.MaxAttempts
	clicks := repository.NewRetryingLinkRepository(base, clickPolicy)

	recorder := service.NewClickRecorder(clicks, service.RecorderConfig{
		Workers:   cfg.Clicks.Workers,
		QueueSize: cfg.Clicks.QueueSize,
		Timeout:   cfg.Clicks.Timeout,
	}, zlog.Named("clicks"))

	generator := service.NewCodeGenerator(store, service.GeneratorConfig{
		CodeLength:         cfg.App.ShortCodeLength,
		FallbackCodeLength: cfg.App.FallbackCodeLength,
		MaxRetries:         cfg.App.MaxRetries,
	}, zlog.Named("generator"))

	linkService := service.NewLinkService(store, generator, cfg.GetBaseURL(), zlog)
	resolver := service.NewResolver(store, recorder, cfg.Location(), zlog.Named("resolver"))
	analytics := service.NewAnalytics(store, cacheManager, cfg.Location(), cfg.App.AnalyticsDays, zlog.Named("analytics"))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handler.NewRouter(
		handler.RouterConfig{
			AllowedOrigins: cfg.GetAllowedOrigins(),
			JWTSecret:      []byte(cfg.Auth.JWTSecret),
			JWTIssuer:      cfg.Auth.Issuer,
		},
		handler.NewLinkHandler(linkService, analytics, zlog),
		handler.NewRedirectHandler(resolver, zlog),
		handler.NewHealthHandler(store, cacheHealth, recorder, cfg.Database.Driver, func(ctx context.Context) (string, error) {
			return database.GetVersion(ctx, db, dialect)
		}),
		zlog,
	)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		zlog.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("base_url", cfg.GetBaseURL()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Сначала перестаем принимать запросы, потом дописываем клики
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	if err := recorder.Shutdown(shutdownCtx); err != nil {
		zlog.Error("click recorder did not drain", zap.Error(err), zap.Any("stats", recorder.Stats()))
	}

	zlog.Info("server gracefully stopped", zap.Any("clicks", recorder.Stats()))
	return nil
}
