package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-analytics/internal/analytics"
	"github.com/iliyamo/cinema-analytics/internal/cache"
	"github.com/iliyamo/cinema-analytics/internal/config"
	"github.com/iliyamo/cinema-analytics/internal/database"
	"github.com/iliyamo/cinema-analytics/internal/handler"
	"github.com/iliyamo/cinema-analytics/internal/jobs"
	"github.com/iliyamo/cinema-analytics/internal/middleware"
	"github.com/iliyamo/cinema-analytics/internal/queue"
	"github.com/iliyamo/cinema-analytics/internal/rating"
	"github.com/iliyamo/cinema-analytics/internal/repository"
	"github.com/iliyamo/cinema-analytics/internal/router"
	"github.com/iliyamo/cinema-analytics/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := newLogger(cfg.AppConfig)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.AppConfig) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if cfg.IsProd() {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return log.With(zap.String("env", cfg.Env))
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBConfig)
	if err != nil {
		return err
	}
	defer db.Close()
	store := repository.NewStore(db)

	// Redis is optional: without it the cache and rate limiter pass
	// requests through, the leaderboard is skipped and locking stays
	// in-process.
	rdb := config.NewRedisClient(cfg.RedisConfig)
	if rdb == nil {
		log.Warn("redis unavailable, running without cache, rate limit and leaderboard", zap.String("addr", cfg.RedisConfig.Address()))
	} else {
		defer rdb.Close()
	}

	opts := []rating.Option{rating.WithLocker(rating.NewKeyedMutex())}
	if rdb != nil {
		opts[0] = rating.WithLocker(rating.NewRedisLocker(rdb, cfg.LockTTL))
	}
	board := cache.NewRatingBoard(rdb)
	if board != nil {
		opts = append(opts, rating.WithRanking(board))
	}
	if cfg.AMQPConfig.URL != "" {
		opts = append(opts, rating.WithPublisher(service.NewQueuePublisher(cfg.AMQPConfig.URL, log)))
	}
	maintainer := rating.New(store, log.Named("rating"), opts...)

	if cfg.AMQPConfig.URL != "" {
		consumer := queue.NewRatingConsumer(cfg.AMQPConfig.URL, maintainer, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("rating consumer stopped", zap.Error(err))
			}
		}()
	}

	sched, err := jobs.StartRatingBackfill(ctx, maintainer, cfg.BackfillInterval, loc, log.Named("jobs"))
	if err != nil {
		return err
	}
	defer func() { _ = sched.Shutdown() }()

	engine := analytics.New(store, time.Now, loc)
	validate := handler.NewValidator()

	movies := &handler.MovieHandler{Movies: store, Log: log}
	if board != nil {
		movies.Ranking = board
	}
	votes := handler.NewVoteHandler(maintainer, validate, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	}))

	router.RegisterRoutes(e, &handler.HealthHandler{DB: db}, movies, votes)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg.AppConfig, store, validate, log), cfg.JWTSecret)
	router.RegisterVotes(e, votes, cfg.JWTSecret, middleware.NewTokenBucket(cfg.RateLimitConfig, rdb, log))
	router.RegisterAdmin(e, handler.NewStatsHandler(engine, log), cfg.JWTSecret, middleware.NewRedisCache(cfg.CacheConfig, rdb, log))

	addr := ":" + cfg.AppConfig.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("timezone", loc.String()))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
