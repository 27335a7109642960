package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/database"
	"github.com/iliyamo/bus-seat-reservation/internal/handler"
	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/router"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	log := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("schema migrated")
	}

	opts := service.Options{
		HoldTTL:     cfg.HoldTTL,
		ClaimExtend: cfg.ClaimExtend,
		Logger:      log,
	}
	if cfg.RabbitMQURL != "" {
		opts.Publisher = service.NewRabbitPublisher(cfg.RabbitMQURL, cfg.BookingQueue)
	} else {
		log.Warn("RABBITMQ_URL not set; booking events are not published")
	}
	svc := service.NewReservationService(repository.NewTripRepo(db), repository.NewSeatRepo(db), opts)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(log))

	var limiter, cache echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		defer rdb.Close()
		limiter = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
		cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	} else {
		log.Warn("redis unavailable; rate limiting and response cache disabled")
	}

	router.RegisterRoutes(e)
	router.RegisterPublic(e, &handler.PublicHandler{Svc: svc}, cfg.CookieSecure, cache)
	router.RegisterCustomer(e, &handler.HoldHandler{Svc: svc}, cfg.CookieSecure, limiter)
	router.RegisterAdmin(e, &handler.AdminHandler{Svc: svc}, cfg.JWTSecret, middleware.AdminKeys{
		Plain: cfg.AdminAPIKey,
		Hash:  cfg.AdminAPIKeyHash,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if cfg.SweepInterval > 0 {
		g.Go(func() error {
			runSweeper(gctx, svc, cfg.SweepInterval, log)
			return nil
		})
	}
	if cfg.BookingLogConsumer && cfg.RabbitMQURL != "" {
		consumer := &queue.BookingLogConsumer{
			URL:       cfg.RabbitMQURL,
			QueueName: cfg.BookingQueue,
			Dir:       cfg.BookingLogDir,
			Logger:    log,
		}
		g.Go(func() error {
			if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// runSweeper releases expired holds every interval until ctx is done.
// Failures are logged and retried on the next tick.
func runSweeper(ctx context.Context, svc *service.ReservationService, interval time.Duration, log *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := svc.Sweep(ctx); err != nil && ctx.Err() == nil {
				log.Error("sweep failed", slog.Any("error", err))
			}
		}
	}
}
