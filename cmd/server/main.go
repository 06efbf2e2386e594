package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/1wflores/amenity-reservations/internal/booking"
	"github.com/1wflores/amenity-reservations/internal/config"
	"github.com/1wflores/amenity-reservations/internal/database"
	"github.com/1wflores/amenity-reservations/internal/handler"
	"github.com/1wflores/amenity-reservations/internal/middleware"
	"github.com/1wflores/amenity-reservations/internal/queue"
	"github.com/1wflores/amenity-reservations/internal/repository"
	"github.com/1wflores/amenity-reservations/internal/router"
	"github.com/1wflores/amenity-reservations/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins
	cfg := config.Load()
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("migrate schema")
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("redis unavailable: using in-process rate limiting, response cache disabled")
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	amenityRepo := repository.NewAmenityRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	if created, err := handler.EnsureAdmin(ctx, users, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		log.WithError(err).Fatal("bootstrap admin")
	} else if created {
		log.WithField("email", cfg.AdminEmail).Info("bootstrap admin created")
	}

	core := booking.New(cfg.Booking.Options())
	var events service.EventPublisher
	if cfg.AMQPURL != "" {
		pub := queue.NewPublisher(cfg.AMQPURL, cfg.EventsQueue, log)
		defer pub.Close()
		events = pub
	} else {
		log.Warn("RABBITMQ_URL not set: reservation events disabled")
	}
	reservations := service.NewReservationService(core, amenityRepo, reservationRepo, events, log)
	reservations.ResetApprovalOnEdit = cfg.Booking.ResetApprovalOnEdit
	amenities := service.NewAmenityService(amenityRepo, log)

	cacheCfg := config.LoadCacheConfig()
	purge := func(ctx context.Context) error { return middleware.PurgeCache(ctx, rdb, cacheCfg.Prefix) }

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb, log))

	router.RegisterRoutes(e, readiness(db.PingContext, rdb))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	amenityHandler := handler.NewAmenityHandler(amenities, purge, log)
	reservationHandler := handler.NewReservationHandler(reservations, core.Zone, log)
	router.RegisterResident(e, amenityHandler, reservationHandler, cfg.JWTSecret, middleware.ResponseCache(cacheCfg, rdb, log))
	router.RegisterAdmin(e, amenityHandler, reservationHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "utc_offset": cfg.Booking.Offset.String()}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("server stopped")
}

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	if cfg.IsProd() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

func readiness(pingDB func(context.Context) error, rdb *redis.Client) map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{"database": pingDB}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}
