package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/1wflores/amenity-reservations/internal/config"
	"github.com/1wflores/amenity-reservations/internal/queue"
)

// The worker drains reservation lifecycle events from RabbitMQ and appends
// one line per event to the reservation log.
func main() {
	_ = godotenv.Load()
	log := logrus.New()
	cfg, err := config.LoadWorker()
	if err != nil {
		log.WithError(err).Fatal("worker config")
	}
	if cfg.Env == "prod" || cfg.Env == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := queue.NewConsumer(cfg.AMQPURL, cfg.Queue, log.WithField("component", "worker"))
	consumer.LogPath = cfg.LogPath
	log.WithFields(logrus.Fields{"queue": cfg.Queue, "log_path": cfg.LogPath}).Info("worker started")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("worker stopped")
	}
	log.Info("worker stopped")
}
