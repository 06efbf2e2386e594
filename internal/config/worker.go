package config

import (
    "errors"
    "os"
    "path/filepath"
)

// WorkerConfig is the subset of settings the event worker needs.  It
// does not touch the database, so the DB variables are not required.
type WorkerConfig struct {
    Env      string
    LogLevel string
    AMQPURL  string
    Queue    string
    LogPath  string // file receiving one line per reservation event
}

// LoadWorker reads the worker settings.  A broker URL is mandatory.
func LoadWorker() (WorkerConfig, error) {
    url := os.Getenv("RABBITMQ_URL")
    if url == "" {
        url = os.Getenv("AMQP_URL")
    }
    if url == "" {
        return WorkerConfig{}, errors.New("RABBITMQ_URL or AMQP_URL is required")
    }
    return WorkerConfig{
        Env:      envStr("APP_ENV", "dev"),
        LogLevel: envStr("LOG_LEVEL", "info"),
        AMQPURL:  url,
        Queue:    envStr("RESERVATION_EVENTS_QUEUE", "reservation.events"),
        LogPath:  envStr("RESERVATION_LOG_PATH", filepath.Join("logs", "reservations.log")),
    }, nil
}
