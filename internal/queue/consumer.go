package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Consumer drains the events queue and appends each event to a log file.
type Consumer struct {
    URL     string
    Queue   string
    LogPath string // defaults to logs/reservations.log
    Log     logrus.FieldLogger
}

// NewConsumer returns a Consumer writing to logs/reservations.log.
func NewConsumer(url, queue string, log logrus.FieldLogger) *Consumer {
    return &Consumer{URL: url, Queue: queue, LogPath: filepath.Join("logs", "reservations.log"), Log: log}
}

// Run connects to the broker and consumes until ctx is cancelled.  Dial
// failures back off exponentially up to 30s; a dropped connection is
// re-established after two seconds.  Malformed messages are rejected
// without requeue so they cannot loop.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.WithError(err).Warnf("dial broker failed, retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.WithError(err).Warn("consume loop ended, reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("open channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.WithError(err).Warn("set QoS failed")
    }
    if _, err := declareQueue(ch, c.Queue); err != nil {
        return err
    }
    msgs, err := ch.ConsumeWithContext(ctx, c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("consume: %w", err)
    }
    c.Log.WithField("queue", c.Queue).Info("consuming reservation events")

    for d := range msgs {
        if err := c.Handle(d.Body); err != nil {
            c.Log.WithError(err).WithField("message_id", d.MessageId).Error("handle message failed")
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// Handle decodes one message body and appends its log line.
func (c *Consumer) Handle(body []byte) error {
    var ev ReservationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.ReservationID == 0 {
        return errors.New("event missing type or reservation id")
    }
    path := c.LogPath
    if path == "" {
        path = filepath.Join("logs", "reservations.log")
    }
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("mkdir: %w", err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as a single human-readable log line.
func FormatLine(ev ReservationEvent) string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s | reservation_id=%d | amenity=%q | user_id=%d | status=%s | %s - %s | by=%s:%d",
        ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.ReservationID, ev.AmenityName, ev.UserID,
        ev.Status, ev.StartTime.UTC().Format(time.RFC3339), ev.EndTime.UTC().Format(time.RFC3339),
        ev.ActorRole, ev.ActorID)
    if ev.AutoApproval {
        b.WriteString(" | auto_approved")
    }
    if ev.Reason != "" {
        fmt.Fprintf(&b, " | reason=%q", ev.Reason)
    }
    b.WriteByte('\n')
    return b.String()
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
