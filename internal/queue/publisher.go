package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// defaultDialTimeout bounds the TCP connect and AMQP handshake when the
// caller's context carries no deadline.
const defaultDialTimeout = 5 * time.Second

// Publisher sends ReservationEvents to a durable queue on the default
// exchange.  One connection is kept open and shared by every publish;
// it is redialled after the broker drops it or a publish fails.
type Publisher struct {
    URL   string
    Queue string
    Log   logrus.FieldLogger

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewPublisher returns a Publisher for url and queue.  No connection is
// made until the first Publish.
func NewPublisher(url, queue string, log logrus.FieldLogger) *Publisher {
    return &Publisher{URL: url, Queue: queue, Log: log}
}

// Publish marshals ev and publishes it as a persistent message.  The
// event ID becomes the AMQP message ID so consumers can de-duplicate.
// Dialling honours ctx's deadline.
func (p *Publisher) Publish(ctx context.Context, ev ReservationEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel(ctx)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.ID,
        Type:         string(ev.Type),
        Timestamp:    ev.OccurredAt,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
        p.reset()
        return fmt.Errorf("publish: %w", err)
    }
    if p.Log != nil {
        p.Log.WithFields(logrus.Fields{
            "event_id":       ev.ID,
            "event_type":     ev.Type,
            "reservation_id": ev.ReservationID,
        }).Debug("reservation event published")
    }
    return nil
}

// Close shuts the shared connection down.  Publish may be called again
// afterwards and will redial.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.conn == nil {
        return nil
    }
    err := p.conn.Close()
    p.conn, p.ch = nil, nil
    return err
}

// channel returns the open channel, dialling first when there is none.
// Callers hold p.mu.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
    if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    if err := ctx.Err(); err != nil {
        return nil, fmt.Errorf("dial broker: %w", err)
    }

    conn, err := amqp.DialConfig(p.URL, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(dialTimeout(ctx)),
    })
    if err != nil {
        return nil, fmt.Errorf("dial broker: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("open channel: %w", err)
    }
    if _, err := declareQueue(ch, p.Queue); err != nil {
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *Publisher) reset() {
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
}

func dialTimeout(ctx context.Context) time.Duration {
    deadline, ok := ctx.Deadline()
    if !ok {
        return defaultDialTimeout
    }
    if d := time.Until(deadline); d > 0 {
        return d
    }
    return time.Millisecond
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
    q, err := ch.QueueDeclare(name, true, false, false, false, nil)
    if err != nil {
        return q, fmt.Errorf("declare queue %s: %w", name, err)
    }
    return q, nil
}
