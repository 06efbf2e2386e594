package queue

import (
    "context"
    "encoding/json"
    "errors"
    "io"
    "net"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/sirupsen/logrus"

    "github.com/1wflores/amenity-reservations/internal/model"
)

func sampleEvent(typ EventType) ReservationEvent {
    r := model.Reservation{
        ID:           9,
        AmenityID:    2,
        UserID:       7,
        StartTime:    time.Date(2025, 1, 10, 23, 0, 0, 0, time.UTC),
        EndTime:      time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
        Status:       model.StatusDenied,
        DenialReason: "private event",
    }
    a := model.Amenity{ID: 2, Name: "Rooftop Lounge"}
    return NewReservationEvent(typ, r, a, model.Actor{UserID: 1, Role: model.RoleAdmin}, time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC))
}

func TestNewReservationEvent(t *testing.T) {
    ev := sampleEvent(EventDenied)
    if _, err := uuid.Parse(ev.ID); err != nil {
        t.Fatalf("event id %q is not a uuid: %v", ev.ID, err)
    }
    if ev.Reason != "private event" || ev.AmenityName != "Rooftop Lounge" || ev.ActorID != 1 {
        t.Fatalf("unexpected event: %+v", ev)
    }
    if other := sampleEvent(EventCancelled); other.Reason != "" || other.ID == ev.ID {
        t.Fatalf("reason leaks into non-deny events or ids repeat: %+v", other)
    }
}

func TestFormatLine(t *testing.T) {
    line := FormatLine(sampleEvent(EventDenied))
    for _, want := range []string{
        "[2025-01-09T12:00:00Z] reservation.denied",
        "reservation_id=9",
        `amenity="Rooftop Lounge"`,
        "2025-01-10T23:00:00Z - 2025-01-11T00:00:00Z",
        "by=ADMIN:1",
        `reason="private event"`,
    } {
        if !strings.Contains(line, want) {
            t.Errorf("line %q missing %q", line, want)
        }
    }
    if !strings.HasSuffix(line, "\n") || strings.Count(line, "\n") != 1 {
        t.Errorf("line must be a single newline-terminated record: %q", line)
    }
}

func TestConsumerHandleAppends(t *testing.T) {
    log := logrus.New()
    log.SetOutput(io.Discard)
    path := filepath.Join(t.TempDir(), "nested", "reservations.log")
    c := &Consumer{LogPath: path, Log: log}

    for _, typ := range []EventType{EventCreated, EventApproved} {
        body, err := json.Marshal(sampleEvent(typ))
        if err != nil {
            t.Fatal(err)
        }
        if err := c.Handle(body); err != nil {
            t.Fatalf("Handle: %v", err)
        }
    }
    data, err := os.ReadFile(path)
    if err != nil {
        t.Fatal(err)
    }
    lines := strings.Split(strings.TrimSpace(string(data)), "\n")
    if len(lines) != 2 || !strings.Contains(lines[1], "reservation.approved") {
        t.Fatalf("log contents:\n%s", data)
    }
}

func TestConsumerHandleRejectsGarbage(t *testing.T) {
    c := &Consumer{LogPath: filepath.Join(t.TempDir(), "r.log")}
    if err := c.Handle([]byte("{not json")); err == nil {
        t.Error("malformed body accepted")
    }
    if err := c.Handle([]byte(`{"type":"reservation.created"}`)); err == nil {
        t.Error("event without reservation id accepted")
    }
}

// silentBroker accepts TCP connections and never answers the AMQP
// handshake.
func silentBroker(t *testing.T) string {
    t.Helper()
    ln, err := net.Listen("tcp", "127.0.0.1:0")
    if err != nil {
        t.Fatal(err)
    }
    var held []net.Conn
    done := make(chan struct{})
    go func() {
        defer close(done)
        for {
            conn, err := ln.Accept()
            if err != nil {
                return
            }
            held = append(held, conn)
        }
    }()
    t.Cleanup(func() {
        _ = ln.Close()
        <-done
        for _, c := range held {
            _ = c.Close()
        }
    })
    return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

func TestPublishGivesUpAtContextDeadline(t *testing.T) {
    p := NewPublisher(silentBroker(t), "reservation_events", nil)
    defer p.Close()

    ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
    defer cancel()
    began := time.Now()
    err := p.Publish(ctx, sampleEvent(EventCreated))
    if err == nil {
        t.Fatal("publish to a silent broker succeeded")
    }
    if took := time.Since(began); took > 3*time.Second {
        t.Fatalf("publish blocked for %s past a 300ms deadline", took)
    }
    if !strings.Contains(err.Error(), "dial broker") {
        t.Fatalf("unexpected error: %v", err)
    }
}

func TestPublishCancelledContextSkipsDial(t *testing.T) {
    p := NewPublisher(silentBroker(t), "reservation_events", nil)
    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    if err := p.Publish(ctx, sampleEvent(EventCreated)); !errors.Is(err, context.Canceled) {
        t.Fatalf("err = %v, want context.Canceled", err)
    }
}

func TestDialTimeout(t *testing.T) {
    if got := dialTimeout(context.Background()); got != defaultDialTimeout {
        t.Errorf("no deadline: %s, want %s", got, defaultDialTimeout)
    }
    ctx, cancel := context.WithTimeout(context.Background(), time.Second)
    defer cancel()
    if got := dialTimeout(ctx); got <= 0 || got > time.Second {
        t.Errorf("1s deadline: %s", got)
    }
    expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
    defer cancel2()
    if got := dialTimeout(expired); got <= 0 {
        t.Errorf("expired deadline must still give a positive timeout, got %s", got)
    }
}
