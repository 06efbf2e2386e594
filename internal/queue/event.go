// Package queue carries reservation lifecycle events over RabbitMQ: the
// payload type, a publisher used by the API and the consumer run by the
// worker, which appends one line per event to logs/reservations.log.
package queue

import (
    "time"

    "github.com/google/uuid"

    "github.com/1wflores/amenity-reservations/internal/model"
)

// EventType names what happened to a reservation.
type EventType string

const (
    EventCreated   EventType = "reservation.created"
    EventUpdated   EventType = "reservation.updated"
    EventApproved  EventType = "reservation.approved"
    EventDenied    EventType = "reservation.denied"
    EventCancelled EventType = "reservation.cancelled"
)

// ReservationEvent is published after every committed reservation write.
// It is self-contained so consumers never query the primary database.
type ReservationEvent struct {
    ID            string       `json:"id"`
    Type          EventType    `json:"type"`
    ReservationID uint64       `json:"reservation_id"`
    AmenityID     uint64       `json:"amenity_id"`
    AmenityName   string       `json:"amenity_name"`
    UserID        uint64       `json:"user_id"`
    ActorID       uint64       `json:"actor_id"`
    ActorRole     model.Role   `json:"actor_role"`
    Status        model.Status `json:"status"`
    StartTime     time.Time    `json:"start_time"`
    EndTime       time.Time    `json:"end_time"`
    AutoApproval  bool         `json:"auto_approval"`
    Reason        string       `json:"reason,omitempty"`
    OccurredAt    time.Time    `json:"occurred_at"`
}

// NewReservationEvent snapshots r as seen after a write by actor.
func NewReservationEvent(typ EventType, r model.Reservation, amenity model.Amenity, actor model.Actor, now time.Time) ReservationEvent {
    ev := ReservationEvent{
        ID:            uuid.NewString(),
        Type:          typ,
        ReservationID: r.ID,
        AmenityID:     r.AmenityID,
        AmenityName:   amenity.Name,
        UserID:        r.UserID,
        ActorID:       actor.UserID,
        ActorRole:     actor.Role,
        Status:        r.Status,
        StartTime:     r.StartTime.UTC(),
        EndTime:       r.EndTime.UTC(),
        OccurredAt:    now.UTC(),
    }
    if typ == EventDenied {
        ev.Reason = r.DenialReason
    }
    return ev
}
