// Package service orchestrates the booking core with persistence and
// event publishing.  Services receive the acting principal explicitly and
// return either booking rule errors, which callers show to the user, or
// repository sentinels wrapped with context.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/1wflores/amenity-reservations/internal/model"
	"github.com/1wflores/amenity-reservations/internal/queue"
	"github.com/1wflores/amenity-reservations/internal/repository"
)

// ErrInvalidInput marks a request that is malformed independently of the
// booking rules, such as an unknown amenity type.
var ErrInvalidInput = errors.New("invalid input")

// AmenityStore is the amenity persistence the services need.
type AmenityStore interface {
	GetByID(ctx context.Context, id uint64) (model.Amenity, error)
	List(ctx context.Context, activeOnly bool) ([]model.Amenity, error)
	Create(ctx context.Context, a *model.Amenity) error
	Update(ctx context.Context, a *model.Amenity) error
}

// ReservationStore is the reservation persistence the services need.
// Create and Update must reject overlapping active reservations with
// repository.ErrConflict atomically.
type ReservationStore interface {
	GetByID(ctx context.Context, id uint64) (model.Reservation, error)
	List(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error)
	Create(ctx context.Context, r *model.Reservation) error
	Update(ctx context.Context, r *model.Reservation, expected model.Status) error
}

// EventPublisher delivers lifecycle events.  Failures are logged and
// never fail the request that triggered them.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

const publishTimeout = 3 * time.Second
