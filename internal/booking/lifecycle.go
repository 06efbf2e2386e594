package booking

import (
	"strings"
	"time"

	"github.com/1wflores/amenity-reservations/internal/model"
)

// Action is a triggered lifecycle transition.
type Action string

const (
	ActionApprove Action = "approve"
	ActionDeny    Action = "deny"
	ActionCancel  Action = "cancel"
)

// InitialStatus maps a policy decision to the status assigned at creation.
func InitialStatus(p PolicyResult) model.Status {
	if p.AutoApproval {
		return model.StatusApproved
	}
	return model.StatusPending
}

// EffectiveStatus derives completion: an approved reservation whose end
// is not in the future reads as completed.  No transition is stored.
func EffectiveStatus(r model.Reservation, now time.Time) model.Status {
	if r.Status == model.StatusApproved && !r.EndTime.After(now) {
		return model.StatusCompleted
	}
	return r.Status
}

// Lifecycle applies admin and resident actions to reservations.
type Lifecycle struct {
	Zone  Zone
	Clock Clock
}

// NewLifecycle returns a Lifecycle reading "now" from clock.
func NewLifecycle(zone Zone, clock Clock) *Lifecycle {
	return &Lifecycle{Zone: zone, Clock: clock}
}

// Status returns the effective status of r at the current time.
func (l *Lifecycle) Status(r model.Reservation) model.Status {
	return EffectiveStatus(r, l.Zone.Now(l.Clock))
}

// Apply performs action on a copy of r and returns it.  On error the
// returned reservation is r unchanged.
//
//  pending  -> approved   admin
//  pending  -> denied     admin, non-empty reason
//  pending  -> cancelled  admin, or owner before start
//  approved -> cancelled  admin, or owner before start
//
// Denied, cancelled and completed reservations reject every action.
func (l *Lifecycle) Apply(r model.Reservation, action Action, actor model.Actor, reason string) (model.Reservation, error) {
	now := l.Zone.Now(l.Clock)
	from := EffectiveStatus(r, now)
	fail := func(kind ErrorKind) (model.Reservation, error) {
		return r, &TransitionError{Kind: kind, From: from, Action: action}
	}
	if from.Terminal() {
		return fail(KindInvalidTransition)
	}

	out := r
	switch action {
	case ActionApprove:
		if !actor.IsAdmin() {
			return fail(KindForbidden)
		}
		if from != model.StatusPending {
			return fail(KindInvalidTransition)
		}
		out.Status = model.StatusApproved
	case ActionDeny:
		if !actor.IsAdmin() {
			return fail(KindForbidden)
		}
		if from != model.StatusPending {
			return fail(KindInvalidTransition)
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return fail(KindMissingDenialReason)
		}
		out.Status = model.StatusDenied
		out.DenialReason = reason
	case ActionCancel:
		if !actor.IsAdmin() {
			if r.UserID != actor.UserID {
				return fail(KindForbidden)
			}
			if !l.Zone.InFuture(r.StartTime, l.Clock) {
				return fail(KindInvalidTransition)
			}
		}
		out.Status = model.StatusCancelled
	default:
		return fail(KindInvalidTransition)
	}
	out.UpdatedAt = now.UTC()
	return out, nil
}

// CheckEditable reports whether actor may change r's time or details:
// the reservation must be pending or approved with a future start, and
// the actor must own it or be an administrator.
func (l *Lifecycle) CheckEditable(r model.Reservation, actor model.Actor) error {
	from := l.Status(r)
	if !actor.IsAdmin() && r.UserID != actor.UserID {
		return &TransitionError{Kind: KindForbidden, From: from, Action: "edit"}
	}
	if !from.Active() || !l.Zone.InFuture(r.StartTime, l.Clock) {
		return &TransitionError{Kind: KindInvalidTransition, From: from, Action: "edit"}
	}
	return nil
}
