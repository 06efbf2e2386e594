package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1wflores/amenity-reservations/internal/booking"
	"github.com/1wflores/amenity-reservations/internal/model"
	"github.com/1wflores/amenity-reservations/internal/queue"
	"github.com/1wflores/amenity-reservations/internal/repository"
)

// ReservationService runs reservation use cases: availability, booking,
// editing, moderation and listing.
type ReservationService struct {
	Core         *booking.Core
	Amenities    AmenityStore
	Reservations ReservationStore
	Events       EventPublisher // nil disables events
	Log          logrus.FieldLogger

	// ResetApprovalOnEdit re-runs the approval policy when a reservation
	// is edited.  When false an edit keeps the reservation's status.
	ResetApprovalOnEdit bool
}

// NewReservationService wires a ReservationService.
func NewReservationService(core *booking.Core, amenities AmenityStore, reservations ReservationStore, events EventPublisher, log logrus.FieldLogger) *ReservationService {
	return &ReservationService{Core: core, Amenities: amenities, Reservations: reservations, Events: events, Log: log}
}

// AvailabilityQuery asks for open slots of one amenity on one local date.
type AvailabilityQuery struct {
	AmenityID uint64
	Date      booking.Date
	Duration  time.Duration
	EditingID uint64 // reservation being rescheduled, zero for a new booking
}

// BookingRequest describes a new reservation or the new shape of an
// existing one.
type BookingRequest struct {
	AmenityID       uint64
	StartTime       time.Time
	EndTime         time.Time
	SpecialRequests model.SpecialRequests
}

// BookingResult is a stored reservation together with the policy
// decision that set its status.
type BookingResult struct {
	Reservation model.Reservation    `json:"reservation"`
	Policy      booking.PolicyResult `json:"policy"`
}

// Availability returns the bookable slots for q.  Deactivated amenities
// have no slots for residents.
func (s *ReservationService) Availability(ctx context.Context, actor model.Actor, q AvailabilityQuery) ([]model.Slot, error) {
	amenity, err := s.Amenities.GetByID(ctx, q.AmenityID)
	if err != nil {
		return nil, fmt.Errorf("load amenity %d: %w", q.AmenityID, err)
	}
	if !amenity.IsActive && !actor.IsAdmin() {
		return []model.Slot{}, nil
	}
	var editing *model.Reservation
	if q.EditingID != 0 {
		r, err := s.Reservations.GetByID(ctx, q.EditingID)
		if err != nil {
			return nil, fmt.Errorf("load reservation %d: %w", q.EditingID, err)
		}
		if !canView(actor, r) {
			return nil, repository.ErrForbidden
		}
		if r.AmenityID != amenity.ID {
			return nil, fmt.Errorf("%w: reservation %d is for another amenity", ErrInvalidInput, r.ID)
		}
		editing = &r
	}
	existing, err := s.dayReservations(ctx, amenity.ID, q.Date)
	if err != nil {
		return nil, err
	}
	slots, err := s.Core.ComputeAvailability(booking.AvailabilityRequest{
		Amenity:  amenity,
		Date:     q.Date,
		Duration: q.Duration,
		Existing: existing,
		Editing:  editing,
		Actor:    actor,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return slots, nil
}

// Create validates req, decides auto-approval and stores the reservation
// as approved or pending.
func (s *ReservationService) Create(ctx context.Context, actor model.Actor, req BookingRequest) (BookingResult, error) {
	amenity, err := s.Amenities.GetByID(ctx, req.AmenityID)
	if err != nil {
		return BookingResult{}, fmt.Errorf("load amenity %d: %w", req.AmenityID, err)
	}
	res := s.Core.ValidateCandidate(candidate(amenity, req), amenity, actor)
	if err := res.Err(); err != nil {
		return BookingResult{}, err
	}
	policy, err := s.decide(ctx, amenity, 0, actor.UserID, req)
	if err != nil {
		return BookingResult{}, err
	}
	now := s.Core.Zone.Now(s.Core.Clock).UTC()
	r := model.Reservation{
		AmenityID:       amenity.ID,
		UserID:          actor.UserID,
		StartTime:       req.StartTime.UTC(),
		EndTime:         req.EndTime.UTC(),
		Status:          s.Core.CreateInitialStatus(policy),
		SpecialRequests: cleanRequests(amenity, req.SpecialRequests),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Reservations.Create(ctx, &r); err != nil {
		return BookingResult{}, fmt.Errorf("store reservation: %w", err)
	}
	s.log(actor).WithFields(logrus.Fields{
		"reservation_id": r.ID,
		"amenity_id":     amenity.ID,
		"status":         r.Status,
		"policy":         policy.Code,
	}).Info("reservation created")
	s.publish(ctx, queue.EventCreated, r, amenity, actor, policy.AutoApproval)
	return BookingResult{Reservation: r, Policy: policy}, nil
}

// Update reschedules or amends an existing reservation.  The new shape is
// validated as a fresh candidate; the reservation's own interval never
// conflicts with itself.
func (s *ReservationService) Update(ctx context.Context, actor model.Actor, id uint64, req BookingRequest) (BookingResult, error) {
	current, err := s.Reservations.GetByID(ctx, id)
	if err != nil {
		return BookingResult{}, fmt.Errorf("load reservation %d: %w", id, err)
	}
	if err := s.Core.Lifecycle.CheckEditable(current, actor); err != nil {
		return BookingResult{}, err
	}
	amenity, err := s.Amenities.GetByID(ctx, current.AmenityID)
	if err != nil {
		return BookingResult{}, fmt.Errorf("load amenity %d: %w", current.AmenityID, err)
	}
	req.AmenityID = amenity.ID
	// The validator's role rules apply to the owner's booking, not to the
	// administrator editing it on their behalf.
	owner := model.Actor{UserID: current.UserID, Role: model.RoleResident}
	if actor.UserID == current.UserID {
		owner = actor
	}
	res := s.Core.ValidateCandidate(candidate(amenity, req), amenity, owner)
	if err := res.Err(); err != nil {
		return BookingResult{}, err
	}
	policy, err := s.decide(ctx, amenity, current.ID, current.UserID, req)
	if err != nil {
		return BookingResult{}, err
	}

	updated := current
	updated.StartTime = req.StartTime.UTC()
	updated.EndTime = req.EndTime.UTC()
	updated.SpecialRequests = cleanRequests(amenity, req.SpecialRequests)
	updated.UpdatedAt = s.Core.Zone.Now(s.Core.Clock).UTC()
	if s.ResetApprovalOnEdit {
		updated.Status = s.Core.CreateInitialStatus(policy)
	}
	if err := s.Reservations.Update(ctx, &updated, current.Status); err != nil {
		return BookingResult{}, fmt.Errorf("update reservation %d: %w", id, err)
	}
	s.log(actor).WithFields(logrus.Fields{
		"reservation_id": updated.ID,
		"status":         updated.Status,
		"policy":         policy.Code,
	}).Info("reservation updated")
	s.publish(ctx, queue.EventUpdated, updated, amenity, actor, policy.AutoApproval)
	return BookingResult{Reservation: updated, Policy: policy}, nil
}

// Transition applies a lifecycle action and persists the result.
func (s *ReservationService) Transition(ctx context.Context, actor model.Actor, id uint64, action booking.Action, reason string) (model.Reservation, error) {
	current, err := s.Reservations.GetByID(ctx, id)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("load reservation %d: %w", id, err)
	}
	next, err := s.Core.ApplyTransition(current, action, actor, reason)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := s.Reservations.Update(ctx, &next, current.Status); err != nil {
		return model.Reservation{}, fmt.Errorf("%s reservation %d: %w", action, id, err)
	}
	s.log(actor).WithFields(logrus.Fields{
		"reservation_id": id,
		"action":         action,
		"from":           current.Status,
		"to":             next.Status,
	}).Info("reservation transitioned")

	if amenity, err := s.Amenities.GetByID(ctx, next.AmenityID); err == nil {
		s.publish(ctx, eventFor(action), next, amenity, actor, false)
	} else {
		s.log(actor).WithError(err).Warn("event skipped: amenity lookup failed")
	}
	return next, nil
}

// Get returns one reservation visible to actor, with completion derived.
func (s *ReservationService) Get(ctx context.Context, actor model.Actor, id uint64) (model.Reservation, error) {
	r, err := s.Reservations.GetByID(ctx, id)
	if err != nil {
		return r, fmt.Errorf("load reservation %d: %w", id, err)
	}
	if !canView(actor, r) {
		return model.Reservation{}, repository.ErrForbidden
	}
	r.Status = s.Core.Lifecycle.Status(r)
	return r, nil
}

// ListMine returns the actor's own reservations.  With upcoming set only
// reservations that have not ended are returned.
func (s *ReservationService) ListMine(ctx context.Context, actor model.Actor, upcoming bool) ([]model.Reservation, error) {
	f := repository.ReservationFilter{UserID: actor.UserID}
	if upcoming {
		f.From = s.Core.Zone.Now(s.Core.Clock)
	}
	return s.list(ctx, f)
}

// ListAll is the administrator's moderation view.  Filtering by
// completed selects approved reservations whose end has passed.
func (s *ReservationService) ListAll(ctx context.Context, actor model.Actor, f repository.ReservationFilter) ([]model.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, repository.ErrForbidden
	}
	want := f.Status
	if want != "" && !want.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, want)
	}
	if want == model.StatusCompleted || want == model.StatusApproved {
		f.Status = model.StatusApproved
	}
	all, err := s.list(ctx, f)
	if err != nil || want == "" {
		return all, err
	}
	out := all[:0]
	for _, r := range all {
		if r.Status == want {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *ReservationService) list(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error) {
	rs, err := s.Reservations.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	now := s.Core.Zone.Now(s.Core.Clock)
	for i := range rs {
		rs[i].Status = booking.EffectiveStatus(rs[i], now)
	}
	return rs, nil
}

// dayReservations loads every reservation on the amenity touching the
// local calendar day of d.
func (s *ReservationService) dayReservations(ctx context.Context, amenityID uint64, d booking.Date) ([]model.Reservation, error) {
	rs, err := s.Reservations.List(ctx, repository.ReservationFilter{
		AmenityID: amenityID,
		From:      s.Core.Zone.At(d, 0),
		To:        s.Core.Zone.At(d, 24*60),
	})
	if err != nil {
		return nil, fmt.Errorf("list reservations for %s: %w", d, err)
	}
	return rs, nil
}

func (s *ReservationService) decide(ctx context.Context, amenity model.Amenity, reservationID, userID uint64, req BookingRequest) (booking.PolicyResult, error) {
	existing, err := s.dayReservations(ctx, amenity.ID, s.Core.Zone.DateOf(req.StartTime))
	if err != nil {
		return booking.PolicyResult{}, err
	}
	return s.Core.DecidePolicy(booking.PolicyCandidate{
		ReservationID: reservationID,
		AmenityID:     amenity.ID,
		UserID:        userID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	}, amenity, existing), nil
}

func (s *ReservationService) publish(ctx context.Context, typ queue.EventType, r model.Reservation, amenity model.Amenity, actor model.Actor, auto bool) {
	if s.Events == nil {
		return
	}
	ev := queue.NewReservationEvent(typ, r, amenity, actor, s.Core.Zone.Now(s.Core.Clock))
	ev.AutoApproval = auto
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.log(actor).WithError(err).WithField("event_type", typ).Warn("publish reservation event failed")
	}
}

func (s *ReservationService) log(actor model.Actor) logrus.FieldLogger {
	l := s.Log
	if l == nil {
		l = logrus.StandardLogger()
	}
	return l.WithFields(logrus.Fields{"actor_id": actor.UserID, "actor_role": actor.Role})
}

func candidate(amenity model.Amenity, req BookingRequest) booking.Candidate {
	return booking.Candidate{
		AmenityType:  amenity.Type,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		VisitorCount: req.SpecialRequests.VisitorCount,
	}
}

// cleanRequests drops details the amenity type has no use for.
func cleanRequests(amenity model.Amenity, sr model.SpecialRequests) model.SpecialRequests {
	sr.Notes = strings.TrimSpace(sr.Notes)
	if !amenity.Type.Policy().HasVisitorCount {
		sr.VisitorCount = nil
		sr.GrillUsage = false
	}
	return sr
}

func canView(actor model.Actor, r model.Reservation) bool {
	return actor.IsAdmin() || r.UserID == actor.UserID
}

func eventFor(a booking.Action) queue.EventType {
	switch a {
	case booking.ActionApprove:
		return queue.EventApproved
	case booking.ActionDeny:
		return queue.EventDenied
	}
	return queue.EventCancelled
}
