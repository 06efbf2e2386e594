package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1wflores/amenity-reservations/internal/booking"
	"github.com/1wflores/amenity-reservations/internal/model"
	"github.com/1wflores/amenity-reservations/internal/repository"
)

// AmenityService manages the amenity catalogue.
type AmenityService struct {
	Amenities AmenityStore
	Log       logrus.FieldLogger
}

func NewAmenityService(amenities AmenityStore, log logrus.FieldLogger) *AmenityService {
	return &AmenityService{Amenities: amenities, Log: log}
}

// List returns the catalogue.  Residents only see active amenities.
func (s *AmenityService) List(ctx context.Context, actor model.Actor) ([]model.Amenity, error) {
	as, err := s.Amenities.List(ctx, !actor.IsAdmin())
	if err != nil {
		return nil, fmt.Errorf("list amenities: %w", err)
	}
	return as, nil
}

// Get returns one amenity.  A deactivated amenity is reported as not
// found to residents.
func (s *AmenityService) Get(ctx context.Context, actor model.Actor, id uint64) (model.Amenity, error) {
	a, err := s.Amenities.GetByID(ctx, id)
	if err != nil {
		return a, fmt.Errorf("load amenity %d: %w", id, err)
	}
	if !a.IsActive && !actor.IsAdmin() {
		return model.Amenity{}, fmt.Errorf("amenity %d: %w", id, repository.ErrNotFound)
	}
	return a, nil
}

// Create validates and stores a new amenity.
func (s *AmenityService) Create(ctx context.Context, actor model.Actor, a model.Amenity) (model.Amenity, error) {
	if !actor.IsAdmin() {
		return model.Amenity{}, repository.ErrForbidden
	}
	if err := NormalizeAmenity(&a); err != nil {
		return model.Amenity{}, err
	}
	if err := s.Amenities.Create(ctx, &a); err != nil {
		return model.Amenity{}, fmt.Errorf("create amenity: %w", err)
	}
	s.logger().WithFields(logrus.Fields{"amenity_id": a.ID, "type": a.Type, "actor_id": actor.UserID}).Info("amenity created")
	return a, nil
}

// Update replaces the amenity identified by id.
func (s *AmenityService) Update(ctx context.Context, actor model.Actor, id uint64, a model.Amenity) (model.Amenity, error) {
	if !actor.IsAdmin() {
		return model.Amenity{}, repository.ErrForbidden
	}
	a.ID = id
	if err := NormalizeAmenity(&a); err != nil {
		return model.Amenity{}, err
	}
	if err := s.Amenities.Update(ctx, &a); err != nil {
		return model.Amenity{}, fmt.Errorf("update amenity %d: %w", id, err)
	}
	s.logger().WithFields(logrus.Fields{"amenity_id": a.ID, "active": a.IsActive, "actor_id": actor.UserID}).Info("amenity updated")
	return a, nil
}

// NormalizeAmenity trims and checks an amenity definition: a known type,
// positive capacity, parseable hours that form a non-empty window, valid
// weekdays, and non-negative approval rules.
func NormalizeAmenity(a *model.Amenity) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	typ, err := model.ParseAmenityType(string(a.Type))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	a.Type = typ
	if a.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", ErrInvalidInput)
	}
	open, err := booking.ParseTimeOfDay(a.OperatingHours.Start)
	if err != nil {
		return fmt.Errorf("%w: operating hours start: %v", ErrInvalidInput, err)
	}
	closing, err := booking.ParseTimeOfDay(a.OperatingHours.End)
	if err != nil {
		return fmt.Errorf("%w: operating hours end: %v", ErrInvalidInput, err)
	}
	if closing <= open {
		return fmt.Errorf("%w: operating hours must close after they open", ErrInvalidInput)
	}
	for _, d := range a.OperatingHours.Days {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: invalid weekday %d", ErrInvalidInput, d)
		}
	}
	rules := a.AutoApprovalRules
	if rules.MaxDurationMinutes < 0 || rules.MaxReservationsPerDay < 0 {
		return fmt.Errorf("%w: auto-approval rules must not be negative", ErrInvalidInput)
	}
	if time.Duration(rules.MaxDurationMinutes)*time.Minute > model.MaxReservationDuration {
		return fmt.Errorf("%w: auto-approval duration exceeds the %s limit", ErrInvalidInput, model.MaxReservationDuration)
	}
	if !a.SpecialRequirements.RequiresDeposit {
		a.SpecialRequirements.DepositAmountCents = 0
	}
	return nil
}

func (s *AmenityService) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
