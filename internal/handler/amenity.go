package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/1wflores/amenity-reservations/internal/model"
	"github.com/1wflores/amenity-reservations/internal/repository"
)

// Amenities is the catalogue the handlers expose.  *service.AmenityService
// implements it.
type Amenities interface {
	List(ctx context.Context, actor model.Actor) ([]model.Amenity, error)
	Get(ctx context.Context, actor model.Actor, id uint64) (model.Amenity, error)
	Create(ctx context.Context, actor model.Actor, a model.Amenity) (model.Amenity, error)
	Update(ctx context.Context, actor model.Actor, id uint64, a model.Amenity) (model.Amenity, error)
}

// AmenityHandler serves catalogue reads and administrator writes.
type AmenityHandler struct {
	Svc Amenities
	// Purge drops cached catalogue responses after a write.  Optional.
	Purge func(ctx context.Context) error
	Log   logrus.FieldLogger
}

func NewAmenityHandler(svc Amenities, purge func(context.Context) error, log logrus.FieldLogger) *AmenityHandler {
	return &AmenityHandler{Svc: svc, Purge: purge, Log: log}
}

type hoursReq struct {
	Start string         `json:"start" validate:"required,hhmm"`
	End   string         `json:"end" validate:"required,hhmm"`
	Days  []time.Weekday `json:"days" validate:"required,min=1,dive,min=0,max=6"`
}

type rulesReq struct {
	MaxDurationMinutes    int `json:"max_duration_minutes" validate:"min=0,max=240"`
	MaxReservationsPerDay int `json:"max_reservations_per_day" validate:"min=0"`
}

type amenityReq struct {
	Name                string                    `json:"name" validate:"required,max=100"`
	Type                string                    `json:"type" validate:"required"`
	Capacity            int                       `json:"capacity" validate:"min=1"`
	OperatingHours      hoursReq                  `json:"operating_hours"`
	AutoApprovalRules   rulesReq                  `json:"auto_approval_rules"`
	SpecialRequirements model.SpecialRequirements `json:"special_requirements"`
	IsActive            *bool                     `json:"is_active"`
}

func (r amenityReq) model() model.Amenity {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return model.Amenity{
		Name:     r.Name,
		Type:     model.AmenityType(r.Type),
		Capacity: r.Capacity,
		OperatingHours: model.OperatingHours{
			Start: r.OperatingHours.Start,
			End:   r.OperatingHours.End,
			Days:  r.OperatingHours.Days,
		},
		AutoApprovalRules: model.AutoApprovalRules{
			MaxDurationMinutes:    r.AutoApprovalRules.MaxDurationMinutes,
			MaxReservationsPerDay: r.AutoApprovalRules.MaxReservationsPerDay,
		},
		SpecialRequirements: r.SpecialRequirements,
		IsActive:            active,
	}
}

// List handles GET /v1/amenities.
func (h *AmenityHandler) List(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	items, err := h.Svc.List(ctx, actor)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/amenities/:id.
func (h *AmenityHandler) Get(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amenity id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	a, err := h.Svc.Get(ctx, actor, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, a)
}

// Create handles POST /v1/admin/amenities.
func (h *AmenityHandler) Create(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req amenityReq
	if msg, ok := bindAndValidate(c, &req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	a, err := h.Svc.Create(ctx, actor, req.model())
	if err != nil {
		return h.writeFailed(c, err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, a)
}

// Update handles PUT /v1/admin/amenities/:id.  The body replaces the
// whole definition; set is_active to false to deactivate.
func (h *AmenityHandler) Update(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amenity id"})
	}
	var req amenityReq
	if msg, ok := bindAndValidate(c, &req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	a, err := h.Svc.Update(ctx, actor, id, req.model())
	if err != nil {
		return h.writeFailed(c, err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, a)
}

func (h *AmenityHandler) writeFailed(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "amenity name already exists"})
	}
	return respondError(c, h.Log, err)
}

func (h *AmenityHandler) purge(ctx context.Context) {
	if h.Purge == nil {
		return
	}
	if err := h.Purge(ctx); err != nil && h.Log != nil {
		h.Log.WithError(err).Warn("amenity cache purge failed")
	}
}
