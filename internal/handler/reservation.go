package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/1wflores/amenity-reservations/internal/booking"
	"github.com/1wflores/amenity-reservations/internal/model"
	"github.com/1wflores/amenity-reservations/internal/repository"
	"github.com/1wflores/amenity-reservations/internal/service"
)

// Reservations is the booking workflow the handlers drive.
// *service.ReservationService implements it.
type Reservations interface {
	Availability(ctx context.Context, actor model.Actor, q service.AvailabilityQuery) ([]model.Slot, error)
	Create(ctx context.Context, actor model.Actor, req service.BookingRequest) (service.BookingResult, error)
	Update(ctx context.Context, actor model.Actor, id uint64, req service.BookingRequest) (service.BookingResult, error)
	Transition(ctx context.Context, actor model.Actor, id uint64, action booking.Action, reason string) (model.Reservation, error)
	Get(ctx context.Context, actor model.Actor, id uint64) (model.Reservation, error)
	ListMine(ctx context.Context, actor model.Actor, upcoming bool) ([]model.Reservation, error)
	ListAll(ctx context.Context, actor model.Actor, f repository.ReservationFilter) ([]model.Reservation, error)
}

// ReservationHandler serves the resident booking endpoints and the
// administrator moderation endpoints.
type ReservationHandler struct {
	Svc  Reservations
	Zone booking.Zone // resolves date query parameters to instants
	Log  logrus.FieldLogger
}

func NewReservationHandler(svc Reservations, zone booking.Zone, log logrus.FieldLogger) *ReservationHandler {
	return &ReservationHandler{Svc: svc, Zone: zone, Log: log}
}

var errInvalidDuration = errors.New("duration must be a positive number of minutes or a duration such as 1h30m")

// ----- DTOs -----

type specialRequestsReq struct {
	VisitorCount *int   `json:"visitor_count"`
	Notes        string `json:"notes" validate:"max=500"`
	GrillUsage   bool   `json:"grill_usage"`
}

type reservationReq struct {
	AmenityID       uint64             `json:"amenity_id" validate:"required"`
	StartTime       time.Time          `json:"start_time" validate:"required"`
	EndTime         time.Time          `json:"end_time" validate:"required"`
	SpecialRequests specialRequestsReq `json:"special_requests"`
}

// editReq is the PATCH body.  The amenity cannot change on edit.
type editReq struct {
	StartTime       time.Time          `json:"start_time" validate:"required"`
	EndTime         time.Time          `json:"end_time" validate:"required"`
	SpecialRequests specialRequestsReq `json:"special_requests"`
}

type denyReq struct {
	Reason string `json:"reason"`
}

type confirmReq struct {
	Confirm bool `json:"confirm"`
}

func (s specialRequestsReq) model() model.SpecialRequests {
	return model.SpecialRequests{VisitorCount: s.VisitorCount, Notes: s.Notes, GrillUsage: s.GrillUsage}
}

// Availability handles GET /v1/amenities/:id/availability.
//
// Query: date=YYYY-MM-DD (required), duration in minutes or a Go
// duration such as 1h30m (default 60), editing=<reservation id>.
func (h *ReservationHandler) Availability(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	amenityID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amenity id"})
	}
	date, err := booking.ParseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	dur, err := parseDuration(c.QueryParam("duration"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var editing uint64
	if raw := c.QueryParam("editing"); raw != "" {
		editing, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid editing id"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	slots, err := h.Svc.Availability(ctx, actor, service.AvailabilityQuery{
		AmenityID: amenityID,
		Date:      date,
		Duration:  dur,
		EditingID: editing,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"amenity_id":       amenityID,
		"date":             date.String(),
		"duration_minutes": int(dur / time.Minute),
		"slots":            slots,
	})
}

// Create handles POST /v1/reservations.  The response is 201 with the
// stored reservation and the policy decision that set its status.
func (h *ReservationHandler) Create(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req reservationReq
	if msg, ok := bindAndValidate(c, &req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Svc.Create(ctx, actor, service.BookingRequest{
		AmenityID:       req.AmenityID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		SpecialRequests: req.SpecialRequests.model(),
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Update handles PATCH /v1/reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req editReq
	if msg, ok := bindAndValidate(c, &req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Svc.Update(ctx, actor, id, service.BookingRequest{
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		SpecialRequests: req.SpecialRequests.model(),
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	r, err := h.Svc.Get(ctx, actor, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, r)
}

// ListMine handles GET /v1/my-reservations[?upcoming=true].
func (h *ReservationHandler) ListMine(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	upcoming, _ := strconv.ParseBool(c.QueryParam("upcoming"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	items, err := h.Svc.ListMine(ctx, actor, upcoming)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Cancel handles POST /v1/reservations/:id/cancel for the owner.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	return h.transition(c, booking.ActionCancel, "")
}

// ListAll handles GET /v1/admin/reservations?status=&amenity_id=&from=&to=.
// from and to are YYYY-MM-DD local dates; to is inclusive.
func (h *ReservationHandler) ListAll(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	f := repository.ReservationFilter{
		Status: model.Status(strings.ToLower(strings.TrimSpace(c.QueryParam("status")))),
	}
	if raw := c.QueryParam("amenity_id"); raw != "" {
		if f.AmenityID, err = strconv.ParseUint(raw, 10, 64); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amenity_id"})
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if f.Limit, err = strconv.Atoi(raw); err != nil || f.Limit < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
	}
	if raw := c.QueryParam("from"); raw != "" {
		d, err := booking.ParseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
		}
		f.From = h.Zone.At(d, 0)
	}
	if raw := c.QueryParam("to"); raw != "" {
		d, err := booking.ParseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
		}
		f.To = h.Zone.At(d, 24*60)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	items, err := h.Svc.ListAll(ctx, actor, f)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Approve handles POST /v1/admin/reservations/:id/approve.
func (h *ReservationHandler) Approve(c echo.Context) error {
	return h.transition(c, booking.ActionApprove, "")
}

// Deny handles POST /v1/admin/reservations/:id/deny with body {"reason": "..."}.
func (h *ReservationHandler) Deny(c echo.Context) error {
	var req denyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	return h.transition(c, booking.ActionDeny, req.Reason)
}

// AdminCancel handles POST /v1/admin/reservations/:id/cancel.  The body
// must carry {"confirm": true}.
func (h *ReservationHandler) AdminCancel(c echo.Context) error {
	var req confirmReq
	if err := c.Bind(&req); err != nil || !req.Confirm {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "confirm must be true"})
	}
	return h.transition(c, booking.ActionCancel, "")
}

func (h *ReservationHandler) transition(c echo.Context, action booking.Action, reason string) error {
	actor, err := getActor(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	r, err := h.Svc.Transition(ctx, actor, id, action, reason)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, r)
}

// parseDuration accepts whole minutes ("90") or a Go duration ("1h30m").
// Empty means one hour.
func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Hour, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n <= 0 {
			return 0, errInvalidDuration
		}
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errInvalidDuration
	}
	return d, nil
}
