package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/1wflores/amenity-reservations/internal/booking"
	"github.com/1wflores/amenity-reservations/internal/middleware"
	"github.com/1wflores/amenity-reservations/internal/model"
	"github.com/1wflores/amenity-reservations/internal/repository"
	"github.com/1wflores/amenity-reservations/internal/service"
)

// requestTimeout bounds the store and broker work done for one request.
const requestTimeout = 5 * time.Second

// errSlotTaken is shown when the store rejects an overlapping booking.
const errSlotTaken = "slot no longer available, pick another slot"

// getActor returns the authenticated caller.  The JWT middleware always
// runs first on the routes that use it, so a miss means a wiring bug and
// is reported as 401.
func getActor(c echo.Context) (model.Actor, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return model.Actor{}, echo.ErrUnauthorized
	}
	return a, nil
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// respondError maps domain and store errors onto HTTP responses:
//
//	*booking.RuleError              422 {error, kind, message}
//	*booking.TransitionError        409, 422 (missing reason) or 403
//	repository.ErrConflict          409
//	repository.ErrNotFound          404
//	repository.ErrForbidden         403
//	service.ErrInvalidInput         400
//
// Anything else is logged and reported as 500.
func respondError(c echo.Context, log logrus.FieldLogger, err error) error {
	var rule *booking.RuleError
	var tr *booking.TransitionError
	switch {
	case errors.As(err, &rule):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":   "booking rule violated",
			"kind":    rule.Kind,
			"message": rule.Message,
		})
	case errors.As(err, &tr):
		status := http.StatusConflict
		switch tr.Kind {
		case booking.KindMissingDenialReason:
			status = http.StatusUnprocessableEntity
		case booking.KindForbidden:
			status = http.StatusForbidden
		}
		return c.JSON(status, echo.Map{"error": tr.Error(), "kind": tr.Kind})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": errSlotTaken})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, echo.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if log != nil {
		log.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
