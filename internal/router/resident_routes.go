package router

import (
	"github.com/labstack/echo/v4"

	"github.com/1wflores/amenity-reservations/internal/handler"
	"github.com/1wflores/amenity-reservations/internal/middleware"
	"github.com/1wflores/amenity-reservations/internal/model"
)

// RegisterResident registers the booking endpoints under /v1.  Residents
// and administrators may use them; ownership is enforced by the services.
// cache wraps the amenity catalogue reads and may be nil.
func RegisterResident(e *echo.Echo, amenities *handler.AmenityHandler, reservations *handler.ReservationHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleResident, model.RoleAdmin),
	)
	var cached []echo.MiddlewareFunc
	if cache != nil {
		cached = append(cached, cache)
	}
	g.GET("/amenities", amenities.List, cached...)
	g.GET("/amenities/:id", amenities.Get, cached...)
	g.GET("/amenities/:id/availability", reservations.Availability)

	g.POST("/reservations", reservations.Create)
	g.GET("/my-reservations", reservations.ListMine)
	g.GET("/reservations/:id", reservations.Get)
	g.PATCH("/reservations/:id", reservations.Update)
	g.POST("/reservations/:id/cancel", reservations.Cancel)
}
