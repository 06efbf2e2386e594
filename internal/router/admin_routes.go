package router

import (
	"github.com/labstack/echo/v4"

	"github.com/1wflores/amenity-reservations/internal/handler"
	"github.com/1wflores/amenity-reservations/internal/middleware"
	"github.com/1wflores/amenity-reservations/internal/model"
)

// RegisterAdmin registers the administration endpoints under /v1/admin.
// All routes require a valid JWT with the ADMIN role.
func RegisterAdmin(e *echo.Echo, amenities *handler.AmenityHandler, reservations *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.POST("/amenities", amenities.Create)
	g.PUT("/amenities/:id", amenities.Update)

	g.GET("/reservations", reservations.ListAll)
	g.POST("/reservations/:id/approve", reservations.Approve)
	g.POST("/reservations/:id/deny", reservations.Deny)
	g.POST("/reservations/:id/cancel", reservations.AdminCancel)
}
