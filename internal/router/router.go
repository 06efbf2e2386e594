package router // package router defines how HTTP routes are registered for the API

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/1wflores/amenity-reservations/internal/handler"
	"github.com/1wflores/amenity-reservations/internal/middleware"
	"github.com/1wflores/amenity-reservations/internal/model"
)

// RegisterRoutes registers the unauthenticated probes.  /readyz runs the
// given dependency checks.
func RegisterRoutes(e *echo.Echo, ready map[string]func(context.Context) error) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(ready))
}

// RegisterAuth registers the authentication routes.  Session-less
// operations live under /v1/auth; /v1/me needs a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a refresh token in the body or a bearer
	// header, so it stays outside the JWT group.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleResident, model.RoleAdmin))
	auth.GET("/me", a.Me)
}
