package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/1wflores/amenity-reservations/internal/model"
)

// RequireRole rejects with 403 any caller whose role, as stored by
// JWTAuth, is not one of roles.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
    allowed := make(map[model.Role]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            actor, ok := ActorFrom(c)
            if !ok || !allowed[actor.Role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
