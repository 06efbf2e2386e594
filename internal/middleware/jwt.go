package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/1wflores/amenity-reservations/internal/utils"
)

// Context keys set by JWTAuth.
const (
    keyUserID = "user_id"
    keyRole   = "role"
    keyActor  = "actor"
)

// JWTAuth validates a Bearer access token and stores the caller in the
// request context: "user_id" (uint64), "role" (string) and "actor"
// (model.Actor).  Requests without a valid token get 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            actor, err := claims.Actor()
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            c.Set(keyUserID, actor.UserID)
            c.Set(keyRole, string(actor.Role))
            c.Set(keyActor, actor)
            return next(c)
        }
    }
}
