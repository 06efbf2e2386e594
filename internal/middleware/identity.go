package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/1wflores/amenity-reservations/internal/model"
)

// ActorFrom returns the authenticated principal stored by JWTAuth.
func ActorFrom(c echo.Context) (model.Actor, bool) {
    a, ok := c.Get(keyActor).(model.Actor)
    return a, ok && a.UserID != 0
}

// identity names the caller for rate limit and cache keys: the user ID
// when authenticated, "anon" otherwise.
func identity(c echo.Context) string {
    if a, ok := ActorFrom(c); ok {
        return strconv.FormatUint(a.UserID, 10)
    }
    return "anon"
}

// roleOf returns the caller's role or "guest".
func roleOf(c echo.Context) string {
    if a, ok := ActorFrom(c); ok {
        return string(a.Role)
    }
    return "guest"
}
