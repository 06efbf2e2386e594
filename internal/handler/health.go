package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Health is the liveness probe used by load balancers.  It returns a
// plain "ok" with 200.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready reports 503 until every dependency check passes.  Checks are run
// with a short shared timeout; the first failure names the dependency.
func Ready(checks map[string]func(context.Context) error) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        for name, check := range checks {
            if check == nil {
                continue
            }
            if err := check(ctx); err != nil {
                return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": name + " unavailable"})
            }
        }
        return c.String(http.StatusOK, "ready")
    }
}
