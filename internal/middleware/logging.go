package middleware

import (
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/sirupsen/logrus"
)

// RequestID tags every request with a UUID in X-Request-Id.
func RequestID() echo.MiddlewareFunc {
    return echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString})
}

// RequestLogger writes one structured line per request.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogRemoteIP:  true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            entry := log.WithFields(logrus.Fields{
                "method":     v.Method,
                "uri":        v.URI,
                "status":     v.Status,
                "latency_ms": v.Latency.Milliseconds(),
                "request_id": v.RequestID,
                "remote_ip":  v.RemoteIP,
            })
            if a, ok := ActorFrom(c); ok {
                entry = entry.WithField("user_id", a.UserID)
            }
            switch {
            case v.Error != nil:
                entry.WithError(v.Error).Error("request failed")
            case v.Status >= 500:
                entry.Error("request")
            default:
                entry.Info("request")
            }
            return nil
        },
    })
}
