// ABOUTME: Echo middleware shared by the web UI and the record store server
// ABOUTME: Request logging with request IDs and request counters
package middleware

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealboard/metrics"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestID makes sure every request and response carries an X-Request-ID.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.New().String()
				c.Request().Header.Set(echo.HeaderXRequestID, id)
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// Logger writes one structured line per request and counts it under server.
func Logger(logger *zap.Logger, server string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()
			res := c.Response()
			start := time.Now()
			if err = next(c); err != nil {
				c.Error(err)
			}
			stop := time.Now()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			metrics.HTTPRequestsTotal.WithLabelValues(server, req.Method, strconv.Itoa(res.Status)).Inc()

			logger.Info("Request",
				zap.String("request_id", id),
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.String("route", c.Path()),
				zap.String("remote_ip", c.RealIP()),
				zap.String("user_agent", req.UserAgent()),
				zap.Duration("response_time", stop.Sub(start)),
				zap.Int64("response_size", res.Size),
			)

			return nil
		}
	}
}
