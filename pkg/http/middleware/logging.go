package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	xlogger "StockPredict/pkg/logger"
)

// RequestLogging logs HTTP requests at debug level, 5xx responses excluded
// (Metrics reports those).
func RequestLogging(l *xlogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			l.Debug("http request",
				xlogger.String("method", req.Method),
				xlogger.String("uri", req.RequestURI),
				xlogger.String("remote", c.RealIP()),
				xlogger.Int("status", res.Status),
				xlogger.Int64("bytes", res.Size),
				xlogger.Duration("latency_ms", time.Since(start)),
			)
			return nil
		}
	}
}
