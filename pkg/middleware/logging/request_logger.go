package loggingmw

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

// RequestLogger attaches a request-scoped logger to the request context and
// writes one line per request once the handler returns. Errors are rendered
// here so the logged status is the one the client sees.
func RequestLogger(base *slog.Logger, skip ...string) echo.MiddlewareFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", req.Method,
				"route", c.Path(),
				"remote_ip", c.RealIP(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			if _, ok := skipped[c.Path()]; ok && err == nil {
				return nil
			}

			status := c.Response().Status
			attrs := []any{
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if u, ok := c.Get("username").(string); ok && u != "" {
				attrs = append(attrs, "user", u)
			}

			switch {
			case status >= 500:
				if err != nil {
					attrs = append(attrs, "error", err.Error())
				}
				l.Error("request", attrs...)
			case status >= 400:
				l.Warn("request", attrs...)
			default:
				l.Info("request", append(attrs, "bytes", c.Response().Size)...)
			}
			return nil
		}
	}
}
