package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/arena-hq/arena-engine/internal/appcontext"
)

const (
	// HeaderActorID is the header key for the acting buyer/vendor user id.
	HeaderActorID = "X-Actor-ID"
)

// Context seeds the request context with the identifiers the engine logs and
// audits against.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			actorID := req.Header.Get(HeaderActorID)

			ctx := req.Context()
			ctx = appcontext.SetRequestID(ctx, requestID)
			ctx = appcontext.SetMethod(ctx, req.Method)
			ctx = appcontext.SetRoute(ctx, req.URL.Path)
			ctx = appcontext.SetActorID(ctx, actorID)

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
