// Package auth provides bearer-token handling for the deduplication
// services. The platform gateway authenticates callers; these services
// forward the token on every outbound call and read its claims for
// logging only.
package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	// ContextAuthHeader is the raw Authorization header stored in the
	// request context for passthrough.
	ContextAuthHeader = "auth_header"
	// ContextSubject is the token subject, when one could be read.
	ContextSubject = "auth_subject"
)

// RequireBearer rejects requests without a bearer token and stores the raw
// header and the token's subject claim in the request context. The token
// signature is not verified here: verification happens at the gateway, and
// the claims feed logging only.
func RequireBearer() echo.MiddlewareFunc {
	parser := jwt.NewParser()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			c.Set(ContextAuthHeader, header)

			raw := strings.TrimPrefix(header, "Bearer ")
			claims := jwt.MapClaims{}
			if _, _, err := parser.ParseUnverified(raw, claims); err == nil {
				if sub, err := claims.GetSubject(); err == nil {
					c.Set(ContextSubject, sub)
				}
			}

			return next(c)
		}
	}
}
