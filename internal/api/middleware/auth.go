package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/task-manager/internal/api/handler"
	"github.com/99minutos/task-manager/internal/core/domain"
)

// AccessVerifier checks access tokens. Refresh tokens must be rejected.
type AccessVerifier interface {
	VerifyAccess(token string) (*domain.TokenPayload, error)
}

// Auth validates the bearer access token and injects its claims into the
// echo context under the handler.Ctx* keys.
func Auth(verifier AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			payload, err := verifier.VerifyAccess(strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if !payload.Complete() {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(handler.CtxUserID, payload.Subject)
			c.Set(handler.CtxEmail, payload.Email)
			c.Set(handler.CtxRole, string(payload.Role))

			return next(c)
		}
	}
}
