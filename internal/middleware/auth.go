package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tajweer/marketplace/internal/models"
	"github.com/tajweer/marketplace/internal/token"
)

const userContextKey = "user"

// RequireUser resolves the Authorization bearer token into a user record
// and stores it on the echo context. Requests without a valid token get 401.
func RequireUser(tokens *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			user, err := tokens.Resolve(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, token.ErrInvalid.Error())
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user resolved by RequireUser, or nil on routes
// that never passed through it.
func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}
