package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/useraccounts/accounts-api/internal/core/domain"
)

const userContextKey = "user"

// TokenResolver maps a bearer key to its owner.
type TokenResolver interface {
	ResolveToken(ctx context.Context, key string) (*domain.User, error)
}

// Auth resolves the bearer token and stores the owning user on the context.
// Requests without a resolvable token never reach next.
func Auth(resolver TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthorized(c, "authentication credentials were not provided")
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return unauthorized(c, "invalid authorization header")
			}

			user, err := resolver.ResolveToken(c.Request().Context(), parts[1])
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					return unauthorized(c, "invalid token")
				}
				return err
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// UserFrom returns the user stored by Auth.
func UserFrom(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(userContextKey).(*domain.User)
	return user, ok && user != nil
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}
