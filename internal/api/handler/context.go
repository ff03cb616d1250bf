package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/useraccounts/accounts-api/internal/api/middleware"
	"github.com/useraccounts/accounts-api/internal/core/domain"
)

// ctxUser returns the identity the Auth middleware resolved for this request.
// A missing identity means the route was mounted without the middleware;
// reject with 401 rather than run handler logic anonymously.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
	}
	return user, nil
}

// bindAndValidate decodes the request body into req and runs struct
// validation. Both failures are 400s and happen before any store access.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
