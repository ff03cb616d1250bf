package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/useraccounts/accounts-api/internal/core/ports"
)

// UserHandler serves the authenticated caller's own profile.
type UserHandler struct {
	accountService ports.AccountService
}

func NewUserHandler(accountService ports.AccountService) *UserHandler {
	return &UserHandler{accountService: accountService}
}

// Get returns the caller's profile.
//
// @Summary      Get own profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  profileResponse
// @Failure      401   {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profileResponse{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
}

// Update replaces the caller's name, email and password.
//
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "New profile"
// @Success      200   {object}  updateProfileResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /users [put]
func (h *UserHandler) Update(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.accountService.UpdateProfile(c.Request().Context(), user, ports.UpdateProfileInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updateProfileResponse{
		UserID:          res.User.ID,
		Email:           res.User.Email,
		Name:            res.User.Name,
		PasswordChanged: res.PasswordChanged,
	})
}

// Delete removes the caller's account and token.
//
// @Summary      Delete own account
// @Tags         users
// @Security     BearerAuth
// @Success      204
// @Failure      401   {object}  errorResponse
// @Router       /users [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	if err := h.accountService.DeleteUser(c.Request().Context(), user); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
