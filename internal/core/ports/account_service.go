package ports

import (
	"context"

	"github.com/useraccounts/accounts-api/internal/core/domain"
)

// RegisterInput is the DTO passed from the transport layer to AccountService.Register.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// UpdateProfileInput carries the full replacement profile. Password is the
// plaintext the caller wants to hold after the update; resubmitting the
// current password leaves the stored hash untouched.
type UpdateProfileInput struct {
	Email    string
	Name     string
	Password string
}

// UpdateProfileResult is returned by AccountService.UpdateProfile.
type UpdateProfileResult struct {
	User            *domain.User
	PasswordChanged bool
}

// AccountService orchestrates registration, profile updates and deletion.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, *domain.Token, error)
	UpdateProfile(ctx context.Context, user *domain.User, in UpdateProfileInput) (*UpdateProfileResult, error)
	DeleteUser(ctx context.Context, user *domain.User) error
}
