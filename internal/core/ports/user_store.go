package ports

import (
	"context"

	"github.com/useraccounts/accounts-api/internal/core/domain"
)

// UserStore persists user records. Implementations enforce email uniqueness
// and report violations as domain.ErrEmailTaken.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Update overwrites email, name, password hash and updated_at.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}
