package ports

import (
	"context"

	"github.com/useraccounts/accounts-api/internal/core/domain"
)

type AuthService interface {
	MintToken(ctx context.Context, user *domain.User) (*domain.Token, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	ResolveToken(ctx context.Context, key string) (*domain.User, error)
	RevokeToken(ctx context.Context, user *domain.User) error
	Login(ctx context.Context, email, password string) (*domain.Token, *domain.User, error)
}
