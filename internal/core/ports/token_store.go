package ports

import (
	"context"

	"github.com/useraccounts/accounts-api/internal/core/domain"
)

// TokenStore persists bearer tokens. At most one token may exist per user;
// callers delete the previous token before creating a new one.
type TokenStore interface {
	Create(ctx context.Context, token *domain.Token) error
	FindByKey(ctx context.Context, key string) (*domain.Token, error)
	// DeleteByUser removes the user's token, if any. Deleting nothing is not an error.
	DeleteByUser(ctx context.Context, userID string) (bool, error)
}
