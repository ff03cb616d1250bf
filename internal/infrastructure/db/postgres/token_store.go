package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/useraccounts/accounts-api/internal/core/domain"
)

// TokenStore implements ports.TokenStore on the tokens table. The
// tokens_user_id_key constraint backs the one-token-per-user invariant.
type TokenStore struct {
	pool *pgxpool.Pool
}

func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

func (r *TokenStore) Create(ctx context.Context, token *domain.Token) error {
	const query = `
		INSERT INTO tokens (key, user_id, created_at)
		VALUES ($1, $2, $3)
	`
	if _, err := conn(ctx, r.pool).Exec(ctx, query, token.Key, token.UserID, token.CreatedAt); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenStore) FindByKey(ctx context.Context, key string) (*domain.Token, error) {
	const query = `
		SELECT key, user_id, created_at
		FROM tokens
		WHERE key = $1
	`
	var t domain.Token
	err := conn(ctx, r.pool).QueryRow(ctx, query, key).Scan(&t.Key, &t.UserID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func (r *TokenStore) DeleteByUser(ctx context.Context, userID string) (bool, error) {
	if !isUUID(userID) {
		return false, nil
	}
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM tokens WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("delete token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
