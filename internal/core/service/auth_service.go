package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/useraccounts/accounts-api/internal/core/domain"
	"github.com/useraccounts/accounts-api/internal/core/ports"
	"github.com/useraccounts/accounts-api/internal/pkg/metrics"
)

// tokenKeyBytes yields a 40 character hex key.
const tokenKeyBytes = 20

// AuthService mints, resolves and revokes bearer tokens and checks credentials.
type AuthService struct {
	users     ports.UserStore
	tokens    ports.TokenStore
	tx        ports.Transactor
	locker    ports.MintLocker
	hasher    ports.PasswordHasher
	log       zerolog.Logger
	dummyHash string
}

func NewAuthService(
	users ports.UserStore,
	tokens ports.TokenStore,
	tx ports.Transactor,
	locker ports.MintLocker,
	hasher ports.PasswordHasher,
	log zerolog.Logger,
) *AuthService {
	s := &AuthService{
		users:  users,
		tokens: tokens,
		tx:     tx,
		locker: locker,
		hasher: hasher,
		log:    log,
	}
	// Unknown emails are compared against this hash so that both failure
	// paths of Authenticate do the same bcrypt work.
	if h, err := hasher.Hash("unused-password-placeholder"); err == nil {
		s.dummyHash = h
	}
	return s
}

// MintToken replaces the user's live token with a fresh one.
func (s *AuthService) MintToken(ctx context.Context, user *domain.User) (*domain.Token, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUserNotFound
	}

	waitStart := time.Now()
	release, err := s.locker.Acquire(ctx, user.ID)
	metrics.MintLockWaitDuration.Observe(time.Since(waitStart).Seconds())
	if err != nil {
		return nil, fmt.Errorf("mint token: acquire lock: %w", err)
	}
	defer release()

	key, err := generateTokenKey()
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}
	token := &domain.Token{
		Key:       key,
		UserID:    user.ID,
		CreatedAt: time.Now().UTC(),
	}

	var replaced bool
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.FindByID(ctx, user.ID); err != nil {
			return err
		}
		var err error
		if replaced, err = s.tokens.DeleteByUser(ctx, user.ID); err != nil {
			return fmt.Errorf("delete previous token: %w", err)
		}
		if err := s.tokens.Create(ctx, token); err != nil {
			return fmt.Errorf("create token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}

	metrics.TokensMintedTotal.WithLabelValues(strconv.FormatBool(replaced)).Inc()
	s.log.Info().Str("user_id", user.ID).Bool("replaced", replaced).Msg("token minted")
	return token, nil
}

// Authenticate returns the user owning email when password matches. Unknown
// emails and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Compare(s.dummyHash, password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// ResolveToken maps a bearer key back to its owner.
func (s *AuthService) ResolveToken(ctx context.Context, key string) (*domain.User, error) {
	if key == "" {
		metrics.TokenResolutionsTotal.WithLabelValues("unauthenticated").Inc()
		return nil, domain.ErrUnauthenticated
	}

	token, err := s.tokens.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			metrics.TokenResolutionsTotal.WithLabelValues("unauthenticated").Inc()
			return nil, domain.ErrUnauthenticated
		}
		metrics.TokenResolutionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolve token: %w", err)
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.TokenResolutionsTotal.WithLabelValues("unauthenticated").Inc()
			return nil, domain.ErrUnauthenticated
		}
		metrics.TokenResolutionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolve token owner: %w", err)
	}

	metrics.TokenResolutionsTotal.WithLabelValues("ok").Inc()
	return user, nil
}

// RevokeToken deletes the user's live token. Revoking when none exists is a no-op.
func (s *AuthService) RevokeToken(ctx context.Context, user *domain.User) error {
	if user == nil {
		return nil
	}
	deleted, err := s.tokens.DeleteByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if deleted {
		metrics.TokensRevokedTotal.WithLabelValues("logout").Inc()
		s.log.Info().Str("user_id", user.ID).Msg("token revoked")
	}
	return nil
}

// Login authenticates the credentials and mints a token for the user that
// Authenticate returned.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Token, *domain.User, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			s.log.Debug().Msg("login rejected")
		} else {
			metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		}
		return nil, nil, err
	}

	token, err := s.MintToken(ctx, user)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return token, user, nil
}

// normalizeEmail trims surrounding whitespace. Register, UpdateProfile and
// Authenticate all store and look up emails in this form.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// generateTokenKey returns a random 40 character hex string.
func generateTokenKey() (string, error) {
	b := make([]byte, tokenKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
