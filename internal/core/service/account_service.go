package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/useraccounts/accounts-api/internal/core/domain"
	"github.com/useraccounts/accounts-api/internal/core/ports"
	"github.com/useraccounts/accounts-api/internal/pkg/metrics"
)

// TokenMinter is the slice of AuthService that registration needs.
type TokenMinter interface {
	MintToken(ctx context.Context, user *domain.User) (*domain.Token, error)
}

// AccountService implements registration, profile updates and deletion.
type AccountService struct {
	users  ports.UserStore
	tokens ports.TokenStore
	tx     ports.Transactor
	minter TokenMinter
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewAccountService(
	users ports.UserStore,
	tokens ports.TokenStore,
	tx ports.Transactor,
	minter TokenMinter,
	hasher ports.PasswordHasher,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		users:  users,
		tokens: tokens,
		tx:     tx,
		minter: minter,
		hasher: hasher,
		log:    log,
	}
}

// Register creates the user and its first token in one transaction. A failed
// mint leaves no user behind.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, *domain.Token, error) {
	email := normalizeEmail(in.Email)
	if err := validateCredentials(email, in.Password); err != nil {
		return nil, nil, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         in.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var token *domain.Token
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.FindByEmail(ctx, email); err == nil {
			return domain.ErrEmailTaken
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return fmt.Errorf("lookup email: %w", err)
		}

		if err := s.users.Create(ctx, user); err != nil {
			return err
		}

		var err error
		token, err = s.minter.MintToken(ctx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			metrics.UsersRegisteredTotal.WithLabelValues("email_taken").Inc()
			return nil, nil, domain.ErrEmailTaken
		}
		metrics.UsersRegisteredTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Msg("failed to register user")
		return nil, nil, fmt.Errorf("register: %w", err)
	}

	metrics.UsersRegisteredTotal.WithLabelValues("created").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, token, nil
}

// UpdateProfile replaces email and name and rehashes the password only when it
// differs from the stored one. Live tokens are kept.
func (s *AccountService) UpdateProfile(ctx context.Context, user *domain.User, in ports.UpdateProfileInput) (*ports.UpdateProfileResult, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	email := normalizeEmail(in.Email)
	if err := validateCredentials(email, in.Password); err != nil {
		return nil, err
	}

	if email != user.Email {
		existing, err := s.users.FindByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, domain.ErrEmailTaken
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return nil, fmt.Errorf("update profile: lookup email: %w", err)
		}
	}

	updated := *user
	updated.Email = email
	updated.Name = in.Name

	passwordChanged := false
	if !s.hasher.Compare(user.PasswordHash, in.Password) {
		hash, err := s.hashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		updated.PasswordHash = hash
		passwordChanged = true
	}
	updated.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, &updated); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	metrics.ProfileUpdatesTotal.WithLabelValues(strconv.FormatBool(passwordChanged)).Inc()
	s.log.Info().
		Str("user_id", updated.ID).
		Bool("email_changed", email != user.Email).
		Bool("password_changed", passwordChanged).
		Msg("profile updated")

	return &ports.UpdateProfileResult{User: &updated, PasswordChanged: passwordChanged}, nil
}

// DeleteUser removes the user and its token together.
func (s *AccountService) DeleteUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrUnauthenticated
	}

	var revoked bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if revoked, err = s.tokens.DeleteByUser(ctx, user.ID); err != nil {
			return fmt.Errorf("delete token: %w", err)
		}
		return s.users.Delete(ctx, user.ID)
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if revoked {
		metrics.TokensRevokedTotal.WithLabelValues("user_deleted").Inc()
	}
	metrics.UsersDeletedTotal.Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user deleted")
	return nil
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidation, MaxPasswordBytes)
	}
	return nil
}

func (s *AccountService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is too long", domain.ErrValidation)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}
