package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/useraccounts/accounts-api/internal/core/domain"
)

func zerologNop() zerolog.Logger { return zerolog.Nop() }

func TestAuthService_MintToken_Success(t *testing.T) {
	f := newFixture()
	user := f.seedUser("u1", "alice@example.com", "alice", "pass123")

	token, err := f.auth.MintToken(context.Background(), user)
	if err != nil {
		t.Fatalf("MintToken returned error: %v", err)
	}
	if len(token.Key) != 40 {
		t.Fatalf("expected 40 char key, got %q", token.Key)
	}
	if token.UserID != "u1" {
		t.Fatalf("unexpected owner: %s", token.UserID)
	}
	if len(f.locker.acquired) != 1 || f.locker.acquired[0] != "u1" {
		t.Fatalf("expected mint lock for u1, got %v", f.locker.acquired)
	}
	if f.locker.released != 1 {
		t.Fatalf("expected lock released once, got %d", f.locker.released)
	}
}

func TestAuthService_MintToken_ReplacesPreviousToken(t *testing.T) {
	f := newFixture()
	user := f.seedUser("u1", "alice@example.com", "alice", "pass123")
	ctx := context.Background()

	first, err := f.auth.MintToken(ctx, user)
	if err != nil {
		t.Fatalf("first mint: %v", err)
	}
	second, err := f.auth.MintToken(ctx, user)
	if err != nil {
		t.Fatalf("second mint: %v", err)
	}

	if first.Key == second.Key {
		t.Fatalf("expected a fresh key")
	}
	if n := f.tokens.countFor("u1"); n != 1 {
		t.Fatalf("expected exactly one live token, got %d", n)
	}
	if _, err := f.auth.ResolveToken(ctx, first.Key); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected first token to be dead, got %v", err)
	}
}

func TestAuthService_MintToken_UnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.auth.MintToken(context.Background(), &domain.User{ID: "ghost"})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(f.tokens.byKey) != 0 {
		t.Fatalf("expected no token persisted")
	}
}

func TestAuthService_MintToken_LockError(t *testing.T) {
	f := newFixture()
	user := f.seedUser("u1", "alice@example.com", "alice", "pass123")
	f.locker.err = errors.New("redis down")

	if _, err := f.auth.MintToken(context.Background(), user); err == nil {
		t.Fatalf("expected error when lock cannot be acquired")
	}
	if len(f.tokens.byKey) != 0 {
		t.Fatalf("expected no token persisted")
	}
}

func TestAuthService_MintToken_CreateFailureKeepsOldToken(t *testing.T) {
	f := newFixture()
	user := f.seedUser("u1", "alice@example.com", "alice", "pass123")
	ctx := context.Background()

	old, err := f.auth.MintToken(ctx, user)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	f.tokens.createErr = errors.New("write failed")
	if _, err := f.auth.MintToken(ctx, user); err == nil {
		t.Fatalf("expected mint error")
	}

	f.tokens.createErr = nil
	if _, err := f.auth.ResolveToken(ctx, old.Key); err != nil {
		t.Fatalf("expected rolled back delete to keep old token, got %v", err)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	f := newFixture()
	f.seedUser("u1", "dave@example.com", "dave", "goodpass")

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "dave@example.com", password: "goodpass"},
		{name: "wrong password", email: "dave@example.com", password: "badpass", wantErr: domain.ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: "goodpass", wantErr: domain.ErrInvalidCredentials},
		{name: "empty password", email: "dave@example.com", password: "", wantErr: domain.ErrInvalidCredentials},
		{name: "empty email", email: "", password: "goodpass", wantErr: domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := f.auth.Authenticate(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if user != nil {
					t.Fatalf("expected no user on failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.ID != "u1" {
				t.Fatalf("unexpected user: %+v", user)
			}
		})
	}
}

func TestAuthService_Authenticate_StoreError(t *testing.T) {
	f := newFixture()
	f.users.findErr = errors.New("connection reset")

	_, err := f.auth.Authenticate(context.Background(), "dave@example.com", "pass")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestAuthService_ResolveToken(t *testing.T) {
	f := newFixture()
	user := f.seedUser("u1", "alice@example.com", "alice", "pass123")
	ctx := context.Background()

	token, err := f.auth.MintToken(ctx, user)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	got, err := f.auth.ResolveToken(ctx, token.Key)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != "u1" || got.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := f.auth.ResolveToken(ctx, ""); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated for empty key, got %v", err)
	}
	if _, err := f.auth.ResolveToken(ctx, "nope"); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated for unknown key, got %v", err)
	}
}

func TestAuthService_ResolveToken_OrphanedToken(t *testing.T) {
	f := newFixture()
	f.tokens.byKey["k"] = &domain.Token{Key: "k", UserID: "gone"}

	if _, err := f.auth.ResolveToken(context.Background(), "k"); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthService_RevokeToken_Idempotent(t *testing.T) {
	f := newFixture()
	user := f.seedUser("u1", "alice@example.com", "alice", "pass123")
	ctx := context.Background()

	token, _ := f.auth.MintToken(ctx, user)

	if err := f.auth.RevokeToken(ctx, user); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := f.auth.RevokeToken(ctx, user); err != nil {
		t.Fatalf("second revoke should be a no-op, got %v", err)
	}
	if _, err := f.auth.ResolveToken(ctx, token.Key); err != domain.ErrUnauthenticated {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newFixture()
	f.seedUser("u1", "carol@example.com", "carol", "s3cret")

	token, user, err := f.auth.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == nil || token.Key == "" {
		t.Fatalf("expected token, got %+v", token)
	}
	if user == nil || user.ID != "u1" || token.UserID != user.ID {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	f := newFixture()
	f.seedUser("u1", "dave@example.com", "dave", "goodpass")

	if _, _, err := f.auth.Login(context.Background(), "dave@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(f.tokens.byKey) != 0 {
		t.Fatalf("expected no token minted on failed login")
	}
}

func TestAuthService_Login_UnknownEmailIsIndistinguishable(t *testing.T) {
	f := newFixture()

	if _, _, err := f.auth.Login(context.Background(), "ghost@example.com", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestGenerateTokenKey_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		k, err := generateTokenKey()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, dup := seen[k]; dup {
			t.Fatalf("duplicate key %s", k)
		}
		seen[k] = struct{}{}
	}
}

func TestBcryptHasher_CompareRejectsOverlongPassword(t *testing.T) {
	h := NewBcryptHasher(4)
	password := strings.Repeat("a", MaxPasswordBytes)

	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !h.Compare(hash, password) {
		t.Fatalf("expected exact password to match")
	}
	if h.Compare(hash, password+"WRONG-SUFFIX") {
		t.Fatalf("expected password sharing the first %d bytes to be rejected", MaxPasswordBytes)
	}
}

func TestAuthService_Login_RejectsPasswordExtendingStoredOne(t *testing.T) {
	f := newFixture()
	password := strings.Repeat("a", MaxPasswordBytes)
	f.seedUser("u1", "dave@example.com", "dave", password)

	if _, _, err := f.auth.Login(context.Background(), "dave@example.com", password+"WRONG-SUFFIX"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(f.tokens.byKey) != 0 {
		t.Fatalf("expected no token minted")
	}
}

func TestAuthService_Authenticate_TrimsEmail(t *testing.T) {
	f := newFixture()
	f.seedUser("u1", "dave@example.com", "dave", "goodpass")

	user, err := f.auth.Authenticate(context.Background(), "  dave@example.com ", "goodpass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user: %+v", user)
	}
}
