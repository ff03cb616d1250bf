package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/useraccounts/accounts-api/internal/core/domain"
)

type stubResolver struct {
	users map[string]*domain.User
	err   error
	seen  []string
}

func (r *stubResolver) ResolveToken(_ context.Context, key string) (*domain.User, error) {
	r.seen = append(r.seen, key)
	if r.err != nil {
		return nil, r.err
	}
	if u, ok := r.users[key]; ok {
		return u, nil
	}
	return nil, domain.ErrUnauthenticated
}

func newAuthContext(header string) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	return e, e.NewContext(req, rec), rec
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	resolver := &stubResolver{users: map[string]*domain.User{
		"abc123": {ID: "u1", Email: "alice@example.com"},
	}}
	_, c, rec := newAuthContext("Bearer abc123")

	called := false
	handler := Auth(resolver)(func(c echo.Context) error {
		called = true
		user, ok := UserFrom(c)
		if !ok || user.ID != "u1" {
			t.Fatalf("user not set: %+v", user)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	resolver := &stubResolver{users: map[string]*domain.User{"abc123": {ID: "u1"}}}
	_, c, _ := newAuthContext("bearer abc123")

	handler := Auth(resolver)(func(c echo.Context) error { return nil })
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(resolver.seen) != 1 || resolver.seen[0] != "abc123" {
		t.Fatalf("expected key abc123 resolved, got %v", resolver.seen)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Token abc"},
		{name: "no key", header: "Bearer"},
		{name: "extra parts", header: "Bearer abc def"},
		{name: "unknown key", header: "Bearer not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &stubResolver{}
			e, c, rec := newAuthContext(tt.header)

			handler := Auth(resolver)(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			err := handler(c)
			if err == nil {
				t.Fatalf("expected error")
			}
			e.HTTPErrorHandler(err, c)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if got := rec.Header().Get(echo.HeaderWWWAuthenticate); got != "Bearer" {
				t.Fatalf("expected WWW-Authenticate: Bearer, got %q", got)
			}
		})
	}
}

func TestAuthMiddleware_StoreErrorPassesThrough(t *testing.T) {
	storeErr := errors.New("connection reset")
	resolver := &stubResolver{err: storeErr}
	_, c, _ := newAuthContext("Bearer abc123")

	handler := Auth(resolver)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestUserFrom_Empty(t *testing.T) {
	_, c, _ := newAuthContext("")
	if _, ok := UserFrom(c); ok {
		t.Fatalf("expected no user")
	}
}
