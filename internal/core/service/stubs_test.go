package service

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/useraccounts/accounts-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub stores
// ---------------------------------------------------------------------------

type stubUserStore struct {
	byID      map[string]*domain.User
	createErr error
	updateErr error
	findErr   error
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserStore) Create(_ context.Context, user *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.byID {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	r.byID[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserStore) Update(_ context.Context, user *domain.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.byID[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for _, u := range r.byID {
		if u.Email == user.Email && u.ID != user.ID {
			return domain.ErrEmailTaken
		}
	}
	r.byID[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserStore) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubTokenStore struct {
	byKey     map[string]*domain.Token
	createErr error
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{byKey: make(map[string]*domain.Token)}
}

func (r *stubTokenStore) Create(_ context.Context, token *domain.Token) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, t := range r.byKey {
		if t.UserID == token.UserID {
			return errors.New("duplicate token for user")
		}
	}
	clone := *token
	r.byKey[token.Key] = &clone
	return nil
}

func (r *stubTokenStore) FindByKey(_ context.Context, key string) (*domain.Token, error) {
	t, ok := r.byKey[key]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTokenStore) DeleteByUser(_ context.Context, userID string) (bool, error) {
	deleted := false
	for k, t := range r.byKey {
		if t.UserID == userID {
			delete(r.byKey, k)
			deleted = true
		}
	}
	return deleted, nil
}

func (r *stubTokenStore) countFor(userID string) int {
	n := 0
	for _, t := range r.byKey {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

// stubTx snapshots both stores and restores them when fn fails, mirroring a
// real rollback. Nested calls join the outer transaction.
type stubTx struct {
	users  *stubUserStore
	tokens *stubTokenStore
	depth  int
	calls  int
}

func (t *stubTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	if t.depth > 0 {
		return fn(ctx)
	}

	users := make(map[string]*domain.User, len(t.users.byID))
	for k, v := range t.users.byID {
		users[k] = cloneUser(v)
	}
	tokens := make(map[string]*domain.Token, len(t.tokens.byKey))
	for k, v := range t.tokens.byKey {
		clone := *v
		tokens[k] = &clone
	}

	t.depth++
	err := fn(ctx)
	t.depth--
	if err != nil {
		t.users.byID = users
		t.tokens.byKey = tokens
	}
	return err
}

type stubLocker struct {
	mu       sync.Mutex
	acquired []string
	released int
	err      error
}

func (l *stubLocker) Acquire(_ context.Context, userID string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	l.acquired = append(l.acquired, userID)
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	users   *stubUserStore
	tokens  *stubTokenStore
	tx      *stubTx
	locker  *stubLocker
	hasher  *BcryptHasher
	auth    *AuthService
	account *AccountService
}

func newFixture() *fixture {
	f := &fixture{
		users:  newStubUserStore(),
		tokens: newStubTokenStore(),
		locker: &stubLocker{},
		hasher: NewBcryptHasher(bcrypt.MinCost),
	}
	f.tx = &stubTx{users: f.users, tokens: f.tokens}
	f.auth = NewAuthService(f.users, f.tokens, f.tx, f.locker, f.hasher, zerologNop())
	f.account = NewAccountService(f.users, f.tokens, f.tx, f.auth, f.hasher, zerologNop())
	return f
}

// seedUser stores a user with the given credentials and returns it.
func (f *fixture) seedUser(id, email, name, password string) *domain.User {
	hash, err := f.hasher.Hash(password)
	if err != nil {
		panic(err)
	}
	u := &domain.User{ID: id, Email: email, Name: name, PasswordHash: hash}
	f.users.byID[id] = cloneUser(u)
	return u
}
