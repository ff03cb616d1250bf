package ports

import "context"

// Transactor runs fn inside a store transaction. Stores called with the ctx
// handed to fn take part in that transaction. Nested calls join the outer one.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MintLocker serialises token minting per user across processes.
type MintLocker interface {
	// Acquire blocks until the lock for userID is held or ctx is done.
	// The returned release func is safe to call once.
	Acquire(ctx context.Context, userID string) (release func(), err error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
