package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/useraccounts/accounts-api/internal/core/domain"
)

const (
	defaultLockTTL  = 5 * time.Second
	defaultLockWait = 3 * time.Second
	lockRetryDelay  = 25 * time.Millisecond
)

// ErrLockTimeout is returned when the lock is still held by someone else
// after the wait budget is spent.
var ErrLockTimeout = fmt.Errorf("%w: timed out waiting for mint lock", domain.ErrUnavailable)

// releaseScript deletes the key only if it still holds our fencing value.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// MintLock is a per-user mutex backed by Redis.
// Key format: mint:<user_id>
type MintLock struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewMintLock creates a MintLock. The TTL bounds how long a crashed holder
// can block others; wait bounds how long Acquire polls.
func NewMintLock(client *redis.Client, ttl, wait time.Duration) *MintLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &MintLock{client: client, ttl: ttl, wait: wait}
}

// Acquire polls SET NX until the lock is taken, the wait budget is spent, or
// ctx is done.
func (l *MintLock) Acquire(ctx context.Context, userID string) (func(), error) {
	key := l.key(userID)
	value, err := fencingValue()
	if err != nil {
		return nil, fmt.Errorf("mint lock: %w", err)
	}

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, value, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("mint lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// The request context may already be cancelled; release on a fresh one.
		relCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(relCtx, l.client, []string{key}, value).Err()
	}, nil
}

func (l *MintLock) key(userID string) string {
	return fmt.Sprintf("mint:%s", userID)
}

func fencingValue() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
