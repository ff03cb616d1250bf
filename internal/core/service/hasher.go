package service

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/useraccounts/accounts-api/internal/pkg/metrics"
)

// MaxPasswordBytes is the longest password bcrypt hashes in full. Longer input
// is rejected rather than silently truncated.
const MaxPasswordBytes = 72

// BcryptHasher implements ports.PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is outside bcrypt's accepted range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	start := time.Now()
	defer func() { metrics.PasswordHashDuration.WithLabelValues("hash").Observe(time.Since(start).Seconds()) }()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare reports whether password matches hash. Passwords over
// MaxPasswordBytes never match: bcrypt would only look at their prefix.
func (h *BcryptHasher) Compare(hash, password string) bool {
	if len(password) > MaxPasswordBytes {
		return false
	}
	start := time.Now()
	defer func() { metrics.PasswordHashDuration.WithLabelValues("compare").Observe(time.Since(start).Seconds()) }()

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
