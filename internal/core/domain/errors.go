package domain

import "errors"

var (
	ErrEmailTaken         = errors.New("a user with that email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication credentials were not provided or are invalid")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenNotFound      = errors.New("token not found")
	ErrValidation         = errors.New("validation failed")
	// ErrUnavailable marks transient contention the client may retry.
	ErrUnavailable = errors.New("service temporarily unavailable")
)
