package auth

import "errors"

var (
	ErrInvalidCredentials   = errors.New("auth: invalid email or password")
	ErrUnauthorized         = errors.New("auth: not signed in")
	ErrEmailTaken           = errors.New("auth: email is already registered")
	ErrInvalidToken         = errors.New("auth: invalid or expired token")
	ErrInvalidState         = errors.New("auth: invalid oauth state")
	ErrUserNotFound         = errors.New("auth: user not found")
	ErrAccountNotFound      = errors.New("auth: account not found")
	ErrSessionNotFound      = errors.New("auth: session not found")
	ErrSessionExpired       = errors.New("auth: session expired")
	ErrVerificationNotFound = errors.New("auth: verification not found")
	ErrHashPassword         = errors.New("auth: failed to hash password")
	ErrGenerateToken        = errors.New("auth: failed to generate token")
	ErrNotify               = errors.New("auth: failed to deliver notification")
)
