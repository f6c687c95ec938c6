package auth

import (
	"strings"
	"time"
)

// ProviderCredential is the account provider of email and password accounts.
const ProviderCredential = "credential"

// ResetPasswordIdentifier is the verification identifier of a reset token.
func ResetPasswordIdentifier(token string) string {
	return "reset-password:" + token
}

type User struct {
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Image         *string   `json:"image,omitempty"`
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
}

// Account links a user to a sign-in provider. Password is a bcrypt hash and
// is set only for credential accounts.
type Account struct {
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
	AccessTokenExpiresAt  *time.Time `json:"accessTokenExpiresAt,omitempty"`
	RefreshTokenExpiresAt *time.Time `json:"refreshTokenExpiresAt,omitempty"`
	ID                    string     `json:"id"`
	AccountID             string     `json:"accountId"`
	ProviderID            string     `json:"providerId"`
	UserID                string     `json:"userId"`
	AccessToken           string     `json:"-"`
	RefreshToken          string     `json:"-"`
	IDToken               string     `json:"-"`
	Scope                 string     `json:"scope,omitempty"`
	Password              string     `json:"-"`
}

// Session is a signed-in browser. Token is the bearer credential.
type Session struct {
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Verification is a one-time token such as a password reset.
type Verification struct {
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Value      string    `json:"value"`
}

func (v *Verification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// NormalizeEmail lowercases and trims an address before lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
