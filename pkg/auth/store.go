package auth

import (
	"context"
	"time"
)

// Users persists users. Lookups return ErrUserNotFound.
type Users interface {
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// Accounts persists provider accounts. Lookups return ErrAccountNotFound.
type Accounts interface {
	Create(ctx context.Context, a *Account) error
	Update(ctx context.Context, a *Account) error
	FindByUser(ctx context.Context, userID, providerID string) (*Account, error)
	FindByProviderAccount(ctx context.Context, providerID, accountID string) (*Account, error)
}

// Sessions persists sessions. Lookups return ErrSessionNotFound.
type Sessions interface {
	Create(ctx context.Context, s *Session) error
	FindByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Verifications persists one-time tokens. Lookups return ErrVerificationNotFound.
type Verifications interface {
	Create(ctx context.Context, v *Verification) error
	FindByIdentifier(ctx context.Context, identifier string) (*Verification, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Stores groups the data handlers the auth routes depend on.
// Tx, when set, runs fn against stores whose writes succeed or fail together.
type Stores struct {
	Users         Users
	Accounts      Accounts
	Sessions      Sessions
	Verifications Verifications
	Tx            func(ctx context.Context, fn func(tx *Stores) error) error
}

// InTx runs fn through Tx. Without Tx, fn gets s and writes are not grouped.
func (s *Stores) InTx(ctx context.Context, fn func(tx *Stores) error) error {
	if s.Tx == nil {
		return fn(s)
	}
	return s.Tx(ctx, fn)
}

// PurgeExpired removes sessions and verifications that expired before now.
func PurgeExpired(ctx context.Context, s *Stores, now time.Time) (sessions, verifications int64, err error) {
	if sessions, err = s.Sessions.DeleteExpired(ctx, now); err != nil {
		return 0, 0, err
	}
	if verifications, err = s.Verifications.DeleteExpired(ctx, now); err != nil {
		return sessions, 0, err
	}
	return sessions, verifications, nil
}
