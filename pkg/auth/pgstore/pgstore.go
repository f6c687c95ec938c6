// Package pgstore implements the auth stores on PostgreSQL with pgx.
//
// It expects the users, accounts, sessions and verifications tables created
// by the application migrations.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/db"
)

const uniqueViolation = "23505"

// New returns stores backed by q. When q can begin transactions, as a pool
// or a pgx.Tx can, the stores group writes through db.WithTx.
func New(q db.Querier) *auth.Stores {
	s := &auth.Stores{
		Users:         &Users{db: q},
		Accounts:      &Accounts{db: q},
		Sessions:      &Sessions{db: q},
		Verifications: &Verifications{db: q},
	}
	if b, ok := q.(db.Beginner); ok {
		s.Tx = func(ctx context.Context, fn func(tx *auth.Stores) error) error {
			return db.WithTx(ctx, b, func(tx pgx.Tx) error {
				return fn(New(tx))
			})
		}
	}
	return s
}

func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type Users struct {
	db db.Querier
}

const userColumns = `id, name, email, email_verified, image, created_at, updated_at`

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Image, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, notFound(err, auth.ErrUserNotFound)
	}
	return &u, nil
}

func (s *Users) Create(ctx context.Context, u *auth.User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Name, u.Email, u.EmailVerified, u.Image, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return auth.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Users) Update(ctx context.Context, u *auth.User) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET name = $2, email = $3, email_verified = $4, image = $5, updated_at = $6 WHERE id = $1`,
		u.ID, u.Name, u.Email, u.EmailVerified, u.Image, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (s *Users) FindByID(ctx context.Context, id string) (*auth.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

type Accounts struct {
	db db.Querier
}

const accountColumns = `id, account_id, provider_id, user_id,
	COALESCE(access_token, ''), COALESCE(refresh_token, ''), COALESCE(id_token, ''),
	access_token_expires_at, refresh_token_expires_at, COALESCE(scope, ''), COALESCE(password, ''),
	created_at, updated_at`

func scanAccount(row pgx.Row) (*auth.Account, error) {
	var a auth.Account
	err := row.Scan(&a.ID, &a.AccountID, &a.ProviderID, &a.UserID,
		&a.AccessToken, &a.RefreshToken, &a.IDToken,
		&a.AccessTokenExpiresAt, &a.RefreshTokenExpiresAt, &a.Scope, &a.Password,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, notFound(err, auth.ErrAccountNotFound)
	}
	return &a, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Accounts) Create(ctx context.Context, a *auth.Account) error {
	_, err := s.db.Exec(ctx, `INSERT INTO accounts (id, account_id, provider_id, user_id,
		access_token, refresh_token, id_token, access_token_expires_at, refresh_token_expires_at,
		scope, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.AccountID, a.ProviderID, a.UserID,
		nullable(a.AccessToken), nullable(a.RefreshToken), nullable(a.IDToken),
		a.AccessTokenExpiresAt, a.RefreshTokenExpiresAt,
		nullable(a.Scope), nullable(a.Password), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Accounts) Update(ctx context.Context, a *auth.Account) error {
	tag, err := s.db.Exec(ctx, `UPDATE accounts SET
		access_token = $2, refresh_token = $3, id_token = $4,
		access_token_expires_at = $5, refresh_token_expires_at = $6,
		scope = $7, password = $8, updated_at = $9
		WHERE id = $1`,
		a.ID, nullable(a.AccessToken), nullable(a.RefreshToken), nullable(a.IDToken),
		a.AccessTokenExpiresAt, a.RefreshTokenExpiresAt,
		nullable(a.Scope), nullable(a.Password), a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}

func (s *Accounts) FindByUser(ctx context.Context, userID, providerID string) (*auth.Account, error) {
	return scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 AND provider_id = $2`, userID, providerID))
}

func (s *Accounts) FindByProviderAccount(ctx context.Context, providerID, accountID string) (*auth.Account, error) {
	return scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE provider_id = $1 AND account_id = $2`, providerID, accountID))
}

type Sessions struct {
	db db.Querier
}

func (s *Sessions) Create(ctx context.Context, sess *auth.Session) error {
	_, err := s.db.Exec(ctx, `INSERT INTO sessions (id, token, user_id, expires_at, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sess.ID, sess.Token, sess.UserID, sess.ExpiresAt,
		nullable(sess.IPAddress), nullable(sess.UserAgent), sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Sessions) FindByToken(ctx context.Context, token string) (*auth.Session, error) {
	var sess auth.Session
	err := s.db.QueryRow(ctx, `SELECT id, token, user_id, expires_at,
		COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
		FROM sessions WHERE token = $1`, token).
		Scan(&sess.ID, &sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.IPAddress, &sess.UserAgent, &sess.CreatedAt)
	if err != nil {
		return nil, notFound(err, auth.ErrSessionNotFound)
	}
	return &sess, nil
}

func (s *Sessions) Delete(ctx context.Context, token string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

func (s *Sessions) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (s *Sessions) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

type Verifications struct {
	db db.Querier
}

func (s *Verifications) Create(ctx context.Context, v *auth.Verification) error {
	_, err := s.db.Exec(ctx, `INSERT INTO verifications (id, identifier, value, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`, v.ID, v.Identifier, v.Value, v.ExpiresAt, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("create verification: %w", err)
	}
	return nil
}

func (s *Verifications) FindByIdentifier(ctx context.Context, identifier string) (*auth.Verification, error) {
	var v auth.Verification
	err := s.db.QueryRow(ctx, `SELECT id, identifier, value, expires_at, created_at
		FROM verifications WHERE identifier = $1`, identifier).
		Scan(&v.ID, &v.Identifier, &v.Value, &v.ExpiresAt, &v.CreatedAt)
	if err != nil {
		return nil, notFound(err, auth.ErrVerificationNotFound)
	}
	return &v, nil
}

func (s *Verifications) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM verifications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete verification: %w", err)
	}
	return nil
}

func (s *Verifications) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM verifications WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired verifications: %w", err)
	}
	return tag.RowsAffected(), nil
}
