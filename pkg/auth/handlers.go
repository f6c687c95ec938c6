package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/validator"
)

type LoginEmailBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (b *LoginEmailBody) Validate() error {
	return validator.Apply(
		validator.RequiredString("email", b.Email),
		validator.RequiredString("password", b.Password),
	)
}

type SignUpEmailBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (b *SignUpEmailBody) Validate() error {
	return validator.Apply(
		validator.RequiredString("name", b.Name),
		validator.MaxLenString("name", b.Name, 255),
		validator.RequiredString("email", b.Email),
		validator.Email("email", b.Email),
		validator.MinLenString("password", b.Password, 8),
		validator.MaxLenString("password", b.Password, 72),
	)
}

type ForgotPasswordBody struct {
	Email string `json:"email"`
}

func (b *ForgotPasswordBody) Validate() error {
	return validator.Apply(validator.RequiredString("email", b.Email))
}

type ResetPasswordBody struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (b *ResetPasswordBody) Validate() error {
	return validator.Apply(
		validator.RequiredString("token", b.Token),
		validator.MinLenString("password", b.Password, 8),
		validator.MaxLenString("password", b.Password, 72),
	)
}

// SignInResponse is returned by every route that creates a session.
type SignInResponse struct {
	Token *string `json:"token"`
	User  *User   `json:"user"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type SessionResponse struct {
	Session *Session `json:"session"`
	User    *User    `json:"user"`
}

func (a *Auth) loginEmail(ctx context.Context, args api.Args[LoginEmailBody]) (*api.Response, error) {
	ctx = args.Context(ctx)

	user, err := a.stores.Users.FindByEmail(ctx, NormalizeEmail(args.Body.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	account, err := a.stores.Accounts.FindByUser(ctx, user.ID, ProviderCredential)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(args.Body.Password, account.Password) {
		a.logger.InfoContext(ctx, "password mismatch", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	return a.signIn(ctx, args.Call, user)
}

func (a *Auth) signUpEmail(ctx context.Context, args api.Args[SignUpEmailBody]) (*api.Response, error) {
	ctx = args.Context(ctx)
	email := NormalizeEmail(args.Body.Email)

	switch _, err := a.stores.Users.FindByEmail(ctx, email); {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	hash, err := HashPassword(args.Body.Password)
	if err != nil {
		return nil, err
	}

	now := a.now()
	user := &User{
		ID:        a.newID(),
		Name:      args.Body.Name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	account := &Account{
		ID:         a.newID(),
		AccountID:  user.ID,
		ProviderID: ProviderCredential,
		UserID:     user.ID,
		Password:   hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = a.stores.InTx(ctx, func(tx *Stores) error {
		if err := tx.Users.Create(ctx, user); err != nil {
			return err
		}
		return tx.Accounts.Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "user signed up", slog.String("user_id", user.ID))
	return a.signIn(ctx, args.Call, user)
}

func (a *Auth) forgotPassword(ctx context.Context, args api.Args[ForgotPasswordBody]) (*api.Response, error) {
	ctx = args.Context(ctx)

	if !a.config.ResetPassword.Enabled {
		a.logger.WarnContext(ctx, "forgot password called while reset password is disabled")
		return api.JSON(http.StatusBadRequest, StatusResponse{Status: "reset password not enabled"}), nil
	}

	user, err := a.stores.Users.FindByEmail(ctx, NormalizeEmail(args.Body.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Same answer as for a known address.
			return api.JSON(http.StatusOK, StatusResponse{Status: "ok"}), nil
		}
		return nil, err
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	now := a.now()
	v := &Verification{
		ID:         a.newID(),
		Identifier: ResetPasswordIdentifier(token),
		Value:      user.ID,
		ExpiresAt:  now.Add(a.config.ResetPassword.ExpiresIn),
		CreatedAt:  now,
	}
	if err := a.stores.Verifications.Create(ctx, v); err != nil {
		return nil, err
	}

	msg := ResetPasswordMessage{
		Email:     user.Email,
		Name:      user.Name,
		Link:      resetLink(a.config.ResetPassword.URL, token),
		ExpiresAt: v.ExpiresAt,
	}
	if err := a.notifier.SendResetPassword(ctx, msg); err != nil {
		a.logger.ErrorContext(ctx, "failed to send reset password link",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, errors.Join(ErrNotify, err)
	}

	return api.JSON(http.StatusOK, StatusResponse{Status: "ok"}), nil
}

func resetLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (a *Auth) resetPassword(ctx context.Context, args api.Args[ResetPasswordBody]) (*api.Response, error) {
	ctx = args.Context(ctx)

	v, err := a.stores.Verifications.FindByIdentifier(ctx, ResetPasswordIdentifier(args.Body.Token))
	if err != nil {
		if errors.Is(err, ErrVerificationNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if v.Expired(a.now()) {
		_ = a.stores.Verifications.Delete(ctx, v.ID)
		return nil, ErrInvalidToken
	}

	hash, err := HashPassword(args.Body.Password)
	if err != nil {
		return nil, err
	}

	userID := v.Value
	now := a.now()
	account, err := a.stores.Accounts.FindByUser(ctx, userID, ProviderCredential)
	switch {
	case err == nil:
		account.Password = hash
		account.UpdatedAt = now
		err = a.stores.Accounts.Update(ctx, account)
	case errors.Is(err, ErrAccountNotFound):
		// OAuth-only users gain a password this way.
		err = a.stores.Accounts.Create(ctx, &Account{
			ID:         a.newID(),
			AccountID:  userID,
			ProviderID: ProviderCredential,
			UserID:     userID,
			Password:   hash,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	if err != nil {
		return nil, err
	}

	if err := a.stores.Verifications.Delete(ctx, v.ID); err != nil {
		return nil, err
	}
	if err := a.stores.Sessions.DeleteByUserID(ctx, userID); err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "password reset", slog.String("user_id", userID))
	return api.JSON(http.StatusOK, StatusResponse{Status: "ok"}), nil
}

func (a *Auth) getSession(ctx context.Context, call *api.Call) (*api.Response, error) {
	ctx = call.Context(ctx)

	session, err := a.CurrentSession(ctx, call)
	if err != nil {
		return nil, err
	}
	user, err := a.stores.Users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return api.JSON(http.StatusOK, SessionResponse{Session: session, User: user}), nil
}

func (a *Auth) logout(ctx context.Context, call *api.Call) (*api.Response, error) {
	ctx = call.Context(ctx)

	if c, ok := call.Cookie(a.config.Session.CookieName); ok && c.Value != "" {
		if err := a.stores.Sessions.Delete(ctx, c.Value); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
	}
	return api.JSON(http.StatusOK, StatusResponse{Status: "ok"}).
		SetCookie(a.cookies.Expire(a.config.Session.CookieName)), nil
}

// CurrentSession resolves the session from the session cookie of call.
func (a *Auth) CurrentSession(ctx context.Context, call *api.Call) (*Session, error) {
	c, ok := call.Cookie(a.config.Session.CookieName)
	if !ok || c.Value == "" {
		return nil, ErrUnauthorized
	}
	session, err := a.stores.Sessions.FindByToken(ctx, c.Value)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if session.Expired(a.now()) {
		_ = a.stores.Sessions.Delete(ctx, session.Token)
		return nil, ErrUnauthorized
	}
	return session, nil
}

// signIn creates a session for user and sets the session cookie.
func (a *Auth) signIn(ctx context.Context, call *api.Call, user *User) (*api.Response, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	now := a.now()
	session := &Session{
		ID:        a.newID(),
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: now.Add(a.config.Session.ExpiresIn),
		CreatedAt: now,
	}
	if r := call.Request; r != nil {
		session.IPAddress = clientIP(r)
		session.UserAgent = r.UserAgent()
	}
	if err := a.stores.Sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	maxAge := int(a.config.Session.ExpiresIn.Seconds())
	return api.JSON(http.StatusOK, SignInResponse{Token: &token, User: user}).
		SetCookie(a.cookies.Cookie(a.config.Session.CookieName, token, maxAge)), nil
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
