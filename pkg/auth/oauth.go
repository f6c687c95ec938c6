package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/oauth"
)

const oauthStateMaxAge = 600

type OAuthURLResponse struct {
	URL string `json:"url"`
}

type OAuthCallbackQuery struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

func (a *Auth) oauthURL(ctx context.Context, call *api.Call) (*api.Response, error) {
	provider, err := a.providers.Get(call.Param("provider"))
	if err != nil {
		return nil, err
	}

	state, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	c, err := a.cookies.Signed(DefaultOAuthStateCookie, provider.Name()+":"+state, oauthStateMaxAge)
	if err != nil {
		return nil, err
	}

	return api.JSON(http.StatusOK, OAuthURLResponse{URL: provider.AuthCodeURL(state)}).SetCookie(c), nil
}

func (a *Auth) oauthCallback(ctx context.Context, call *api.Call) (*api.Response, error) {
	ctx = call.Context(ctx)

	provider, err := a.providers.Get(call.Param("provider"))
	if err != nil {
		return nil, err
	}
	if err := a.checkState(call, provider.Name()); err != nil {
		return nil, err
	}

	code := call.Query.Get("code")
	if code == "" {
		return nil, ErrInvalidState
	}
	token, err := provider.Exchange(ctx, code, "")
	if err != nil {
		return nil, err
	}
	info, err := provider.FetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := a.linkAccount(ctx, provider.Name(), info, token)
	if err != nil {
		return nil, err
	}

	resp, err := a.signIn(ctx, call, user)
	if err != nil {
		return nil, err
	}
	return resp.SetCookie(a.cookies.Expire(DefaultOAuthStateCookie)), nil
}

func (a *Auth) checkState(call *api.Call, provider string) error {
	c, ok := call.Cookie(DefaultOAuthStateCookie)
	if !ok {
		return ErrInvalidState
	}
	value, err := a.cookies.Verify(c.Value)
	if err != nil {
		return errors.Join(ErrInvalidState, err)
	}
	name, state, _ := strings.Cut(value, ":")
	if name != provider || state == "" || state != call.Query.Get("state") {
		return ErrInvalidState
	}
	return nil
}

// linkAccount finds or creates the user behind a provider identity and
// stores the provider tokens on its account.
func (a *Auth) linkAccount(ctx context.Context, provider string, info *oauth.UserInfo, token *oauth2.Token) (*User, error) {
	now := a.now()

	account, err := a.stores.Accounts.FindByProviderAccount(ctx, provider, info.ID)
	switch {
	case err == nil:
		applyToken(account, token)
		account.UpdatedAt = now
		if err := a.stores.Accounts.Update(ctx, account); err != nil {
			return nil, err
		}
		return a.stores.Users.FindByID(ctx, account.UserID)
	case !errors.Is(err, ErrAccountNotFound):
		return nil, err
	}

	var user *User
	err = a.stores.InTx(ctx, func(tx *Stores) error {
		var err error
		user, err = a.linkUser(ctx, tx, provider, info, token, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// linkUser creates or verifies the user for info and adds the provider account.
func (a *Auth) linkUser(ctx context.Context, tx *Stores, provider string, info *oauth.UserInfo, token *oauth2.Token, now time.Time) (*User, error) {
	user, err := tx.Users.FindByEmail(ctx, NormalizeEmail(info.Email))
	switch {
	case errors.Is(err, ErrUserNotFound):
		user = &User{
			ID:            a.newID(),
			Name:          info.Name,
			Email:         NormalizeEmail(info.Email),
			EmailVerified: true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if info.Picture != "" {
			user.Image = &info.Picture
		}
		if err := tx.Users.Create(ctx, user); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case !user.EmailVerified:
		user.EmailVerified = true
		user.UpdatedAt = now
		if err := tx.Users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	account := &Account{
		ID:         a.newID(),
		AccountID:  info.ID,
		ProviderID: provider,
		UserID:     user.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyToken(account, token)
	if err := tx.Accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return user, nil
}

func applyToken(acc *Account, token *oauth2.Token) {
	acc.AccessToken = token.AccessToken
	acc.RefreshToken = token.RefreshToken
	if !token.Expiry.IsZero() {
		exp := token.Expiry
		acc.AccessTokenExpiresAt = &exp
	}
	if id, ok := token.Extra("id_token").(string); ok {
		acc.IDToken = id
	}
	if scope, ok := token.Extra("scope").(string); ok {
		acc.Scope = scope
	}
}
