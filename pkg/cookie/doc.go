// Package cookie builds HTTP cookies with consistent attributes and
// optional HMAC signatures.
//
//	m := cookie.New(cookie.WithSecret(secret), cookie.WithSecure(true))
//	resp.SetCookie(m.Cookie("session_token", token, 86400))
//
//	state, err := m.Signed("oauth_state", nonce, 600)
//	nonce, err := m.Verify(rawCookieValue)
package cookie
