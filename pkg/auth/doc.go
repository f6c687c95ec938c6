// Package auth provides the authentication routes: email and password
// sign-in, sign-up, password reset, session lookup, logout and OAuth2
// sign-in.
//
// All routes share one [Auth] value that holds the configuration, the
// record stores and the collaborators (cookie manager, notifier, OAuth
// providers). Routes are built with the same endpoint machinery as
// collections and mount under the "auth" namespace:
//
//	a := auth.New(auth.Config{}, auth.NewMemoryStores(),
//		auth.WithCookies(cookies),
//		auth.WithNotifier(notifier),
//	)
//	routes, err := a.Routes()
//
// A successful sign-in creates a session row and sets the session token
// cookie. Failed sign-ins return [ErrInvalidCredentials] and never set a
// cookie or return a token.
package auth
