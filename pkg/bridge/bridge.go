package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/restclient"
)

var (
	ErrRouteNotFound = errors.New("bridge: no API route found for method")
	ErrNilResponse   = errors.New("bridge: handler returned no response")
)

// Payload is the argument of a server function call.
type Payload struct {
	Body       any               `json:"body,omitempty"`
	Query      map[string]any    `json:"query,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	PathParams map[string]string `json:"pathParams,omitempty"`
}

// ErrorBody is the body of a failed call.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// CookieStore receives the cookie a handler sets.
type CookieStore interface {
	SetCookie(c *http.Cookie)
}

// CookieStoreFunc adapts a function to CookieStore.
type CookieStoreFunc func(c *http.Cookie)

func (f CookieStoreFunc) SetCookie(c *http.Cookie) {
	f(c)
}

// ResponseCookies stores cookies on an http.ResponseWriter.
type ResponseCookies struct {
	http.ResponseWriter
}

func (rc ResponseCookies) SetCookie(c *http.Cookie) {
	http.SetCookie(rc.ResponseWriter, c)
}

// Bridge dispatches calls to a router.
type Bridge struct {
	router *api.Router
	app    *api.Context
	logger *slog.Logger
	origin string
}

type Option func(*Bridge)

func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// WithOrigin sets the scheme and host of synthesized requests.
func WithOrigin(origin string) Option {
	return func(b *Bridge) {
		b.origin = origin
	}
}

// New creates a bridge over router. app is passed to every handler.
func New(router *api.Router, app *api.Context, opts ...Option) *Bridge {
	b := &Bridge{
		router: router,
		app:    app,
		logger: slog.New(slog.DiscardHandler),
		origin: "http://localhost",
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(slog.String("component", "bridge"))
	return b
}

// Call runs the route registered under id. It never returns nil.
// cookies may be nil.
func (b *Bridge) Call(ctx context.Context, id string, p Payload, cookies CookieStore) *api.Response {
	resp, err := b.call(ctx, id, p)
	if err != nil {
		b.logger.ErrorContext(ctx, "error handling server function",
			slog.String("method", id), slog.Any("error", err))
		return api.JSON(http.StatusInternalServerError, ErrorBody{
			Message: "Internal Server Error",
			Error:   err.Error(),
		})
	}

	if set := resp.Cookies(); len(set) > 0 && cookies != nil {
		cookies.SetCookie(set[0])
	}
	return resp
}

func (b *Bridge) call(ctx context.Context, id string, p Payload) (*api.Response, error) {
	route, ok := b.router.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
	}

	req, raw, err := b.request(ctx, route.Schema, p)
	if err != nil {
		return nil, err
	}

	resp, err := route.Handler(ctx, &api.Call{
		App:        b.app,
		Request:    req,
		Query:      req.URL.Query(),
		Headers:    req.Header,
		PathParams: p.PathParams,
		RawBody:    raw,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrNilResponse
	}
	return resp, nil
}

// request synthesizes the HTTP request a browser would have sent.
func (b *Bridge) request(ctx context.Context, s api.Schema, p Payload) (*http.Request, json.RawMessage, error) {
	path, err := restclient.WithPathParams(s.Path, p.PathParams)
	if err != nil {
		return nil, nil, err
	}
	path = restclient.WithQuery(path, p.Query)

	var (
		raw  json.RawMessage
		body io.Reader
	)
	if p.Body != nil {
		if raw, err = json.Marshal(p.Body); err != nil {
			return nil, nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, s.Method, b.origin+path, body)
	if err != nil {
		return nil, nil, err
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, raw, nil
}
