package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Handler serves one route invocation.
type Handler func(ctx context.Context, call *Call) (*Response, error)

// Route pairs a schema with its handler.
type Route struct {
	Handler Handler
	Schema  Schema
}

// NewRoute builds a route value.
func NewRoute(schema Schema, handler Handler) Route {
	return Route{Schema: schema, Handler: handler}
}

// WithPrefix returns the route with its schema path prefixed.
func (r Route) WithPrefix(prefix string) (Route, error) {
	s, err := r.Schema.WithPrefix(prefix)
	if err != nil {
		return r, err
	}
	return Route{Schema: s, Handler: r.Handler}, nil
}

// Call is a single handler invocation.
// Request is the real HTTP request or one synthesized by a transport.
type Call struct {
	App        *Context
	Request    *http.Request
	Query      url.Values
	Headers    http.Header
	PathParams map[string]string
	RawBody    json.RawMessage
}

// Param returns a path parameter.
func (c *Call) Param(name string) string {
	return c.PathParams[name]
}

// Cookie returns a request cookie by name.
func (c *Call) Cookie(name string) (*http.Cookie, bool) {
	if c.Request != nil {
		if ck, err := c.Request.Cookie(name); err == nil {
			return ck, true
		}
		return nil, false
	}
	cookies, err := http.ParseCookie(c.Headers.Get("Cookie"))
	if err != nil {
		return nil, false
	}
	for _, ck := range cookies {
		if ck.Name == name {
			return ck, true
		}
	}
	return nil, false
}

// Context returns the request context, or ctx when the call has no request.
func (c *Call) Context(ctx context.Context) context.Context {
	if c.Request != nil {
		return c.Request.Context()
	}
	return ctx
}

// Response is a handler result.
type Response struct {
	Body    any
	Headers http.Header
	Status  int
}

// JSON builds a response with a JSON body.
func JSON(status int, body any) *Response {
	return &Response{Status: status, Body: body, Headers: http.Header{}}
}

// SetCookie appends a Set-Cookie header.
func (r *Response) SetCookie(c *http.Cookie) *Response {
	if r.Headers == nil {
		r.Headers = http.Header{}
	}
	r.Headers.Add("Set-Cookie", c.String())
	return r
}

// Cookies parses the Set-Cookie headers of the response.
func (r *Response) Cookies() []*http.Cookie {
	if r == nil {
		return nil
	}
	var out []*http.Cookie
	for _, line := range r.Headers.Values("Set-Cookie") {
		if c, err := http.ParseSetCookie(line); err == nil {
			out = append(out, c)
		}
	}
	return out
}

// Args is what a typed handler receives.
type Args[B any] struct {
	*Call
	Body B
}

// Validatable bodies are checked before the handler runs.
type Validatable interface {
	Validate() error
}

// NoBody is the body type of routes without a request body.
type NoBody struct{}

// Handle adapts a typed handler. The raw body is decoded into B and
// validated when B implements Validatable.
func Handle[B any](fn func(ctx context.Context, args Args[B]) (*Response, error)) Handler {
	return func(ctx context.Context, call *Call) (*Response, error) {
		var body B
		if raw := bytes.TrimSpace(call.RawBody); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
			if err := json.Unmarshal(raw, &body); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
			}
		}
		if v, ok := any(&body).(Validatable); ok {
			if err := v.Validate(); err != nil {
				return nil, err
			}
		}
		return fn(ctx, Args[B]{Call: call, Body: body})
	}
}
