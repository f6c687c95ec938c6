package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/tabula/pkg/api"
)

// Payload is everything a call sends besides method and path.
type Payload struct {
	Body       any
	Query      map[string]any
	Headers    map[string]string
	PathParams map[string]string
}

// Response is a decoded-on-demand HTTP response.
type Response struct {
	Headers http.Header
	Body    json.RawMessage
	Status  int
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Join(ErrDecodeResponse, err)
	}
	return nil
}

// Client is a JSON REST client.
type Client struct {
	httpClient *http.Client
	routes     map[string]struct{}
	logger     *slog.Logger
	baseURL    string
}

// Option configures the Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithRoutes restricts calls to the given routes, e.g. the endpoints of a
// client config. Calls to other method and path pairs fail with ErrUnknownRoute.
func WithRoutes(routes map[string]api.ClientRoute) Option {
	return func(cl *Client) {
		cl.routes = make(map[string]struct{}, len(routes))
		for _, r := range routes {
			cl.routes[routeKey(r.Method, r.Path)] = struct{}{}
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GET(ctx context.Context, path string, p Payload) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, p)
}

func (c *Client) POST(ctx context.Context, path string, p Payload) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, p)
}

func (c *Client) PUT(ctx context.Context, path string, p Payload) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, p)
}

func (c *Client) DELETE(ctx context.Context, path string, p Payload) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, p)
}

func (c *Client) PATCH(ctx context.Context, path string, p Payload) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, p)
}

// Do sends one request. The response body is read fully; the status code
// is reported but not interpreted.
func (c *Client) Do(ctx context.Context, method, path string, p Payload) (*Response, error) {
	if c.routes != nil {
		if _, ok := c.routes[routeKey(method, path)]; !ok {
			return nil, fmt.Errorf("%w: %s %s", ErrUnknownRoute, method, path)
		}
	}

	full, err := WithPathParams(path, p.PathParams)
	if err != nil {
		return nil, err
	}
	full = WithQuery(full, p.Query)

	var body io.Reader
	if p.Body != nil {
		data, err := json.Marshal(p.Body)
		if err != nil {
			return nil, errors.Join(ErrEncodeBody, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+full, body)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && !json.Valid(raw) {
		return nil, fmt.Errorf("%w: %s %s returned non-JSON body (status %d)", ErrDecodeResponse, method, full, resp.StatusCode)
	}

	c.logger.DebugContext(ctx, "rest call",
		slog.String("method", method),
		slog.String("path", full),
		slog.Int("status", resp.StatusCode),
	)

	return &Response{Status: resp.StatusCode, Headers: resp.Header, Body: raw}, nil
}

// WithPathParams replaces ":name" segments of path with escaped values.
func WithPathParams(path string, params map[string]string) (string, error) {
	if !strings.Contains(path, ":") {
		return path, nil
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		name, ok := strings.CutPrefix(seg, ":")
		if !ok || name == "" {
			continue
		}
		value, ok := params[name]
		if !ok {
			return "", fmt.Errorf("%w: %s in %s", ErrMissingPathParam, name, path)
		}
		segments[i] = url.PathEscape(value)
	}
	return strings.Join(segments, "/"), nil
}

// WithQuery appends query as an encoded query string. Slice values repeat the key.
func WithQuery(path string, query map[string]any) string {
	if len(query) == 0 {
		return path
	}
	values := url.Values{}
	for k, v := range query {
		switch vv := v.(type) {
		case nil:
		case []string:
			values[k] = append(values[k], vv...)
		case []any:
			for _, item := range vv {
				values.Add(k, fmt.Sprint(item))
			}
		default:
			values.Add(k, fmt.Sprint(vv))
		}
	}
	if len(values) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + values.Encode()
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}
