package internal_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tabula/internal"
	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/bridge"
	"github.com/dmitrymomot/tabula/pkg/core"
	"github.com/dmitrymomot/tabula/pkg/schema"
)

type echoResponse struct {
	ID     string `json:"id"`
	Q      string `json:"q"`
	Tenant string `json:"tenant"`
}

func newServer(t *testing.T) *core.ServerConfig {
	t.Helper()

	s, err := schema.Parse([]byte(`
tables:
  - key: posts
    columns:
      - { key: id, type: uuid, primary: true }
`))
	require.NoError(t, err)

	base := core.DefineBaseConfig(
		core.WithSchema(s),
		core.WithValue("tenant", "acme"),
	)

	endpoints := api.NewRouter().
		Handle("items.get", api.NewRoute(api.Schema{Method: http.MethodGet, Path: "/items/:id"},
			func(_ context.Context, call *api.Call) (*api.Response, error) {
				if call.Param("id") == "missing" {
					return nil, internal.ErrNotFound("item not found")
				}
				return api.JSON(http.StatusOK, echoResponse{
					ID:     call.Param("id"),
					Q:      call.Query.Get("q"),
					Tenant: api.ValueOf[string](call.App, "tenant"),
				}), nil
			})).
		Handle("items.panic", api.NewRoute(api.Schema{Method: http.MethodPost, Path: "/items/fail"},
			func(context.Context, *api.Call) (*api.Response, error) {
				return nil, errors.New("database exploded")
			}))

	server, err := core.DefineServerConfig(base, nil, core.WithEndpoints(endpoints))
	require.NoError(t, err)
	return server
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAppServesRoutes(t *testing.T) {
	t.Parallel()

	app := internal.New(newServer(t))

	rec := do(t, app, http.MethodGet, "/api/items/42?q=x", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got echoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, echoResponse{ID: "42", Q: "x", Tenant: "acme"}, got)

	rec = do(t, app, http.MethodGet, "/items/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAppErrors(t *testing.T) {
	t.Parallel()

	app := internal.New(newServer(t))

	rec := do(t, app, http.MethodGet, "/api/items/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body internal.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Not Found", body.Message)
	assert.Equal(t, "item not found", body.Error)

	rec = do(t, app, http.MethodPost, "/api/items/fail", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body = internal.ErrorResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body.Message)
	assert.Empty(t, body.Error)

	rec = do(t, app, http.MethodPost, "/api/auth/login-email", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, app, http.MethodPost, "/api/auth/login-email", `{"email":"","password":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body = internal.ErrorResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Errors)
}

func TestAppBodyLimit(t *testing.T) {
	t.Parallel()

	app := internal.New(newServer(t), internal.WithMaxBodyBytes(8))
	rec := do(t, app, http.MethodPost, "/api/auth/login-email", `{"email":"someone@example.com"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAppAuthFlow(t *testing.T) {
	t.Parallel()

	app := internal.New(newServer(t))

	rec := do(t, app, http.MethodPost, "/api/auth/sign-up-email",
		`{"name":"Jane","email":"jane@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, app, http.MethodPost, "/api/auth/login-email",
		`{"email":"jane@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = do(t, app, http.MethodPost, "/api/auth/login-email",
		`{"email":"jane@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.DefaultSessionCookie, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, app, http.MethodPost, "/api/auth/forgot-password", `{"email":"jane@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":"reset password not enabled"}`, rec.Body.String())
}

func TestAppBridge(t *testing.T) {
	t.Parallel()

	app := internal.New(newServer(t))

	rec := do(t, app, http.MethodPost, "/_fn/items.get", `{"pathParams":{"id":"7"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Body   echoResponse `json:"body"`
		Status int          `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, "7", result.Body.ID)

	rec = do(t, app, http.MethodPost, "/_fn/nope.nothing", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var failed struct {
		Body   bridge.ErrorBody `json:"body"`
		Status int              `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	assert.Equal(t, http.StatusInternalServerError, failed.Status)
	assert.Equal(t, "Internal Server Error", failed.Body.Message)

	resp := app.Bridge().Call(context.Background(), "items.get", bridge.Payload{
		PathParams: map[string]string{"id": "9"},
	}, nil)
	assert.Equal(t, http.StatusOK, resp.Status)

	disabled := internal.New(newServer(t), internal.WithBridgePath(""))
	assert.Equal(t, http.StatusNotFound, do(t, disabled, http.MethodPost, "/_fn/items.get", `{}`).Code)
}

func TestAppClientConfig(t *testing.T) {
	t.Parallel()

	app := internal.New(newServer(t), internal.WithClientConfig("/api/_config"))
	rec := do(t, app, http.MethodGet, "/api/_config", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg core.ClientConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	route, ok := cfg.Route("items.get")
	require.True(t, ok)
	assert.Equal(t, "/api/items/:id", route.Path)
	assert.NotContains(t, rec.Body.String(), "Handler")
}

func TestAppHealthAndMiddleware(t *testing.T) {
	t.Parallel()

	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Test", "1")
			next.ServeHTTP(w, r)
		})
	}
	app := internal.New(newServer(t),
		internal.WithMiddleware(mw),
		internal.WithHealthChecks(
			internal.WithReadinessCheck("db", func(context.Context) error { return errors.New("down") }),
		),
	)

	rec := do(t, app, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Test"))

	rec = do(t, app, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAppRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var (
		started, stopped bool
		order            []string
	)

	app := internal.New(newServer(t),
		internal.WithStartupHook(func(context.Context) error {
			started = true
			cancel()
			return nil
		}),
		internal.WithShutdownHook(func(context.Context) error {
			order = append(order, "jobs")
			return nil
		}),
	)

	done := make(chan error, 1)
	go func() {
		done <- app.Run("127.0.0.1:0",
			internal.WithContext(ctx),
			internal.ShutdownTimeout(time.Second),
			internal.ShutdownHook(func(context.Context) error {
				stopped = true
				order = append(order, "db")
				return nil
			}),
		)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, started)
	assert.True(t, stopped)
	assert.Equal(t, []string{"jobs", "db"}, order)
}

func TestAppRunStartupFailure(t *testing.T) {
	t.Parallel()

	app := internal.New(newServer(t))
	err := app.Run("127.0.0.1:0", internal.StartupHook(func(context.Context) error {
		return errors.New("migrations failed")
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations failed")
}
