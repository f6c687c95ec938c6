package core_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/collection"
	"github.com/dmitrymomot/tabula/pkg/core"
	"github.com/dmitrymomot/tabula/pkg/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()

	s, err := schema.Parse([]byte(`
tables:
  - key: posts
    columns:
      - { key: id, type: uuid, primary: true }
      - { key: title, type: text, notNull: true }
      - { key: status, type: text }
`))
	require.NoError(t, err)
	return s
}

func pingRoute(path, reply string) api.Route {
	return api.NewRoute(api.Schema{Method: http.MethodGet, Path: path}, func(context.Context, *api.Call) (*api.Response, error) {
		return api.JSON(http.StatusOK, map[string]string{"reply": reply}), nil
	})
}

func newServer(t *testing.T, opts ...core.ServerOption) *core.ServerConfig {
	t.Helper()

	s := testSchema(t)
	base := core.DefineBaseConfig(
		core.WithSchema(s),
		core.WithAuth(auth.Config{ResetPassword: auth.ResetPasswordConfig{Enabled: true}}),
		core.WithValue("tenant", "acme"),
	)
	b := collection.NewBuilder(s)
	posts := b.MustCollection("posts", collection.Config{
		Fields: []collection.Field{
			{Name: "title", Required: true},
			{Name: "status", Type: collection.Select, Choices: []collection.Choice{{Label: "Draft", Value: "draft"}},
				Options: func(context.Context, *api.Context) ([]collection.Choice, error) { return nil, nil }},
		},
		Admin: collection.Admin{Group: "Content", Icon: "file"},
		Endpoints: api.NewRouter().
			Handle("publish", b.MustEndpoint(api.Schema{Method: http.MethodPost, Path: "/posts/:id/publish"},
				func(context.Context, *api.Call) (*api.Response, error) { return api.JSON(http.StatusOK, nil), nil })),
	})

	server, err := core.DefineServerConfig(base, []*collection.Collection{posts}, opts...)
	require.NoError(t, err)
	return server
}

func TestDefineBaseConfig(t *testing.T) {
	t.Parallel()

	base := core.DefineBaseConfig(core.WithValue("tenant", "acme"))
	require.NotNil(t, base.Context)
	assert.Equal(t, "acme", base.Context.Value("tenant"))
	assert.Nil(t, base.Context.DB())
	assert.IsType(t, &auth.MemorySessions{}, base.AuthStores.Sessions)
}

func TestDefineServerConfig(t *testing.T) {
	t.Parallel()

	server := newServer(t, core.WithEndpoints(api.NewRouter().
		Handle("ping", pingRoute("/ping", "custom")).
		Handle("posts.findMany", pingRoute("/override", "custom"))))

	ids := server.Routes().IDs()
	for _, id := range []string{
		"ping", "auth.loginEmail", "auth.forgotPassword",
		"posts.create", "posts.update", "posts.delete", "posts.findOne", "posts.findMany", "posts.publish",
	} {
		assert.Contains(t, ids, id)
	}

	ping, ok := server.Routes().Lookup("ping")
	require.True(t, ok)
	assert.Equal(t, "/api/ping", ping.Schema.Path)

	// Collection routes are merged last and win.
	findMany, _ := server.Routes().Lookup("posts.findMany")
	assert.Equal(t, "/api/posts", findMany.Schema.Path)

	publish, _ := server.Routes().Lookup("posts.publish")
	assert.Equal(t, "/api/posts/:id/publish", publish.Schema.Path)

	server.Routes().Each(func(id string, route api.Route) {
		assert.False(t, strings.HasPrefix(route.Schema.Path, "/api/api"), id)
	})

	c, ok := server.Collection("posts")
	require.True(t, ok)
	assert.Equal(t, "posts", c.Slug)
	assert.Equal(t, "acme", server.Context().Value("tenant"))
}

func TestRoutesReturnsCopy(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	routes := server.Routes()
	routes.Handle("extra", pingRoute("/api/extra", "x"))

	_, ok := server.Routes().Lookup("extra")
	assert.False(t, ok)
	assert.Equal(t, server.Endpoints.Len(), routes.Len()-1)
}

func TestDefineServerConfigRejectsDoublePrefix(t *testing.T) {
	t.Parallel()

	s := testSchema(t)
	base := core.DefineBaseConfig(core.WithSchema(s))

	_, err := core.DefineServerConfig(base, nil, core.WithEndpoints(api.NewRouter().
		Handle("bad", pingRoute("/api/ping", "x"))))
	require.ErrorIs(t, err, core.ErrInvalidRoute)
	require.ErrorIs(t, err, api.ErrAlreadyPrefixed)
}

func TestDefineServerConfigDuplicateSlug(t *testing.T) {
	t.Parallel()

	s := testSchema(t)
	b := collection.NewBuilder(s)
	a := b.MustCollection("posts", collection.Config{})
	dup := b.MustCollection("posts", collection.Config{})

	_, err := core.DefineServerConfig(core.DefineBaseConfig(core.WithSchema(s)), []*collection.Collection{a, dup})
	require.ErrorIs(t, err, core.ErrDuplicateSlug)
}

func TestDefineServerConfigRequiresSchema(t *testing.T) {
	t.Parallel()

	_, err := core.DefineServerConfig(core.DefineBaseConfig(), nil)
	require.ErrorIs(t, err, core.ErrNoSchema)
}

func TestPlugins(t *testing.T) {
	t.Parallel()

	var order []string
	first := func(s *core.ServerConfig) (*core.ServerConfig, error) {
		order = append(order, "first")
		s.Endpoints.Handle("health", pingRoute("/api/health", "ok"))
		return s, nil
	}
	second := func(s *core.ServerConfig) (*core.ServerConfig, error) {
		order = append(order, "second")
		_, ok := s.Endpoints.Lookup("health")
		assert.True(t, ok)
		return nil, nil
	}

	server := newServer(t, core.WithPlugins(first, second))
	assert.Equal(t, []string{"first", "second"}, order)
	_, ok := server.Routes().Lookup("health")
	assert.True(t, ok)

	t.Run("plugin adding an unprefixed route fails validation", func(t *testing.T) {
		s := testSchema(t)
		_, err := core.DefineServerConfig(core.DefineBaseConfig(core.WithSchema(s)), nil, core.WithPlugins(
			func(s *core.ServerConfig) (*core.ServerConfig, error) {
				s.Endpoints.Handle("raw", pingRoute("/raw", "x"))
				return s, nil
			}))
		require.ErrorIs(t, err, core.ErrInvalidRoute)
		require.ErrorIs(t, err, api.ErrMissingPrefix)
	})
}

func TestClientConfigOf(t *testing.T) {
	t.Parallel()

	client, err := core.ClientConfigOf(newServer(t))
	require.NoError(t, err)

	assert.True(t, client.Auth.ResetPasswordEnabled)
	assert.Equal(t, auth.DefaultSessionCookie, client.Auth.SessionCookie)

	posts, ok := client.Collections["posts"]
	require.True(t, ok)
	require.Len(t, posts.Fields, 2)
	assert.Equal(t, "title", posts.Fields[0].Label)
	assert.Equal(t, "title", posts.Fields[0].Placeholder)
	assert.Equal(t, "Posts", posts.Label)
	assert.Contains(t, posts.Endpoints, "posts.publish")

	login, ok := client.Route("auth.loginEmail")
	require.True(t, ok)
	assert.Equal(t, "/api/auth/login-email", login.Path)
	assert.NotNil(t, login.Body)

	raw, err := json.Marshal(client)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))

	text := string(raw)
	for _, leaked := range []string{`"admin"`, `"table"`, `"options"`, `"Content"`, `"handler"`, `"column"`} {
		assert.NotContains(t, text, leaked)
	}
}
