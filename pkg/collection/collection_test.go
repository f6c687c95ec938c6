package collection_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/collection"
	"github.com/dmitrymomot/tabula/pkg/orm"
	"github.com/dmitrymomot/tabula/pkg/sanitizer"
	"github.com/dmitrymomot/tabula/pkg/schema"
	"github.com/dmitrymomot/tabula/pkg/validator"
)

// memRepo is an in-memory Repository with sequential ids.
type memRepo struct {
	rows map[string]orm.Row
	seq  int
	mu   sync.Mutex
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]orm.Row{}}
}

func (m *memRepo) Insert(_ context.Context, values orm.Row) (orm.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	row := orm.Row{"id": fmt.Sprintf("p%d", m.seq)}
	for k, v := range values {
		row[k] = v
	}
	m.rows[row["id"].(string)] = row
	return clone(row), nil
}

func (m *memRepo) Update(_ context.Context, id any, values orm.Row) (orm.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id.(string)]
	if !ok {
		return nil, orm.ErrNotFound
	}
	for k, v := range values {
		row[k] = v
	}
	return clone(row), nil
}

func (m *memRepo) Delete(_ context.Context, id any) (orm.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id.(string)]
	if !ok {
		return nil, orm.ErrNotFound
	}
	delete(m.rows, id.(string))
	return clone(row), nil
}

func (m *memRepo) FindOne(_ context.Context, id any, _ ...orm.QueryOption) (orm.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id.(string)]
	if !ok {
		return nil, orm.ErrNotFound
	}
	return clone(row), nil
}

func (m *memRepo) FindMany(_ context.Context, q orm.ListQuery) (*orm.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.rows))
	for id, row := range m.rows {
		if matches(row, q.Where) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	page := &orm.Page{Data: []orm.Row{}, Total: int64(len(ids))}
	for _, id := range ids {
		page.Data = append(page.Data, clone(m.rows[id]))
	}
	return page, nil
}

func matches(row orm.Row, where map[string]any) bool {
	for k, v := range where {
		if row[k] != v {
			return false
		}
	}
	return true
}

func clone(r orm.Row) orm.Row {
	out := make(orm.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()

	s, err := schema.Parse([]byte(`
tables:
  - key: user
    columns:
      - { key: id, type: uuid, primary: true }
      - { key: name, type: text }
    relations:
      - { name: posts, kind: many, table: posts }
  - key: posts
    columns:
      - { key: id, type: uuid, primary: true }
      - { key: title, type: text, notNull: true }
      - { key: content, type: text }
      - { key: authorId, name: author_id, type: uuid, references: { table: user, column: id } }
      - { key: createdAt, name: created_at, type: timestamptz }
    relations:
      - { name: author, kind: one, table: user, fields: [authorId], references: [id] }
`))
	require.NoError(t, err)
	return s
}

func postFields() []collection.Field {
	return []collection.Field{
		{Name: "title", Column: "title", Type: collection.Text, Required: true, Sanitize: sanitizer.Plain},
		{Name: "body", Column: "content", Type: collection.RichText, Label: "Body", Sanitize: sanitizer.RichText},
		{Name: "authorId", Type: collection.Text, Options: func(context.Context, *api.Context) ([]collection.Choice, error) {
			return nil, nil
		}},
		{Name: "createdAt", Type: collection.Date, ReadOnly: true},
		{Name: "author", Relation: &collection.RelationField{Name: "author", Fields: []collection.Field{{Name: "name"}}}},
	}
}

func newBuilder(t *testing.T, repo collection.Repository) *collection.Builder {
	t.Helper()

	return collection.NewBuilder(testSchema(t), collection.WithRepository(
		func(*api.Context, *schema.Table) (collection.Repository, error) { return repo, nil },
	))
}

func TestBuilderCollection(t *testing.T) {
	t.Parallel()

	t.Run("unknown table", func(t *testing.T) {
		t.Parallel()

		_, err := newBuilder(t, newMemRepo()).Collection("comments", collection.Config{})
		require.ErrorIs(t, err, collection.ErrTableNotFound)
		assert.Contains(t, err.Error(), "Table comments not found")
	})

	t.Run("unknown column", func(t *testing.T) {
		t.Parallel()

		_, err := newBuilder(t, newMemRepo()).Collection("posts", collection.Config{
			Fields: []collection.Field{{Name: "subtitle"}},
		})
		require.ErrorIs(t, err, collection.ErrUnknownColumn)
	})

	t.Run("unknown relation", func(t *testing.T) {
		t.Parallel()

		_, err := newBuilder(t, newMemRepo()).Collection("posts", collection.Config{
			Fields: []collection.Field{{Name: "editor", Type: collection.Relation}},
		})
		require.ErrorIs(t, err, collection.ErrUnknownRelation)
	})

	t.Run("nested relation fields are checked", func(t *testing.T) {
		t.Parallel()

		_, err := newBuilder(t, newMemRepo()).Collection("posts", collection.Config{
			Fields: []collection.Field{{Name: "author", Relation: &collection.RelationField{
				Fields: []collection.Field{{Name: "email"}},
			}}},
		})
		require.ErrorIs(t, err, collection.ErrUnknownColumn)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		c, err := newBuilder(t, newMemRepo()).Collection("posts", collection.Config{Slug: "blog-posts"})
		require.NoError(t, err)
		assert.Equal(t, "Blog Posts", c.Label)
		assert.Equal(t, "id", c.IdentifierColumn)
		assert.Equal(t, "posts", c.Table().Key)
	})

	t.Run("endpoint prefix", func(t *testing.T) {
		t.Parallel()

		b := newBuilder(t, newMemRepo())
		route, err := b.Endpoint(api.Schema{Method: http.MethodGet, Path: "/hello"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "/api/hello", route.Schema.Path)

		_, err = b.Endpoint(route.Schema, nil)
		require.ErrorIs(t, err, api.ErrAlreadyPrefixed)
	})
}

func TestDefaultOperations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newBuilder(t, newMemRepo()).MustCollection("posts", collection.Config{Fields: postFields()})
	ops := c.API()

	created, err := ops.Create(ctx, collection.Args{Data: orm.Row{
		"title": "  <b>Hello</b> ",
		"body":  `<p onclick="x()">Hi</p>`,
	}})
	require.NoError(t, err)
	assert.Equal(t, "p1", created["id"])
	assert.Equal(t, "Hello", created["title"])
	assert.Equal(t, "<p>Hi</p>", created["body"])
	assert.Contains(t, created, "author")

	updated, err := ops.Update(ctx, collection.Args{ID: "p1", Data: orm.Row{"body": "new"}})
	require.NoError(t, err)
	assert.Equal(t, "new", updated["body"])
	assert.Equal(t, "Hello", updated["title"])

	found, err := ops.FindOne(ctx, collection.Args{ID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, updated, found)

	page, err := ops.FindMany(ctx, collection.Args{Query: orm.ListQuery{Where: map[string]any{"body": "new"}}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	deleted, err := ops.Delete(ctx, collection.Args{ID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "p1", deleted["id"])

	_, err = ops.FindOne(ctx, collection.Args{ID: "p1"})
	require.ErrorIs(t, err, orm.ErrNotFound)

	_, err = ops.Update(ctx, collection.Args{Data: orm.Row{"title": "x"}})
	require.ErrorIs(t, err, collection.ErrMissingID)
}

func TestInputValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newBuilder(t, newMemRepo()).MustCollection("posts", collection.Config{Fields: postFields()})

	_, err := c.API().Create(ctx, collection.Args{Data: orm.Row{
		"body":      "x",
		"secret":    1,
		"createdAt": "2024-01-01",
		"author":    "me",
	}})
	require.Error(t, err)

	ve := validator.ExtractValidationErrors(err)
	require.NotNil(t, ve)
	assert.True(t, ve.Has("title"), "required on create")
	assert.True(t, ve.Has("secret"), "unknown field")
	assert.True(t, ve.Has("createdAt"), "read only")
	assert.True(t, ve.Has("author"), "relation is read only")

	_, err = c.API().Update(ctx, collection.Args{ID: "p1", Data: orm.Row{"title": ""}})
	assert.True(t, validator.ExtractValidationErrors(err).Has("title"))

	_, err = c.API().FindMany(ctx, collection.Args{Query: orm.ListQuery{OrderBy: "nope", OrderType: "up", Limit: -1}})
	ve = validator.ExtractValidationErrors(err)
	assert.True(t, ve.Has("orderBy"))
	assert.True(t, ve.Has("orderType"))
	assert.True(t, ve.Has("limit"))
}

func TestServerSideValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemRepo()
	c := newBuilder(t, repo).MustCollection("posts", collection.Config{Fields: postFields()[:2]})

	_, err := c.API().Create(ctx, collection.Args{Data: orm.Row{"title": "one", "authorId": "u1"}})
	assert.True(t, validator.ExtractValidationErrors(err).Has("authorId"), "undeclared in client data")

	row, err := c.API().Create(ctx, collection.Args{
		Data: orm.Row{"title": "one"},
		Set:  orm.Row{"authorId": "u1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", repo.rows[row["id"].(string)]["authorId"])
	assert.NotContains(t, row, "authorId")

	_, err = c.API().Update(ctx, collection.Args{ID: row["id"].(string), Set: orm.Row{"authorId": "u2"}})
	require.NoError(t, err)
	assert.Equal(t, "u2", repo.rows[row["id"].(string)]["authorId"])

	_, err = c.API().Create(ctx, collection.Args{Data: orm.Row{"title": "two"}, Set: orm.Row{"nope": 1}})
	require.ErrorIs(t, err, collection.ErrUnknownColumn)
}

func TestOverridesWithFallback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	passthrough := collection.Overrides{
		Create: func(ctx context.Context, a collection.Args, fb collection.RowFunc) (orm.Row, error) {
			return fb(ctx, a)
		},
		Update: func(ctx context.Context, a collection.Args, fb collection.RowFunc) (orm.Row, error) {
			return fb(ctx, a)
		},
		Delete: func(ctx context.Context, a collection.Args, fb collection.RowFunc) (orm.Row, error) {
			return fb(ctx, a)
		},
		FindOne: func(ctx context.Context, a collection.Args, fb collection.RowFunc) (orm.Row, error) {
			return fb(ctx, a)
		},
		FindMany: func(ctx context.Context, a collection.Args, fb collection.ListFunc) (*orm.Page, error) {
			return fb(ctx, a)
		},
	}

	plain := newBuilder(t, newMemRepo()).MustCollection("posts", collection.Config{Fields: postFields()})
	overridden := newBuilder(t, newMemRepo()).MustCollection("posts", collection.Config{Fields: postFields(), API: passthrough})

	run := func(ops collection.API) []any {
		var results []any
		create := collection.Args{Data: orm.Row{"title": "one", "body": "<p>b</p>"}}
		r, err := ops.Create(ctx, create)
		results = append(results, r, err)
		r, err = ops.Update(ctx, collection.Args{ID: "p1", Data: orm.Row{"title": "two"}})
		results = append(results, r, err)
		r, err = ops.FindOne(ctx, collection.Args{ID: "p1"})
		results = append(results, r, err)
		p, err := ops.FindMany(ctx, collection.Args{})
		results = append(results, p, err)
		r, err = ops.Delete(ctx, collection.Args{ID: "p1"})
		results = append(results, r, err)
		r, err = ops.FindOne(ctx, collection.Args{ID: "p1"})
		results = append(results, r, err)
		return results
	}

	assert.Equal(t, run(plain.API()), run(overridden.API()))
}

func TestOverrideAroundDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var calls []string

	c := newBuilder(t, newMemRepo()).MustCollection("posts", collection.Config{
		Fields: postFields(),
		API: collection.Overrides{
			Create: func(ctx context.Context, args collection.Args, fallback collection.RowFunc) (orm.Row, error) {
				require.NotNil(t, fallback)
				calls = append(calls, "before")
				args.Data["title"] = "forced"
				row, err := fallback(ctx, args)
				calls = append(calls, "after")
				return row, err
			},
		},
	})

	row, err := c.API().Create(ctx, collection.Args{Data: orm.Row{"title": "mine"}})
	require.NoError(t, err)
	assert.Equal(t, "forced", row["title"])
	assert.Equal(t, []string{"before", "after"}, calls)

	raw, err := c.Defaults().Create(ctx, collection.Args{Data: orm.Row{"title": "mine"}})
	require.NoError(t, err)
	assert.Equal(t, "mine", raw["title"])
	assert.Len(t, calls, 2)
}

func TestAccessHook(t *testing.T) {
	t.Parallel()

	errDenied := errors.New("denied")
	var seen []collection.Operation

	c := newBuilder(t, newMemRepo()).MustCollection("posts", collection.Config{
		Fields: postFields(),
		Access: func(_ context.Context, op collection.Operation, args collection.Args) error {
			seen = append(seen, op)
			assert.Equal(t, "posts", args.Slug)
			if op == collection.OpDelete {
				return errDenied
			}
			return nil
		},
	})

	ctx := context.Background()
	_, err := c.API().Create(ctx, collection.Args{Data: orm.Row{"title": "x"}})
	require.NoError(t, err)
	_, err = c.API().FindMany(ctx, collection.Args{})
	require.NoError(t, err)
	_, err = c.API().Delete(ctx, collection.Args{ID: "p1"})
	require.ErrorIs(t, err, errDenied)

	assert.Equal(t, []collection.Operation{collection.OpCreate, collection.OpFindMany, collection.OpDelete}, seen)

	_, err = c.Defaults().Delete(ctx, collection.Args{ID: "p1"})
	require.NoError(t, err, "defaults bypass the hook")
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	custom := api.NewRouter().Handle("publish", api.NewRoute(
		api.Schema{Method: http.MethodPost, Path: "/posts/:id/publish"},
		func(context.Context, *api.Call) (*api.Response, error) { return api.JSON(http.StatusOK, nil), nil },
	))
	c := newBuilder(t, newMemRepo()).MustCollection("posts", collection.Config{Fields: postFields(), Endpoints: custom})

	routes, err := c.Routes()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"posts.create", "posts.delete", "posts.findMany", "posts.findOne", "posts.options", "posts.publish", "posts.update",
	}, routes.IDs())

	want := map[string]string{
		"posts.create":   "POST /api/posts",
		"posts.update":   "PATCH /api/posts/:id",
		"posts.delete":   "DELETE /api/posts/:id",
		"posts.findOne":  "GET /api/posts/:id",
		"posts.findMany": "GET /api/posts",
		"posts.options":  "GET /api/posts/options/:field",
		"posts.publish":  "POST /api/posts/:id/publish",
	}
	routes.Each(func(id string, r api.Route) {
		assert.Equal(t, want[id], r.Schema.Method+" "+r.Schema.Path)
		require.NoError(t, api.CheckPrefix(r.Schema.Path, api.Prefix))
	})

	ctx := context.Background()
	create, _ := routes.Lookup("posts.create")
	resp, err := create.Handler(ctx, &api.Call{RawBody: json.RawMessage(`{"title":"From HTTP"}`)})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "From HTTP", resp.Body.(orm.Row)["title"])

	list, _ := routes.Lookup("posts.findMany")
	resp, err = list.Handler(ctx, &api.Call{Query: url.Values{"limit": {"5"}, "orderType": {"DESC"}, "title": {"From HTTP"}}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.Body.(*orm.Page).Total)

	_, err = list.Handler(ctx, &api.Call{Query: url.Values{"limit": {"ten"}}})
	assert.True(t, validator.ExtractValidationErrors(err).Has("limit"))

	one, _ := routes.Lookup("posts.findOne")
	resp, err = one.Handler(ctx, &api.Call{PathParams: map[string]string{"id": "p1"}})
	require.NoError(t, err)
	assert.Equal(t, "p1", resp.Body.(orm.Row)["id"])
}

func TestFieldOptions(t *testing.T) {
	t.Parallel()

	fields := []collection.Field{
		{Name: "title", Type: collection.Text},
		{Name: "status", Column: "content", Type: collection.Select, Choices: []collection.Choice{{Label: "Draft", Value: "draft"}},
			Options: func(_ context.Context, app *api.Context) ([]collection.Choice, error) {
				return []collection.Choice{{Label: "Live", Value: api.ValueOf[string](app, "live")}}, nil
			}},
	}
	c := newBuilder(t, newMemRepo()).MustCollection("posts", collection.Config{Fields: fields})
	routes, err := c.Routes()
	require.NoError(t, err)
	options, ok := routes.Lookup("posts.options")
	require.True(t, ok)

	app := api.NewContext(api.WithValue("live", "published"))
	resp, err := options.Handler(context.Background(), &api.Call{App: app, PathParams: map[string]string{"field": "status"}})
	require.NoError(t, err)
	assert.Equal(t, []collection.Choice{
		{Label: "Draft", Value: "draft"},
		{Label: "Live", Value: "published"},
	}, resp.Body)

	_, err = options.Handler(context.Background(), &api.Call{App: app, PathParams: map[string]string{"field": "nope"}})
	assert.ErrorIs(t, err, collection.ErrFieldNotFound)

	plain := newBuilder(t, newMemRepo()).MustCollection("posts", collection.Config{Fields: fields[:1]})
	routes, err = plain.Routes()
	require.NoError(t, err)
	_, ok = routes.Lookup("posts.options")
	assert.False(t, ok)
}

func TestClientFailsWithoutRoutes(t *testing.T) {
	t.Parallel()

	c := newBuilder(t, newMemRepo()).MustCollection("posts", collection.Config{
		Slug:   "api",
		Fields: postFields(),
	})

	_, err := c.Client()
	require.ErrorIs(t, err, api.ErrAlreadyPrefixed)
}

func TestClientProjection(t *testing.T) {
	t.Parallel()

	c := newBuilder(t, newMemRepo()).MustCollection("posts", collection.Config{
		Fields: postFields(),
		Admin:  collection.Admin{Group: "content", ListColumns: []string{"title"}},
	})

	client, err := c.Client()
	require.NoError(t, err)
	require.Len(t, client.Fields, 5)

	title := client.Fields[0]
	assert.Equal(t, "title", title.Label)
	assert.Equal(t, "title", title.Placeholder)

	body := client.Fields[1]
	assert.Equal(t, "Body", body.Label)
	assert.Equal(t, "body", body.Placeholder)

	author := client.Fields[4]
	assert.Equal(t, collection.Relation, author.Type)
	require.Len(t, author.Fields, 1)
	assert.Equal(t, "name", author.Fields[0].Label)

	data, err := json.Marshal(client)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))

	for _, key := range []string{"admin", "_", "table", "api", "defaults", "access"} {
		assert.NotContains(t, generic, key)
	}
	assert.NotContains(t, string(data), `"column"`)
	assert.NotContains(t, string(data), `"options"`)
	assert.NotContains(t, string(data), `"content"`, "source column name must not leak")
	assert.Contains(t, generic["endpoints"], "posts.findMany")
}
