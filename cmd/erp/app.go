package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/dmitrymomot/tabula"
	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/collection"
	"github.com/dmitrymomot/tabula/pkg/cookie"
	"github.com/dmitrymomot/tabula/pkg/db"
	"github.com/dmitrymomot/tabula/pkg/oauth"
	"github.com/dmitrymomot/tabula/pkg/orm"
	"github.com/dmitrymomot/tabula/pkg/sanitizer"
	"github.com/dmitrymomot/tabula/pkg/schema"
)

// deps are the runtime collaborators of the server configuration.
// DB may be nil; collections then fail at call time unless Collections
// carries a repository.
type deps struct {
	DB          db.Querier
	Stores      *auth.Stores
	Notifier    auth.Notifier
	Cookies     *cookie.Manager
	Logger      *slog.Logger
	Providers   []oauth.Provider
	Collections []collection.Option
}

type visitsKey struct{}

// newServerConfig loads the schema and assembles collections, auth and the
// custom endpoints.
func newServerConfig(cfg Config, d deps) (*tabula.ServerConfig, error) {
	s, err := schema.Load(schemaFS, "schema.yaml")
	if err != nil {
		return nil, err
	}

	authOpts := []auth.Option{auth.WithProviders(d.Providers...)}
	if d.Cookies != nil {
		authOpts = append(authOpts, auth.WithCookies(d.Cookies))
	}
	if d.Notifier != nil {
		authOpts = append(authOpts, auth.WithNotifier(d.Notifier))
	}

	base := tabula.DefineBaseConfig(
		tabula.WithDB(d.DB),
		tabula.WithSchema(s),
		tabula.WithBaseLogger(d.Logger),
		tabula.WithAuthStores(d.Stores),
		tabula.WithAuth(cfg.Auth, authOpts...),
		tabula.WithValue(visitsKey{}, api.NewVar(0)),
	)

	collections, err := buildCollections(s, d.Stores, sessionCookie(cfg.Auth),
		append([]collection.Option{collection.WithLogger(d.Logger)}, d.Collections...)...)
	if err != nil {
		return nil, err
	}
	return tabula.DefineServerConfig(base, collections, tabula.WithEndpoints(endpoints()))
}

func sessionCookie(cfg auth.Config) string {
	if cfg.Session.CookieName != "" {
		return cfg.Session.CookieName
	}
	return auth.DefaultSessionCookie
}

func buildCollections(s *schema.Schema, stores *auth.Stores, cookieName string, opts ...collection.Option) ([]*collection.Collection, error) {
	b := collection.NewBuilder(s, opts...)
	owner := ownerStamp(stores, cookieName)

	posts, err := b.Collection("posts", collection.Config{
		Label:            "Posts",
		IdentifierColumn: "title",
		Fields: []collection.Field{
			{Name: "title", Type: collection.Text, Label: "Title", Required: true, Sanitize: sanitizer.Plain},
			{Name: "content", Type: collection.RichText, Label: "Content", Sanitize: sanitizer.RichText},
			{Name: "categoryId", Type: collection.Select, Label: "Category", Options: categoryChoices(s)},
		},
		Admin: collection.Admin{Group: "Content", Icon: "file-text", ListColumns: []string{"title", "createdAt"}},
		API: collection.Overrides{
			Create: func(ctx context.Context, args collection.Args, fallback collection.RowFunc) (orm.Row, error) {
				return owner(ctx, args, "authorId", fallback)
			},
		},
	})
	if err != nil {
		return nil, err
	}

	categories, err := b.Collection("categories", collection.Config{
		Label:            "Categories",
		IdentifierColumn: "name",
		Fields: []collection.Field{
			{Name: "name", Type: collection.Text, Label: "Name", Required: true, Sanitize: sanitizer.Plain},
		},
		Admin: collection.Admin{Group: "Content", Icon: "folder"},
		API: collection.Overrides{
			Create: func(ctx context.Context, args collection.Args, fallback collection.RowFunc) (orm.Row, error) {
				return owner(ctx, args, "ownerId", fallback)
			},
		},
	})
	if err != nil {
		return nil, err
	}

	tags, err := b.Collection("categoryTags", collection.Config{
		Label:            "Category tags",
		IdentifierColumn: "name",
		Fields: []collection.Field{
			{Name: "name", Type: collection.Text, Label: "Name", Required: true, Sanitize: sanitizer.Plain},
			{Name: "category", Type: collection.Select, Label: "Category", Required: true, Options: categoryChoices(s)},
		},
		Admin: collection.Admin{Group: "Content", Icon: "tag"},
	})
	if err != nil {
		return nil, err
	}

	return []*collection.Collection{posts, categories, tags}, nil
}

// ownerStamp sets column to the signed-in user before running fallback.
// The column is not a declared field, so it travels in args.Set.
// Anonymous calls are rejected.
func ownerStamp(stores *auth.Stores, cookieName string) func(ctx context.Context, args collection.Args, column string, fallback collection.RowFunc) (orm.Row, error) {
	return func(ctx context.Context, args collection.Args, column string, fallback collection.RowFunc) (orm.Row, error) {
		c, ok := args.Call.Cookie(cookieName)
		if !ok {
			return nil, tabula.ErrUnauthorized("sign in to create " + args.Slug)
		}
		sess, err := stores.Sessions.FindByToken(ctx, c.Value)
		if err != nil || sess.Expired(time.Now()) {
			return nil, tabula.ErrUnauthorized("sign in to create " + args.Slug)
		}

		set := maps.Clone(args.Set)
		if set == nil {
			set = orm.Row{}
		}
		set[column] = sess.UserID
		args.Set = set
		return fallback(ctx, args)
	}
}

func categoryChoices(s *schema.Schema) collection.OptionsFunc {
	return func(ctx context.Context, app *api.Context) ([]collection.Choice, error) {
		t, err := orm.NewTable(s, "categories", app.DB())
		if err != nil {
			return nil, err
		}
		page, err := t.FindMany(ctx, orm.ListQuery{Limit: 100})
		if err != nil {
			return nil, err
		}
		out := make([]collection.Choice, 0, len(page.Data))
		for _, row := range page.Data {
			out = append(out, collection.Choice{
				Label: fmt.Sprint(row["name"]),
				Value: fmt.Sprint(row["id"]),
			})
		}
		return out, nil
	}
}

// HelloResponse is the body of the hello endpoint.
type HelloResponse struct {
	Message string `json:"message"`
	Visits  int    `json:"visits"`
}

// endpoints are the custom routes of the application. Paths get the API
// prefix when the server config is defined.
func endpoints() *api.Router {
	hello := api.NewRoute(api.Schema{
		Method: http.MethodGet,
		Path:   "/hello",
		Query: api.ShapeOf[struct {
			Name string `json:"name,omitempty"`
		}](),
		Responses: map[int]*api.Shape{http.StatusOK: api.ShapeOf[HelloResponse]()},
	}, func(_ context.Context, call *api.Call) (*api.Response, error) {
		name := call.Query.Get("name")
		if name == "" {
			name = "world"
		}
		visits := api.ValueOf[*api.Var[int]](call.App, visitsKey{})
		n := 0
		if visits != nil {
			n = visits.Update(func(v int) int { return v + 1 })
		}
		return api.JSON(http.StatusOK, HelloResponse{Message: "Hello, " + name + "!", Visits: n}), nil
	})

	return api.NewRouter().Handle("hello", hello)
}
