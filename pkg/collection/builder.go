package collection

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/orm"
	"github.com/dmitrymomot/tabula/pkg/schema"
)

// RepositoryFunc resolves the data access object for a table at call time.
type RepositoryFunc func(app *api.Context, table *schema.Table) (Repository, error)

// Builder creates collections and endpoints for one schema.
type Builder struct {
	schema     *schema.Schema
	repository RepositoryFunc
	logger     *slog.Logger
	prefix     string
}

// Option configures a Builder.
type Option func(*Builder)

// WithRepository replaces the default pgx backed repository.
func WithRepository(fn RepositoryFunc) Option {
	return func(b *Builder) {
		b.repository = fn
	}
}

// WithLogger sets the builder logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l.With("component", "collection")
	}
}

// WithPrefix changes the route prefix. Defaults to api.Prefix.
func WithPrefix(prefix string) Option {
	return func(b *Builder) {
		b.prefix = prefix
	}
}

// NewBuilder returns a builder for s.
func NewBuilder(s *schema.Schema, opts ...Option) *Builder {
	b := &Builder{
		schema: s,
		prefix: api.Prefix,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	b.repository = b.ormRepository
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Schema returns the builder schema.
func (b *Builder) Schema() *schema.Schema {
	return b.schema
}

// Endpoint builds a route with the builder prefix applied to its path.
func (b *Builder) Endpoint(s api.Schema, h api.Handler) (api.Route, error) {
	return api.NewRoute(s, h).WithPrefix(b.prefix)
}

// MustEndpoint is like Endpoint but panics on error.
func (b *Builder) MustEndpoint(s api.Schema, h api.Handler) api.Route {
	r, err := b.Endpoint(s, h)
	if err != nil {
		panic(err)
	}
	return r
}

func (b *Builder) ormRepository(app *api.Context, table *schema.Table) (Repository, error) {
	if app == nil || app.DB() == nil {
		return nil, ErrNoDatabase
	}
	return orm.NewTable(b.schema, table.Key, app.DB())
}

// Collection binds the table with the given key into a collection.
func (b *Builder) Collection(tableKey string, cfg Config) (*Collection, error) {
	table, ok := b.schema.Table(tableKey)
	if !ok {
		return nil, fmt.Errorf("%w: Table %s not found", ErrTableNotFound, tableKey)
	}
	if err := b.checkFields(table, cfg.Fields); err != nil {
		return nil, err
	}

	c := &Collection{
		Slug:             cfg.Slug,
		Label:            cfg.Label,
		Fields:           cfg.Fields,
		IdentifierColumn: cfg.IdentifierColumn,
		schema:           b.schema,
		table:            table,
		admin:            cfg.Admin,
		access:           cfg.Access,
		repository:       b.repository,
		logger:           b.logger,
		prefix:           b.prefix,
		endpoints:        api.NewRouter(),
	}
	if c.Slug == "" {
		c.Slug = table.Key
	}
	if c.Label == "" {
		c.Label = labelFromSlug(c.Slug)
	}
	if c.IdentifierColumn == "" {
		c.IdentifierColumn = table.PrimaryKey().Key
	}

	c.defaults = c.defaultAPI()
	c.api = c.effectiveAPI(cfg.API)

	if cfg.Endpoints != nil {
		var err error
		cfg.Endpoints.Each(func(id string, route api.Route) {
			if err != nil {
				return
			}
			if !route.Schema.Prefixed() {
				if route, err = route.WithPrefix(b.prefix); err != nil {
					return
				}
			}
			c.endpoints.Handle(id, route)
		})
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

// MustCollection is like Collection but panics on error.
func (b *Builder) MustCollection(tableKey string, cfg Config) *Collection {
	c, err := b.Collection(tableKey, cfg)
	if err != nil {
		panic(err)
	}
	return c
}

func (b *Builder) checkFields(table *schema.Table, fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateField, table.Key, f.Name)
		}
		seen[f.Name] = struct{}{}

		if !f.isRelation() {
			if _, ok := table.Column(f.column()); !ok {
				return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table.Key, f.column())
			}
			continue
		}

		rel, ok := table.Relation(f.relationName())
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownRelation, table.Key, f.relationName())
		}
		if f.Relation == nil {
			continue
		}
		target, _ := b.schema.Table(rel.Table)
		if err := b.checkFields(target, f.Relation.Fields); err != nil {
			return err
		}
	}
	return nil
}
