package collection

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/orm"
	"github.com/dmitrymomot/tabula/pkg/schema"
)

// Repository is the data access a collection needs. *orm.Table implements it.
type Repository interface {
	Insert(ctx context.Context, values orm.Row) (orm.Row, error)
	Update(ctx context.Context, id any, values orm.Row) (orm.Row, error)
	Delete(ctx context.Context, id any) (orm.Row, error)
	FindOne(ctx context.Context, id any, opts ...orm.QueryOption) (orm.Row, error)
	FindMany(ctx context.Context, q orm.ListQuery) (*orm.Page, error)
}

// Operation names a CRUD operation.
type Operation string

const (
	OpCreate   Operation = "create"
	OpUpdate   Operation = "update"
	OpDelete   Operation = "delete"
	OpFindOne  Operation = "findOne"
	OpFindMany Operation = "findMany"
)

// Args are the inputs of a CRUD operation.
// ID is set for update, delete and findOne; Data for create and update;
// Query for findMany. Set holds server side values keyed by column; create
// and update write them after Data is validated, so they may target columns
// that no field declares.
type Args struct {
	Context *api.Context
	Call    *api.Call
	Data    orm.Row
	Set     orm.Row
	Slug    string
	ID      string
	Query   orm.ListQuery
}

// RowFunc is a create, update, delete or findOne operation.
type RowFunc func(ctx context.Context, args Args) (orm.Row, error)

// ListFunc is a findMany operation.
type ListFunc func(ctx context.Context, args Args) (*orm.Page, error)

// API is the set of CRUD operations of a collection.
type API struct {
	Create   RowFunc
	Update   RowFunc
	Delete   RowFunc
	FindOne  RowFunc
	FindMany ListFunc
}

// RowOverride replaces a row operation. fallback is the default operation.
type RowOverride func(ctx context.Context, args Args, fallback RowFunc) (orm.Row, error)

// ListOverride replaces findMany. fallback is the default operation.
type ListOverride func(ctx context.Context, args Args, fallback ListFunc) (*orm.Page, error)

// Overrides holds optional per operation replacements.
type Overrides struct {
	Create   RowOverride
	Update   RowOverride
	Delete   RowOverride
	FindOne  RowOverride
	FindMany ListOverride
}

// AccessFunc runs before every operation; a non-nil error aborts it.
// It is a hook, not a policy: nil allows everything.
type AccessFunc func(ctx context.Context, op Operation, args Args) error

// Admin is server side presentation metadata.
type Admin struct {
	Group       string
	Icon        string
	ListColumns []string
	Hidden      bool
}

// Config declares a collection.
type Config struct {
	API              Overrides
	Access           AccessFunc
	Endpoints        *api.Router
	Slug             string
	Label            string
	IdentifierColumn string
	Fields           []Field
	Admin            Admin
}

// Collection is a table exposed through the API.
type Collection struct {
	access     AccessFunc
	repository RepositoryFunc
	schema     *schema.Schema
	table      *schema.Table
	logger     *slog.Logger
	endpoints  *api.Router
	api        API
	defaults   API
	Slug       string
	Label      string
	prefix     string

	IdentifierColumn string
	Fields           []Field
	admin            Admin
}

// API returns the effective operations, overrides included.
func (c *Collection) API() API {
	return c.api
}

// Defaults returns the built-in operations regardless of overrides.
func (c *Collection) Defaults() API {
	return c.defaults
}

// Table returns the source table.
func (c *Collection) Table() *schema.Table {
	return c.table
}

// Admin returns the admin metadata.
func (c *Collection) Admin() Admin {
	return c.admin
}

// Field looks a field up by name.
func (c *Collection) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (c *Collection) guard(op Operation, fn RowFunc) RowFunc {
	return func(ctx context.Context, args Args) (orm.Row, error) {
		args.Slug = c.Slug
		if c.access != nil {
			if err := c.access(ctx, op, args); err != nil {
				return nil, err
			}
		}
		return fn(ctx, args)
	}
}

func overrideRow(def RowFunc, o RowOverride) RowFunc {
	if o == nil {
		return def
	}
	return func(ctx context.Context, args Args) (orm.Row, error) {
		return o(ctx, args, def)
	}
}

func (c *Collection) effectiveAPI(o Overrides) API {
	findMany := c.defaults.FindMany
	if o.FindMany != nil {
		def := c.defaults.FindMany
		findMany = func(ctx context.Context, args Args) (*orm.Page, error) {
			return o.FindMany(ctx, args, def)
		}
	}
	guardedList := func(ctx context.Context, args Args) (*orm.Page, error) {
		args.Slug = c.Slug
		if c.access != nil {
			if err := c.access(ctx, OpFindMany, args); err != nil {
				return nil, err
			}
		}
		return findMany(ctx, args)
	}

	return API{
		Create:   c.guard(OpCreate, overrideRow(c.defaults.Create, o.Create)),
		Update:   c.guard(OpUpdate, overrideRow(c.defaults.Update, o.Update)),
		Delete:   c.guard(OpDelete, overrideRow(c.defaults.Delete, o.Delete)),
		FindOne:  c.guard(OpFindOne, overrideRow(c.defaults.FindOne, o.FindOne)),
		FindMany: guardedList,
	}
}
