package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/orm"
	"github.com/dmitrymomot/tabula/pkg/validator"
)

// ListParams are the query parameters of findMany.
type ListParams struct {
	OrderBy   string `json:"orderBy,omitempty"`
	OrderType string `json:"orderType,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// Routes returns the CRUD routes followed by the custom endpoints.
// Identifiers are "<slug>.<operation>".
func (c *Collection) Routes() (*api.Router, error) {
	r := api.NewRouter()
	base := "/" + c.Slug
	item := base + "/:id"

	crud := []struct {
		op      Operation
		schema  api.Schema
		handler api.Handler
	}{
		{OpCreate, c.rowSchema(http.MethodPost, base, true), c.handleCreate},
		{OpUpdate, c.rowSchema(http.MethodPatch, item, true), c.handleUpdate},
		{OpDelete, c.rowSchema(http.MethodDelete, item, false), c.handleRow(OpDelete)},
		{OpFindOne, c.rowSchema(http.MethodGet, item, false), c.handleRow(OpFindOne)},
		{OpFindMany, c.listSchema(base), c.handleFindMany},
	}
	for _, e := range crud {
		route, err := api.NewRoute(e.schema, e.handler).WithPrefix(c.prefix)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", c.Slug, err)
		}
		r.Handle(api.ID(c.Slug, string(e.op)), route)
	}

	if c.hasOptions() {
		route, err := api.NewRoute(api.Schema{
			Method:    http.MethodGet,
			Path:      base + "/options/:field",
			Responses: map[int]*api.Shape{http.StatusOK: api.ShapeOf[[]Choice]()},
		}, c.handleOptions).WithPrefix(c.prefix)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", c.Slug, err)
		}
		r.Handle(api.ID(c.Slug, "options"), route)
	}

	c.endpoints.Each(func(id string, route api.Route) {
		r.Handle(api.ID(c.Slug, id), route)
	})
	return r, nil
}

func (c *Collection) rowSchema(method, path string, body bool) api.Schema {
	s := api.Schema{
		Method:    method,
		Path:      path,
		Responses: map[int]*api.Shape{http.StatusOK: api.ShapeOf[orm.Row]()},
	}
	if body {
		s.Body = api.ShapeOf[orm.Row]()
	}
	return s
}

func (c *Collection) listSchema(path string) api.Schema {
	return api.Schema{
		Method:    http.MethodGet,
		Path:      path,
		Query:     api.ShapeOf[ListParams](),
		Responses: map[int]*api.Shape{http.StatusOK: api.ShapeOf[orm.Page]()},
	}
}

func (c *Collection) args(call *api.Call) Args {
	return Args{Context: call.App, Call: call, ID: call.Param("id")}
}

func decodeData(raw json.RawMessage) (orm.Row, error) {
	data := orm.Row{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", api.ErrInvalidBody, err)
	}
	return data, nil
}

func (c *Collection) handleCreate(ctx context.Context, call *api.Call) (*api.Response, error) {
	args := c.args(call)
	data, err := decodeData(call.RawBody)
	if err != nil {
		return nil, err
	}
	args.Data = data
	row, err := c.api.Create(ctx, args)
	if err != nil {
		return nil, err
	}
	return api.JSON(http.StatusOK, row), nil
}

func (c *Collection) handleUpdate(ctx context.Context, call *api.Call) (*api.Response, error) {
	args := c.args(call)
	data, err := decodeData(call.RawBody)
	if err != nil {
		return nil, err
	}
	args.Data = data
	row, err := c.api.Update(ctx, args)
	if err != nil {
		return nil, err
	}
	return api.JSON(http.StatusOK, row), nil
}

func (c *Collection) handleRow(op Operation) api.Handler {
	return func(ctx context.Context, call *api.Call) (*api.Response, error) {
		fn := c.api.FindOne
		if op == OpDelete {
			fn = c.api.Delete
		}
		row, err := fn(ctx, c.args(call))
		if err != nil {
			return nil, err
		}
		return api.JSON(http.StatusOK, row), nil
	}
}

func (c *Collection) handleFindMany(ctx context.Context, call *api.Call) (*api.Response, error) {
	q, err := parseListQuery(call.Query)
	if err != nil {
		return nil, err
	}
	args := c.args(call)
	args.Query = q
	page, err := c.api.FindMany(ctx, args)
	if err != nil {
		return nil, err
	}
	return api.JSON(http.StatusOK, page), nil
}

func (c *Collection) hasOptions() bool {
	for _, f := range c.Fields {
		if f.Options != nil {
			return true
		}
	}
	return false
}

// handleOptions lists the static choices of a field followed by the ones
// its OptionsFunc loads.
func (c *Collection) handleOptions(ctx context.Context, call *api.Call) (*api.Response, error) {
	name := call.Param("field")
	for _, f := range c.Fields {
		if f.Name != name {
			continue
		}
		out := append([]Choice{}, f.Choices...)
		if f.Options != nil {
			loaded, err := f.Options(ctx, call.App)
			if err != nil {
				return nil, err
			}
			out = append(out, loaded...)
		}
		return api.JSON(http.StatusOK, out), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, name)
}

// parseListQuery reads paging and ordering; every other parameter is an
// equality filter on the field of the same name.
func parseListQuery(values map[string][]string) (orm.ListQuery, error) {
	var (
		q    orm.ListQuery
		errs validator.ValidationErrors
	)
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		v := vals[0]
		switch key {
		case "limit", "offset":
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, validator.ValidationError{
					Field: key, Message: "must be an integer", TranslationKey: "validation.integer",
					TranslationValues: map[string]any{"field": key},
				})
				continue
			}
			if key == "limit" {
				q.Limit = n
			} else {
				q.Offset = n
			}
		case "orderBy":
			q.OrderBy = v
		case "orderType":
			q.OrderType = strings.ToLower(v)
		default:
			if q.Where == nil {
				q.Where = map[string]any{}
			}
			q.Where[key] = v
		}
	}
	if len(errs) > 0 {
		return q, errs
	}
	return q, nil
}
