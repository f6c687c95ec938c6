package collection

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrymomot/tabula/pkg/orm"
	"github.com/dmitrymomot/tabula/pkg/sanitizer"
	"github.com/dmitrymomot/tabula/pkg/schema"
	"github.com/dmitrymomot/tabula/pkg/validator"
)

func (c *Collection) defaultAPI() API {
	return API{
		Create:   c.create,
		Update:   c.update,
		Delete:   c.delete,
		FindOne:  c.findOne,
		FindMany: c.findMany,
	}
}

func (c *Collection) repo(args Args) (Repository, error) {
	return c.repository(args.Context, c.table)
}

func (c *Collection) create(ctx context.Context, args Args) (orm.Row, error) {
	values, err := c.input(args.Data, args.Set, true)
	if err != nil {
		return nil, err
	}
	repo, err := c.repo(args)
	if err != nil {
		return nil, err
	}
	row, err := repo.Insert(ctx, values)
	if err != nil {
		return nil, err
	}
	return c.output(c.table, c.Fields, row), nil
}

func (c *Collection) update(ctx context.Context, args Args) (orm.Row, error) {
	if args.ID == "" {
		return nil, ErrMissingID
	}
	values, err := c.input(args.Data, args.Set, false)
	if err != nil {
		return nil, err
	}
	repo, err := c.repo(args)
	if err != nil {
		return nil, err
	}
	row, err := repo.Update(ctx, args.ID, values)
	if err != nil {
		return nil, err
	}
	return c.output(c.table, c.Fields, row), nil
}

func (c *Collection) delete(ctx context.Context, args Args) (orm.Row, error) {
	if args.ID == "" {
		return nil, ErrMissingID
	}
	repo, err := c.repo(args)
	if err != nil {
		return nil, err
	}
	row, err := repo.Delete(ctx, args.ID)
	if err != nil {
		return nil, err
	}
	return c.output(c.table, c.Fields, row), nil
}

func (c *Collection) findOne(ctx context.Context, args Args) (orm.Row, error) {
	if args.ID == "" {
		return nil, ErrMissingID
	}
	repo, err := c.repo(args)
	if err != nil {
		return nil, err
	}
	row, err := repo.FindOne(ctx, args.ID, orm.With(c.relations()...))
	if err != nil {
		return nil, err
	}
	return c.output(c.table, c.Fields, row), nil
}

func (c *Collection) findMany(ctx context.Context, args Args) (*orm.Page, error) {
	q, err := c.listQuery(args.Query)
	if err != nil {
		return nil, err
	}
	repo, err := c.repo(args)
	if err != nil {
		return nil, err
	}
	page, err := repo.FindMany(ctx, q)
	if err != nil {
		return nil, err
	}
	out := &orm.Page{Data: make([]orm.Row, 0, len(page.Data)), Total: page.Total}
	for _, row := range page.Data {
		out.Data = append(out.Data, c.output(c.table, c.Fields, row))
	}
	return out, nil
}

func (c *Collection) relations() []string {
	var names []string
	for _, f := range c.Fields {
		if f.isRelation() {
			names = append(names, f.relationName())
		}
	}
	return names
}

// listQuery maps field names in filters and ordering to column keys.
func (c *Collection) listQuery(q orm.ListQuery) (orm.ListQuery, error) {
	var errs validator.ValidationErrors

	out := q
	out.With = c.relations()
	if q.OrderBy != "" {
		if col, ok := c.columnOf(q.OrderBy); ok {
			out.OrderBy = col
		} else {
			errs = append(errs, unknownField("orderBy"))
		}
	}
	if len(q.Where) > 0 {
		out.Where = make(map[string]any, len(q.Where))
		for _, name := range sortedNames(q.Where) {
			col, ok := c.columnOf(name)
			if !ok {
				errs = append(errs, unknownField(name))
				continue
			}
			out.Where[col] = q.Where[name]
		}
	}
	if err := validator.Apply(
		validator.OneOf("orderType", q.OrderType, orm.Asc, orm.Desc),
		validator.MinNum("limit", q.Limit, 0),
		validator.MaxNum("limit", q.Limit, orm.MaxLimit),
		validator.MinNum("offset", q.Offset, 0),
	); err != nil {
		errs = append(errs, validator.ExtractValidationErrors(err)...)
	}
	if len(errs) > 0 {
		return q, errs
	}
	return out, nil
}

// columnOf resolves a field name, or the primary key, to a column key.
func (c *Collection) columnOf(name string) (string, bool) {
	if f, ok := c.Field(name); ok && !f.isRelation() {
		return f.column(), true
	}
	if pk := c.table.PrimaryKey().Key; name == pk {
		return pk, true
	}
	return "", false
}

// input validates and maps written data from field names to column keys.
// set is merged last, by column key, and is not subject to field rules.
func (c *Collection) input(data, set orm.Row, creating bool) (orm.Row, error) {
	var errs validator.ValidationErrors
	values := make(orm.Row, len(data))

	for _, name := range sortedNames(data) {
		f, ok := c.Field(name)
		switch {
		case !ok:
			errs = append(errs, unknownField(name))
			continue
		case f.isRelation(), f.ReadOnly:
			errs = append(errs, validator.ValidationError{
				Field: name, Message: "field is read only", TranslationKey: "validation.read_only",
				TranslationValues: map[string]any{"field": name},
			})
			continue
		}
		values[f.column()] = sanitizer.Value(f.Sanitize, data[name])
	}

	for _, f := range c.Fields {
		if !f.Required || f.isRelation() {
			continue
		}
		v, present := data[f.Name]
		if !creating && !present {
			continue
		}
		if isBlank(v) {
			errs = append(errs, validator.ValidationError{
				Field: f.Name, Message: "field is required", TranslationKey: "validation.required",
				TranslationValues: map[string]any{"field": f.Name},
			})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	for _, key := range sortedNames(set) {
		if _, ok := c.table.Column(key); !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, c.table.Key, key)
		}
		values[key] = set[key]
	}
	return values, nil
}

// output maps a stored row to field names. The primary key is always kept.
func (c *Collection) output(table *schema.Table, fields []Field, row orm.Row) orm.Row {
	if row == nil {
		return nil
	}
	pk := table.PrimaryKey().Key
	out := orm.Row{pk: row[pk]}
	for _, f := range fields {
		if !f.isRelation() {
			out[f.Name] = row[f.column()]
			continue
		}
		v := row[f.relationName()]
		if f.Relation == nil || v == nil {
			out[f.Name] = v
			continue
		}
		rel, _ := table.Relation(f.relationName())
		target, _ := c.schema.Table(rel.Table)
		switch val := v.(type) {
		case orm.Row:
			out[f.Name] = c.output(target, f.Relation.Fields, val)
		case []orm.Row:
			list := make([]orm.Row, 0, len(val))
			for _, r := range val {
				list = append(list, c.output(target, f.Relation.Fields, r))
			}
			out[f.Name] = list
		default:
			out[f.Name] = v
		}
	}
	return out
}

func unknownField(name string) validator.ValidationError {
	return validator.ValidationError{
		Field: name, Message: "unknown field", TranslationKey: "validation.unknown_field",
		TranslationValues: map[string]any{"field": name},
	}
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	}
	return false
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
