package orm

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dmitrymomot/tabula/pkg/db"
	"github.com/dmitrymomot/tabula/pkg/schema"
)

// Page is one FindMany result.
type Page struct {
	Data  []Row `json:"data"`
	Total int64 `json:"total"`
}

// QueryOption tunes a single read.
type QueryOption func(*readOptions)

type readOptions struct {
	with []string
}

// With loads the named relations into the returned rows.
func With(relations ...string) QueryOption {
	return func(o *readOptions) {
		o.with = append(o.with, relations...)
	}
}

// Table runs statements against one schema table.
type Table struct {
	schema *schema.Schema
	def    *schema.Table
	db     db.Querier
}

// NewTable binds the table with the given key to q.
func NewTable(s *schema.Schema, key string, q db.Querier) (*Table, error) {
	def, ok := s.Table(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrTableNotFound, key)
	}
	return &Table{schema: s, def: def, db: q}, nil
}

// Def returns the table definition.
func (t *Table) Def() *schema.Table {
	return t.def
}

// WithDB returns a copy of the table bound to q, typically a transaction.
func (t *Table) WithDB(q db.Querier) *Table {
	return &Table{schema: t.schema, def: t.def, db: q}
}

func (t *Table) Insert(ctx context.Context, values Row) (Row, error) {
	sql, args, err := buildInsert(t.def, values)
	if err != nil {
		return nil, err
	}
	return t.queryOne(ctx, sql, args)
}

func (t *Table) Update(ctx context.Context, id any, values Row) (Row, error) {
	sql, args, err := buildUpdate(t.def, id, values)
	if err != nil {
		return nil, err
	}
	return t.queryOne(ctx, sql, args)
}

// Delete removes the row and returns it as it was.
func (t *Table) Delete(ctx context.Context, id any) (Row, error) {
	sql, args := buildDelete(t.def, id)
	return t.queryOne(ctx, sql, args)
}

func (t *Table) FindOne(ctx context.Context, id any, opts ...QueryOption) (Row, error) {
	sql, args := buildFindOne(t.def, id)
	row, err := t.queryOne(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	if err := t.loadRelations(ctx, []Row{row}, readOpts(opts).with); err != nil {
		return nil, err
	}
	return row, nil
}

func (t *Table) FindMany(ctx context.Context, q ListQuery) (*Page, error) {
	sql, args, err := buildFindMany(t.def, q)
	if err != nil {
		return nil, err
	}
	rows, err := t.queryAll(ctx, sql, args)
	if err != nil {
		return nil, err
	}

	countSQL, countArgs, err := buildCount(t.def, q.Where)
	if err != nil {
		return nil, err
	}
	var total int64
	if err := t.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	if err := t.loadRelations(ctx, rows, q.With); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Row{}
	}
	return &Page{Data: rows, Total: total}, nil
}

func readOpts(opts []QueryOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (t *Table) queryOne(ctx context.Context, sql string, args []any) (Row, error) {
	rows, err := t.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return normalizeRow(m), nil
}

func (t *Table) queryAll(ctx context.Context, sql string, args []any) ([]Row, error) {
	rows, err := t.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	out := make([]Row, 0, len(records))
	for _, m := range records {
		out = append(out, normalizeRow(m))
	}
	return out, nil
}

// loadRelations attaches related rows under the relation name: a Row for
// "one" relations and a []Row for "many" relations.
func (t *Table) loadRelations(ctx context.Context, rows []Row, names []string) error {
	if len(rows) == 0 {
		return nil
	}
	for _, name := range slices.Compact(slices.Sorted(slices.Values(names))) {
		rel, ok := t.def.Relation(name)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownRelation, t.def.Key, name)
		}
		target, _ := t.schema.Table(rel.Table)

		local, remote := "", ""
		switch rel.Kind {
		case schema.One:
			if len(rel.Fields) != 1 {
				return fmt.Errorf("%w: %s.%s", ErrUnsupportedRelation, t.def.Key, name)
			}
			local, remote = rel.Fields[0], rel.References[0]
		case schema.Many:
			inv, ok := t.schema.Inverse(t.def, rel)
			if !ok || len(inv.Fields) != 1 {
				return fmt.Errorf("%w: %s.%s", ErrUnsupportedRelation, t.def.Key, name)
			}
			local, remote = inv.References[0], inv.Fields[0]
		}

		keys := make([]string, 0, len(rows))
		for _, r := range rows {
			if v := r[local]; v != nil {
				keys = append(keys, fmt.Sprint(v))
			}
		}
		related := []Row{}
		if len(keys) > 0 {
			sql, args, err := buildIn(target, remote, slices.Compact(slices.Sorted(slices.Values(keys))))
			if err != nil {
				return err
			}
			if related, err = t.queryAll(ctx, sql, args); err != nil {
				return err
			}
		}

		byKey := make(map[string][]Row, len(related))
		for _, r := range related {
			k := fmt.Sprint(r[remote])
			byKey[k] = append(byKey[k], r)
		}
		for _, r := range rows {
			matches := byKey[fmt.Sprint(r[local])]
			if rel.Kind == schema.One {
				if len(matches) > 0 {
					r[name] = matches[0]
				} else {
					r[name] = nil
				}
				continue
			}
			if matches == nil {
				matches = []Row{}
			}
			r[name] = matches
		}
	}
	return nil
}

// normalizeRow converts driver values without a natural JSON form.
func normalizeRow(m map[string]any) Row {
	for k, v := range m {
		switch val := v.(type) {
		case [16]byte:
			m[k] = uuid.UUID(val).String()
		case pgtype.Numeric:
			if f, err := val.Float64Value(); err == nil && f.Valid {
				m[k] = f.Float64
			} else {
				m[k] = nil
			}
		}
	}
	return Row(m)
}
