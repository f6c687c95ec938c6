package orm

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/tabula/pkg/schema"
)

// Row is a record keyed by column key.
type Row map[string]any

const (
	Asc  = "asc"
	Desc = "desc"

	DefaultLimit = 20
	MaxLimit     = 100
)

// ListQuery selects a page of rows.
type ListQuery struct {
	Where     map[string]any `json:"where,omitempty"`
	OrderBy   string         `json:"orderBy,omitempty"`
	OrderType string         `json:"orderType,omitempty"`
	With      []string       `json:"with,omitempty"`
	Limit     int            `json:"limit,omitempty"`
	Offset    int            `json:"offset,omitempty"`
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func selectList(t *schema.Table) string {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == c.Key {
			cols = append(cols, quote(c.Name))
			continue
		}
		cols = append(cols, quote(c.Name)+" AS "+quote(c.Key))
	}
	return strings.Join(cols, ", ")
}

func columnName(t *schema.Table, key string) (string, error) {
	c, ok := t.Column(key)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Key, key)
	}
	return c.Name, nil
}

// sortedKeys keeps generated SQL deterministic.
func sortedKeys(values map[string]any) []string {
	return slices.Sorted(maps.Keys(values))
}

func buildInsert(t *schema.Table, values Row) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, ErrNoValues
	}
	keys := sortedKeys(values)
	cols := make([]string, 0, len(keys))
	holders := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		name, err := columnName(t, k)
		if err != nil {
			return "", nil, err
		}
		cols = append(cols, quote(name))
		holders = append(holders, fmt.Sprintf("$%d", i+1))
		args = append(args, values[k])
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		quote(t.Name), strings.Join(cols, ", "), strings.Join(holders, ", "), selectList(t))
	return sql, args, nil
}

// updatedAtKey is refreshed on every update when the table has it.
const updatedAtKey = "updatedAt"

func buildUpdate(t *schema.Table, id any, values Row) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, ErrNoValues
	}
	keys := sortedKeys(values)
	sets := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		name, err := columnName(t, k)
		if err != nil {
			return "", nil, err
		}
		args = append(args, values[k])
		sets = append(sets, fmt.Sprintf("%s = $%d", quote(name), len(args)))
	}
	if c, ok := t.Column(updatedAtKey); ok {
		if _, explicit := values[updatedAtKey]; !explicit {
			sets = append(sets, quote(c.Name)+" = now()")
		}
	}
	args = append(args, id)
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING %s",
		quote(t.Name), strings.Join(sets, ", "), quote(t.PrimaryKey().Name), len(args), selectList(t))
	return sql, args, nil
}

func buildDelete(t *schema.Table, id any) (string, []any) {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 RETURNING %s",
		quote(t.Name), quote(t.PrimaryKey().Name), selectList(t))
	return sql, []any{id}
}

func buildFindOne(t *schema.Table, id any) (string, []any) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		selectList(t), quote(t.Name), quote(t.PrimaryKey().Name))
	return sql, []any{id}
}

func buildWhere(t *schema.Table, where map[string]any, args []any) (string, []any, error) {
	if len(where) == 0 {
		return "", args, nil
	}
	conds := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		name, err := columnName(t, k)
		if err != nil {
			return "", nil, err
		}
		if where[k] == nil {
			conds = append(conds, quote(name)+" IS NULL")
			continue
		}
		args = append(args, where[k])
		conds = append(conds, fmt.Sprintf("%s = $%d", quote(name), len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// normalize clamps paging and validates ordering.
func (q ListQuery) normalize(t *schema.Table) (ListQuery, error) {
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	q.Offset = max(q.Offset, 0)

	q.OrderType = strings.ToLower(q.OrderType)
	switch q.OrderType {
	case "":
		q.OrderType = Asc
	case Asc, Desc:
	default:
		return q, fmt.Errorf("%w: %q", ErrInvalidOrder, q.OrderType)
	}
	if q.OrderBy == "" {
		q.OrderBy = t.PrimaryKey().Key
	}
	return q, nil
}

func buildFindMany(t *schema.Table, q ListQuery) (string, []any, error) {
	q, err := q.normalize(t)
	if err != nil {
		return "", nil, err
	}
	where, args, err := buildWhere(t, q.Where, nil)
	if err != nil {
		return "", nil, err
	}
	orderCol, err := columnName(t, q.OrderBy)
	if err != nil {
		return "", nil, err
	}
	args = append(args, q.Limit, q.Offset)
	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		selectList(t), quote(t.Name), where, quote(orderCol), strings.ToUpper(q.OrderType), len(args)-1, len(args))
	return sql, args, nil
}

func buildCount(t *schema.Table, where map[string]any) (string, []any, error) {
	w, args, err := buildWhere(t, where, nil)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT count(*) FROM %s%s", quote(t.Name), w), args, nil
}

// buildIn selects rows whose column matches any of values.
// Values are compared as text so one statement works for every key type.
func buildIn(t *schema.Table, column string, values []string) (string, []any, error) {
	name, err := columnName(t, column)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s::text = ANY($1::text[])", selectList(t), quote(t.Name), quote(name))
	return sql, []any{values}, nil
}
