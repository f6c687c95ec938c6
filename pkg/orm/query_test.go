package orm

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tabula/pkg/schema"
)

func postsTable(t *testing.T) *schema.Table {
	t.Helper()

	s := schema.MustNew(schema.Table{
		Key:  "categoryTags",
		Name: "category_tags",
		Columns: []schema.Column{
			{Key: "id", Type: "uuid", Primary: true},
			{Key: "name", Type: "text"},
			{Key: "categoryId", Name: "category_id", Type: "uuid"},
			{Key: "updatedAt", Name: "updated_at", Type: "timestamptz"},
		},
	})
	tbl, ok := s.Table("categoryTags")
	require.True(t, ok)
	return tbl
}

func TestBuildInsert(t *testing.T) {
	t.Parallel()

	tbl := postsTable(t)

	sql, args, err := buildInsert(tbl, Row{"name": "go", "categoryId": "c1"})
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "category_tags" ("category_id", "name") VALUES ($1, $2) RETURNING "id", "name", "category_id" AS "categoryId", "updated_at" AS "updatedAt"`,
		sql)
	assert.Equal(t, []any{"c1", "go"}, args)

	_, _, err = buildInsert(tbl, Row{})
	require.ErrorIs(t, err, ErrNoValues)

	_, _, err = buildInsert(tbl, Row{"name; DROP TABLE x": 1})
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestBuildUpdate(t *testing.T) {
	t.Parallel()

	tbl := postsTable(t)

	sql, args, err := buildUpdate(tbl, "t1", Row{"name": "rust"})
	require.NoError(t, err)
	assert.Equal(t,
		`UPDATE "category_tags" SET "name" = $1, "updated_at" = now() WHERE "id" = $2 RETURNING "id", "name", "category_id" AS "categoryId", "updated_at" AS "updatedAt"`,
		sql)
	assert.Equal(t, []any{"rust", "t1"}, args)

	sql, _, err = buildUpdate(tbl, "t1", Row{"updatedAt": "2024-01-01"})
	require.NoError(t, err)
	assert.NotContains(t, sql, "now()")
}

func TestBuildDeleteAndFindOne(t *testing.T) {
	t.Parallel()

	tbl := postsTable(t)

	sql, args := buildDelete(tbl, "t1")
	assert.Contains(t, sql, `DELETE FROM "category_tags" WHERE "id" = $1 RETURNING`)
	assert.Equal(t, []any{"t1"}, args)

	sql, args = buildFindOne(tbl, "t1")
	assert.Contains(t, sql, `FROM "category_tags" WHERE "id" = $1`)
	assert.Equal(t, []any{"t1"}, args)
}

func TestBuildFindMany(t *testing.T) {
	t.Parallel()

	tbl := postsTable(t)

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		sql, args, err := buildFindMany(tbl, ListQuery{})
		require.NoError(t, err)
		assert.Contains(t, sql, `ORDER BY "id" ASC LIMIT $1 OFFSET $2`)
		assert.Equal(t, []any{DefaultLimit, 0}, args)
	})

	t.Run("filters and ordering", func(t *testing.T) {
		t.Parallel()

		sql, args, err := buildFindMany(tbl, ListQuery{
			Where:     map[string]any{"categoryId": "c1", "name": nil},
			OrderBy:   "name",
			OrderType: "DESC",
			Limit:     500,
			Offset:    -3,
		})
		require.NoError(t, err)
		assert.Contains(t, sql, `WHERE "category_id" = $1 AND "name" IS NULL ORDER BY "name" DESC LIMIT $2 OFFSET $3`)
		assert.Equal(t, []any{"c1", MaxLimit, 0}, args)
	})

	t.Run("invalid order", func(t *testing.T) {
		t.Parallel()

		_, _, err := buildFindMany(tbl, ListQuery{OrderType: "sideways"})
		require.ErrorIs(t, err, ErrInvalidOrder)

		_, _, err = buildFindMany(tbl, ListQuery{OrderBy: "nope"})
		require.ErrorIs(t, err, ErrUnknownColumn)
	})

	t.Run("count", func(t *testing.T) {
		t.Parallel()

		sql, args, err := buildCount(tbl, map[string]any{"name": "go"})
		require.NoError(t, err)
		assert.Equal(t, `SELECT count(*) FROM "category_tags" WHERE "name" = $1`, sql)
		assert.Equal(t, []any{"go"}, args)
	})
}

func TestBuildIn(t *testing.T) {
	t.Parallel()

	sql, args, err := buildIn(postsTable(t), "categoryId", []string{"a", "b"})
	require.NoError(t, err)
	assert.Contains(t, sql, `WHERE "category_id"::text = ANY($1::text[])`)
	assert.Equal(t, []any{[]string{"a", "b"}}, args)
}

func TestNormalizeRow(t *testing.T) {
	t.Parallel()

	id := [16]byte{0x6b, 0xa7, 0xb8, 0x10, 0x9d, 0xad, 0x11, 0xd1, 0x80, 0xb4, 0x00, 0xc0, 0x4f, 0xd4, 0x30, 0xc8}
	var num pgtype.Numeric
	require.NoError(t, num.Scan("12.5"))

	row := normalizeRow(map[string]any{"id": id, "price": num, "name": "x"})
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", row["id"])
	assert.InDelta(t, 12.5, row["price"], 0.0001)
	assert.Equal(t, "x", row["name"])
}
