// Package orm runs CRUD statements for tables described by a
// [schema.Schema] over pgx.
//
// Rows are maps keyed by column key, not database name; identifiers are
// always taken from the schema and quoted, values always travel as
// parameters.
//
//	posts, err := orm.NewTable(s, "posts", pool)
//	row, err := posts.Insert(ctx, orm.Row{"title": "Hello", "authorId": uid})
//	page, err := posts.FindMany(ctx, orm.ListQuery{Limit: 10, OrderBy: "createdAt", OrderType: orm.Desc})
//	one, err := posts.FindOne(ctx, row["id"], orm.With("author", "category"))
package orm
