// Package collection turns schema tables into API collections.
//
// A [Builder] binds a table and a set of field descriptors into a
// [Collection] with five default operations (create, update, delete,
// findOne, findMany) and the matching routes. Any operation can be
// overridden; an override receives the default operation as an explicit
// fallback it may call before or after its own logic:
//
//	posts, err := b.Collection("posts", collection.Config{
//		Slug: "posts",
//		Fields: []collection.Field{
//			{Name: "title", Column: "title", Type: collection.Text, Required: true},
//			{Name: "content", Column: "content", Type: collection.RichText, Sanitize: sanitizer.RichText},
//		},
//		API: collection.Overrides{
//			Create: func(ctx context.Context, args collection.Args, fallback collection.RowFunc) (orm.Row, error) {
//				args.Data["authorId"] = currentUser(ctx)
//				return fallback(ctx, args)
//			},
//		},
//	})
//
// [Collection.Client] projects the collection for clients without handlers,
// source table or admin metadata.
package collection
