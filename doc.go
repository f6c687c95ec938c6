// Package tabula builds a JSON API from a relational schema.
//
// A schema (tables, columns, relations) is loaded once at startup.
// Collections derive five CRUD routes per table. The auth handler set and
// custom endpoints are merged into the same router under the /api prefix,
// and the result is served over HTTP or called in-process through the
// server function bridge.
//
// # Quick Start
//
//	s, _ := schema.Load(os.DirFS("."), "schema.yaml")
//	base := tabula.DefineBaseConfig(
//	    tabula.WithDB(pool),
//	    tabula.WithSchema(s),
//	    tabula.WithAuth(authCfg, auth.WithCookies(cookies)),
//	)
//
//	b := collection.NewBuilder(s)
//	posts := b.MustCollection("posts", collection.Config{
//	    Fields: []collection.Field{{Name: "title", Required: true}},
//	})
//
//	server, err := tabula.DefineServerConfig(base, []*collection.Collection{posts})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	app := tabula.New(server,
//	    tabula.WithLogger(log),
//	    tabula.WithMiddleware(middlewares.RequestID(), middlewares.Recover(log)),
//	)
//	err = app.Run(":8080", tabula.ShutdownHook(db.Shutdown(pool)))
//
// # Overriding default operations
//
// A collection operation can be replaced while keeping the generated
// behaviour reachable. The override receives the default handler
// explicitly:
//
//	collection.Config{
//	    API: collection.Overrides{
//	        Create: func(ctx context.Context, args collection.Args, fallback collection.RowFunc) (orm.Row, error) {
//	            args.Data["status"] = "draft"
//	            return fallback(ctx, args)
//	        },
//	    },
//	}
//
// # Client projection
//
// ClientConfigOf strips handlers, tables and admin metadata and leaves
// only route and field shapes. Serve it with WithClientConfig or dump it
// with "erp client-config".
//
// # Errors
//
// Handler errors map to statuses through StatusOf. Return NewHTTPError or
// one of the Err* constructors for an explicit status.
package tabula
