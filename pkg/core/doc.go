// Package core assembles an application definition.
//
// [DefineBaseConfig] collects the shared dependencies (database, schema,
// auth configuration, injected values) into an immutable [api.Context].
// [DefineServerConfig] merges custom endpoints, the auth routes and every
// collection's routes into a single router, applies plugins and checks that
// each route lives under the API prefix exactly once. [ClientConfigOf]
// derives the handler-free view that clients use to build typed calls.
//
//	base := core.DefineBaseConfig(core.WithDB(pool), core.WithSchema(s))
//	server, err := core.DefineServerConfig(base, []*collection.Collection{posts},
//		core.WithEndpoints(custom),
//	)
//	client, err := core.ClientConfigOf(server)
package core
