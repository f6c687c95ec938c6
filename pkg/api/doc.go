// Package api defines the uniform route value every tabula endpoint is
// built from: a [Schema] (method, path, payload shapes) paired with a
// [Handler].
//
// Routes are collected into a flat [Router] keyed by dotted identifiers
// ("posts.findMany", "auth.loginEmail") once at startup. Transports (the
// HTTP app, the in-process bridge) look routes up by identifier and invoke
// the handler with a [Call].
//
// Typed handlers are adapted with [Handle]:
//
//	type helloInput struct {
//		Name string `json:"name"`
//	}
//
//	route := api.NewRoute(
//		api.Schema{
//			Method:    http.MethodPost,
//			Path:      "/hello",
//			Body:      api.ShapeOf[helloInput](),
//			Responses: map[int]*api.Shape{http.StatusOK: api.ShapeOf[helloOutput]()},
//		},
//		api.Handle(func(ctx context.Context, in api.Args[helloInput]) (*api.Response, error) {
//			return api.JSON(http.StatusOK, helloOutput{Message: "hi " + in.Body.Name}), nil
//		}),
//	)
package api
