package api

// ClientRoute is the handler-free view of a route.
type ClientRoute struct {
	Body      *ShapeInfo         `json:"body,omitempty"`
	Query     *ShapeInfo         `json:"query,omitempty"`
	Headers   *ShapeInfo         `json:"headers,omitempty"`
	Responses map[int]*ShapeInfo `json:"responses,omitempty"`
	Method    string             `json:"method"`
	Path      string             `json:"path"`
}

// Client projects the schema for clients.
func (s Schema) Client() ClientRoute {
	out := ClientRoute{
		Method:  s.Method,
		Path:    s.Path,
		Body:    s.Body.Describe(),
		Query:   s.Query.Describe(),
		Headers: s.Headers.Describe(),
	}
	if len(s.Responses) > 0 {
		out.Responses = make(map[int]*ShapeInfo, len(s.Responses))
		for code, shape := range s.Responses {
			out.Responses[code] = shape.Describe()
		}
	}
	return out
}

// ClientRoutes projects every route of the router.
func (r *Router) ClientRoutes() map[string]ClientRoute {
	out := make(map[string]ClientRoute, len(r.routes))
	for id, route := range r.routes {
		out[id] = route.Schema.Client()
	}
	return out
}
