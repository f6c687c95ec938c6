package api

import (
	"maps"
	"slices"
	"strings"
)

// Router is a flat set of routes keyed by dotted identifiers.
// Build it at startup; after that it is only read and safe for concurrent use.
type Router struct {
	routes map[string]Route
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]Route)}
}

// ID joins identifier segments with dots, skipping empty ones.
func ID(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(strings.TrimSpace(p), "."); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}

// Handle registers a route under id, replacing any previous one.
func (r *Router) Handle(id string, route Route) *Router {
	id = ID(id)
	if id == "" {
		panic(ErrEmptyRouteID)
	}
	r.routes[id] = route
	return r
}

// Group registers every route of sub under namespace.
func (r *Router) Group(namespace string, sub *Router) *Router {
	for id, route := range sub.routes {
		r.routes[ID(namespace, id)] = route
	}
	return r
}

// Lookup finds a route by identifier.
func (r *Router) Lookup(id string) (Route, bool) {
	route, ok := r.routes[id]
	return route, ok
}

// Merge copies routes from others in order. Later routers win on conflicts.
func (r *Router) Merge(others ...*Router) *Router {
	for _, o := range others {
		if o == nil {
			continue
		}
		maps.Copy(r.routes, o.routes)
	}
	return r
}

// IDs returns the registered identifiers sorted.
func (r *Router) IDs() []string {
	return slices.Sorted(maps.Keys(r.routes))
}

// Len returns the number of routes.
func (r *Router) Len() int {
	return len(r.routes)
}

// Each calls fn for every route in identifier order.
func (r *Router) Each(fn func(id string, route Route)) {
	for _, id := range r.IDs() {
		fn(id, r.routes[id])
	}
}

// Clone returns a shallow copy.
func (r *Router) Clone() *Router {
	return &Router{routes: maps.Clone(r.routes)}
}
