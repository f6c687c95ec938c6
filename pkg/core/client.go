package core

import (
	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/collection"
)

// ClientConfig is the client view of a server configuration. It carries
// shapes only: no handlers, tables, admin metadata or option loaders.
type ClientConfig struct {
	Collections map[string]collection.ClientCollection `json:"collections"`
	Endpoints   map[string]api.ClientRoute             `json:"endpoints"`
	Auth        auth.ClientConfig                      `json:"auth"`
}

// ClientConfigOf projects s for clients.
func ClientConfigOf(s *ServerConfig) (*ClientConfig, error) {
	out := &ClientConfig{
		Auth:        s.Auth.Client(),
		Collections: make(map[string]collection.ClientCollection, len(s.order)),
		Endpoints:   s.Endpoints.ClientRoutes(),
	}
	for _, c := range s.Collections() {
		client, err := c.Client()
		if err != nil {
			return nil, err
		}
		out.Collections[c.Slug] = client
	}
	return out, nil
}

// Route returns the client route for id.
func (c *ClientConfig) Route(id string) (api.ClientRoute, bool) {
	r, ok := c.Endpoints[id]
	return r, ok
}
