package api

import (
	"fmt"
	"maps"
	"strings"
)

// Prefix namespaces every route path.
const Prefix = "/api"

// Schema describes a route: method, path and payload shapes.
// It is a value type; modifying methods return a copy.
type Schema struct {
	Body      *Shape
	Query     *Shape
	Headers   *Shape
	Responses map[int]*Shape
	Method    string
	Path      string
	prefixed  bool
}

// WithPrefix returns a copy of the schema with prefix prepended to its path.
// A schema can be prefixed only once.
func (s Schema) WithPrefix(prefix string) (Schema, error) {
	if s.prefixed || hasPrefix(s.Path, prefix) {
		return s, fmt.Errorf("%w: %s %s", ErrAlreadyPrefixed, s.Method, s.Path)
	}
	out := s
	out.Path = prefix + "/" + strings.TrimLeft(s.Path, "/")
	if s.Path == "" || s.Path == "/" {
		out.Path = prefix
	}
	out.Responses = maps.Clone(s.Responses)
	out.prefixed = true
	return out, nil
}

// Prefixed reports whether WithPrefix produced this schema.
func (s Schema) Prefixed() bool {
	return s.prefixed
}

// Params lists the ":name" path parameters in order.
func (s Schema) Params() []string {
	return PathParams(s.Path)
}

// CheckPrefix verifies that path lives under prefix exactly once.
func CheckPrefix(path, prefix string) error {
	if !hasPrefix(path, prefix) {
		return fmt.Errorf("%w: %s", ErrMissingPrefix, path)
	}
	if hasPrefix(strings.TrimPrefix(path, prefix), prefix) {
		return fmt.Errorf("%w: %s", ErrAlreadyPrefixed, path)
	}
	return nil
}

func hasPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// PathParams extracts ":name" segments from a path.
func PathParams(path string) []string {
	var params []string
	for seg := range strings.SplitSeq(path, "/") {
		if name, ok := strings.CutPrefix(seg, ":"); ok && name != "" {
			params = append(params, name)
		}
	}
	return params
}
