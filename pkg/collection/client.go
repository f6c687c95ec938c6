package collection

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/tabula/pkg/api"
)

// ClientField is the client view of a field.
type ClientField struct {
	Name        string        `json:"name"`
	Type        FieldType     `json:"type"`
	Label       string        `json:"label"`
	Placeholder string        `json:"placeholder"`
	Description string        `json:"description,omitempty"`
	Choices     []Choice      `json:"choices,omitempty"`
	Fields      []ClientField `json:"fields,omitempty"`
	Required    bool          `json:"required"`
	ReadOnly    bool          `json:"readOnly"`
}

// ClientCollection is the client view of a collection.
type ClientCollection struct {
	Endpoints        map[string]api.ClientRoute `json:"endpoints"`
	Slug             string                     `json:"slug"`
	Label            string                     `json:"label"`
	IdentifierColumn string                     `json:"identifierColumn"`
	Fields           []ClientField              `json:"fields"`
}

// Client projects the collection for clients. It fails when the routes
// cannot be built.
func (c *Collection) Client() (ClientCollection, error) {
	routes, err := c.Routes()
	if err != nil {
		return ClientCollection{}, err
	}
	return ClientCollection{
		Slug:             c.Slug,
		Label:            c.Label,
		IdentifierColumn: c.IdentifierColumn,
		Fields:           clientFields(c.Fields),
		Endpoints:        routes.ClientRoutes(),
	}, nil
}

// ClientField projects a single field. Label and placeholder default to the
// field name.
func (f Field) Client() ClientField {
	out := ClientField{
		Name:        f.Name,
		Type:        f.Type,
		Label:       f.Label,
		Placeholder: f.Placeholder,
		Description: f.Description,
		Choices:     f.Choices,
		Required:    f.Required,
		ReadOnly:    f.ReadOnly,
	}
	if out.Type == "" {
		out.Type = Text
		if f.Relation != nil {
			out.Type = Relation
		}
	}
	if out.Label == "" {
		out.Label = f.Name
	}
	if out.Placeholder == "" {
		out.Placeholder = f.Name
	}
	if f.Relation != nil {
		out.Fields = clientFields(f.Relation.Fields)
	}
	return out
}

func clientFields(fields []Field) []ClientField {
	out := make([]ClientField, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Client())
	}
	return out
}

// labelFromSlug turns "category-tags" into "Category Tags".
// Casers are stateful, so each call gets its own.
func labelFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	return cases.Title(language.English, cases.NoLower).String(strings.Join(words, " "))
}
