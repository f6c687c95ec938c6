package collection

import (
	"context"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/sanitizer"
)

// FieldType is the input kind of a field.
type FieldType string

const (
	Text     FieldType = "text"
	RichText FieldType = "richtext"
	Email    FieldType = "email"
	Number   FieldType = "number"
	Boolean  FieldType = "boolean"
	Date     FieldType = "date"
	Select   FieldType = "select"
	Relation FieldType = "relation"
)

// Choice is a selectable value.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// OptionsFunc loads choices at request time. Server only.
type OptionsFunc func(ctx context.Context, app *api.Context) ([]Choice, error)

// Field describes one collection field.
// Column (the source column key) and Options never reach clients.
type Field struct {
	Options     OptionsFunc
	Relation    *RelationField
	Name        string
	Column      string
	Type        FieldType
	Label       string
	Placeholder string
	Description string
	Sanitize    sanitizer.Mode
	Choices     []Choice
	Required    bool
	ReadOnly    bool
}

// RelationField loads a relation of the source table with its own fields.
type RelationField struct {
	Name   string
	Fields []Field
}

// column returns the source column key, falling back to the field name.
func (f Field) column() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

func (f Field) isRelation() bool {
	return f.Type == Relation || f.Relation != nil
}

func (f Field) relationName() string {
	if f.Relation != nil && f.Relation.Name != "" {
		return f.Relation.Name
	}
	return f.Name
}
