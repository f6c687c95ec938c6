package api

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"
)

// Shape is a payload type known by its Go prototype.
type Shape struct {
	typ reflect.Type
}

// ShapeOf returns the shape of T.
func ShapeOf[T any]() *Shape {
	return &Shape{typ: reflect.TypeFor[T]()}
}

// Type returns the underlying Go type.
func (s *Shape) Type() reflect.Type {
	if s == nil {
		return nil
	}
	return s.typ
}

// ShapeInfo is the serializable description of a Shape.
type ShapeInfo struct {
	Elem     *ShapeInfo   `json:"elem,omitempty"`
	Type     string       `json:"type"`
	Fields   []FieldShape `json:"fields,omitempty"`
	Nullable bool         `json:"nullable,omitempty"`
}

// FieldShape is one object property.
type FieldShape struct {
	ShapeInfo
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// Describe converts the shape into its client description.
func (s *Shape) Describe() *ShapeInfo {
	if s == nil || s.typ == nil {
		return nil
	}
	info := describe(s.typ, map[reflect.Type]bool{})
	return &info
}

var (
	timeType       = reflect.TypeFor[time.Time]()
	rawMessageType = reflect.TypeFor[json.RawMessage]()
)

func describe(t reflect.Type, seen map[reflect.Type]bool) ShapeInfo {
	nullable := false
	for t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	info := ShapeInfo{Nullable: nullable}
	switch {
	case t == timeType:
		info.Type = "datetime"
		return info
	case t == rawMessageType:
		info.Type = "any"
		return info
	}

	switch t.Kind() {
	case reflect.String:
		info.Type = "string"
	case reflect.Bool:
		info.Type = "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		info.Type = "integer"
	case reflect.Float32, reflect.Float64:
		info.Type = "number"
	case reflect.Slice, reflect.Array:
		info.Type = "array"
		elem := describe(t.Elem(), seen)
		info.Elem = &elem
	case reflect.Map:
		info.Type = "object"
		elem := describe(t.Elem(), seen)
		info.Elem = &elem
	case reflect.Struct:
		info.Type = "object"
		if seen[t] {
			return info
		}
		seen[t] = true
		info.Fields = structFields(t, seen)
		delete(seen, t)
	default:
		info.Type = "any"
	}
	return info
}

func structFields(t reflect.Type, seen map[reflect.Type]bool) []FieldShape {
	var fields []FieldShape
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				fields = append(fields, structFields(ft, seen)...)
				continue
			}
		}
		if name == "" {
			name = f.Name
		}

		info := describe(f.Type, seen)
		fields = append(fields, FieldShape{
			ShapeInfo: info,
			Name:      name,
			Required:  !strings.Contains(opts, "omitempty") && !strings.Contains(opts, "omitzero") && !info.Nullable,
		})
	}
	return fields
}
