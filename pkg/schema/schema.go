package schema

import (
	"fmt"
	"slices"
)

// RelationKind tells whether a relation resolves to a single row or a list.
type RelationKind string

const (
	One  RelationKind = "one"
	Many RelationKind = "many"
)

// Reference is a foreign key target.
type Reference struct {
	Table    string `yaml:"table"`
	Column   string `yaml:"column"`
	OnDelete string `yaml:"onDelete"`
}

// Column is a single table column.
type Column struct {
	Default    *string    `yaml:"default"`
	References *Reference `yaml:"references"`
	Key        string     `yaml:"key"`
	Name       string     `yaml:"name"`
	Type       string     `yaml:"type"`
	Primary    bool       `yaml:"primary"`
	NotNull    bool       `yaml:"notNull"`
	Unique     bool       `yaml:"unique"`
}

// Relation links a table to another one.
// For kind "one" Fields are local columns matched against References on the
// target table. For kind "many" the inverse "one" relation on the target is used.
type Relation struct {
	Name       string       `yaml:"name"`
	Kind       RelationKind `yaml:"kind"`
	Table      string       `yaml:"table"`
	Fields     []string     `yaml:"fields"`
	References []string     `yaml:"references"`
}

// Table is a relational table definition.
type Table struct {
	Key       string     `yaml:"key"`
	Name      string     `yaml:"name"`
	Columns   []Column   `yaml:"columns"`
	Relations []Relation `yaml:"relations"`
}

// Column returns the column with the given key.
func (t *Table) Column(key string) (Column, bool) {
	i := slices.IndexFunc(t.Columns, func(c Column) bool { return c.Key == key })
	if i < 0 {
		return Column{}, false
	}
	return t.Columns[i], true
}

// PrimaryKey returns the primary column.
// Validated tables always have exactly one.
func (t *Table) PrimaryKey() Column {
	for _, c := range t.Columns {
		if c.Primary {
			return c
		}
	}
	return Column{}
}

// Relation returns the relation with the given name.
func (t *Table) Relation(name string) (Relation, bool) {
	i := slices.IndexFunc(t.Relations, func(r Relation) bool { return r.Name == name })
	if i < 0 {
		return Relation{}, false
	}
	return t.Relations[i], true
}

// ColumnKeys lists the column keys in declaration order.
func (t *Table) ColumnKeys() []string {
	keys := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		keys = append(keys, c.Key)
	}
	return keys
}

// Schema is a validated set of tables.
type Schema struct {
	byKey  map[string]*Table
	byName map[string]*Table
	tables []*Table
}

// New validates the given tables and builds a schema.
func New(tables ...Table) (*Schema, error) {
	s := &Schema{
		byKey:  make(map[string]*Table, len(tables)),
		byName: make(map[string]*Table, len(tables)),
		tables: make([]*Table, 0, len(tables)),
	}

	for i := range tables {
		t := tables[i]
		if t.Name == "" {
			t.Name = t.Key
		}
		if _, ok := s.byKey[t.Key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTable, t.Key)
		}
		if err := normalizeTable(&t); err != nil {
			return nil, err
		}
		s.byKey[t.Key] = &t
		s.byName[t.Name] = &t
		s.tables = append(s.tables, &t)
	}

	for _, t := range s.tables {
		if err := s.validateReferences(t); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// MustNew is like New but panics on error.
func MustNew(tables ...Table) *Schema {
	s, err := New(tables...)
	if err != nil {
		panic(err)
	}
	return s
}

// Table returns the table with the given key.
func (s *Schema) Table(key string) (*Table, bool) {
	t, ok := s.byKey[key]
	return t, ok
}

// TableByName returns the table with the given database name.
func (s *Schema) TableByName(name string) (*Table, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Tables returns all tables in declaration order.
func (s *Schema) Tables() []*Table {
	return slices.Clone(s.tables)
}

func normalizeTable(t *Table) error {
	seen := make(map[string]struct{}, len(t.Columns))
	primary := 0
	for i := range t.Columns {
		c := &t.Columns[i]
		if c.Name == "" {
			c.Name = c.Key
		}
		if _, ok := seen[c.Key]; ok {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateColumn, t.Key, c.Key)
		}
		seen[c.Key] = struct{}{}
		if c.Primary {
			primary++
		}
	}

	switch {
	case primary == 0:
		return fmt.Errorf("%w: %s", ErrNoPrimaryKey, t.Key)
	case primary > 1:
		return fmt.Errorf("%w: %s", ErrMultiplePrimary, t.Key)
	}
	return nil
}

func (s *Schema) validateReferences(t *Table) error {
	for _, c := range t.Columns {
		if c.References == nil {
			continue
		}
		target, ok := s.byKey[c.References.Table]
		if !ok {
			return fmt.Errorf("%w: %s.%s references %s", ErrTableNotFound, t.Key, c.Key, c.References.Table)
		}
		if _, ok := target.Column(c.References.Column); !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, target.Key, c.References.Column)
		}
	}

	for _, r := range t.Relations {
		target, ok := s.byKey[r.Table]
		if !ok {
			return fmt.Errorf("%w: %s.%s targets unknown table %s", ErrInvalidRelation, t.Key, r.Name, r.Table)
		}
		switch r.Kind {
		case One:
			if len(r.Fields) == 0 || len(r.Fields) != len(r.References) {
				return fmt.Errorf("%w: %s.%s needs matching fields and references", ErrInvalidRelation, t.Key, r.Name)
			}
			for _, f := range r.Fields {
				if _, ok := t.Column(f); !ok {
					return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Key, f)
				}
			}
			for _, f := range r.References {
				if _, ok := target.Column(f); !ok {
					return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, target.Key, f)
				}
			}
		case Many:
			if _, ok := s.inverse(t, target); !ok {
				return fmt.Errorf("%w: %s.%s has no inverse relation on %s", ErrInvalidRelation, t.Key, r.Name, target.Key)
			}
		default:
			return fmt.Errorf("%w: %s.%s has unknown kind %q", ErrInvalidRelation, t.Key, r.Name, r.Kind)
		}
	}
	return nil
}

// Inverse finds the "one" relation on the target of a "many" relation that
// points back at t.
func (s *Schema) Inverse(t *Table, r Relation) (Relation, bool) {
	target, ok := s.byKey[r.Table]
	if !ok || r.Kind != Many {
		return Relation{}, false
	}
	return s.inverse(t, target)
}

func (s *Schema) inverse(t, target *Table) (Relation, bool) {
	for _, r := range target.Relations {
		if r.Kind == One && r.Table == t.Key {
			return r, true
		}
	}
	return Relation{}, false
}
