// Package schema describes the relational model a tabula application is
// built from: tables, their columns and the relations between them.
//
// A schema is usually declared in YAML and loaded once at startup:
//
//	tables:
//	  - key: posts
//	    columns:
//	      - { key: id, type: uuid, primary: true }
//	      - { key: title, type: text, notNull: true }
//	      - { key: authorId, name: author_id, type: uuid, references: { table: user, column: id } }
//	    relations:
//	      - { name: author, kind: one, table: user, fields: [authorId], references: [id] }
//
// Tables and columns have a key (the name the application uses) and a
// database name. When the name is omitted it equals the key.
//
// The parsed [Schema] is immutable and safe for concurrent use.
package schema
