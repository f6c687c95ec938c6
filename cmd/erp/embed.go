package main

import (
	"embed"
	"io/fs"
)

//go:embed schema.yaml
var schemaFS embed.FS

//go:embed migrations/*.sql
var migrationsFS embed.FS

func migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}
