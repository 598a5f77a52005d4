package main

import (
	"embed"
	"io/fs"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

//go:embed resources/migrations/*.sql
var embeddedMigrations embed.FS

func migrations() (fs.FS, error) {
	return fs.Sub(embeddedMigrations, "resources/migrations")
}
