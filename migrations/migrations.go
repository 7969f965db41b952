// Package migrations embeds the SQL schema applied at startup.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed schema/**/*.sql
var schemaFS embed.FS

// Schema returns the schema files rooted at the schema directory, ready to
// pass to ApplyMigrations.
func Schema() fs.FS {
	sub, err := fs.Sub(schemaFS, "schema")
	if err != nil {
		// the embed path is fixed at compile time
		panic(err)
	}
	return sub
}
