// Package migrations embeds the SQL schema migrations applied by cmd/migrate.
package migrations

import "embed"

// FS holds the *.up.sql / *.down.sql files
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory inside FS that holds the migrations
const Dir = "."
