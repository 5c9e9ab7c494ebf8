// Package migrations embeds the SQL schema migrations.
package migrations

import "embed"

// FS holds the NNN_name.sql migration files
//
//go:embed *.sql
var FS embed.FS
