// Package migrations embeds the SQL schema applied at startup.
package migrations

import "embed"

// Files holds every up and down migration.
//
//go:embed *.sql
var Files embed.FS
