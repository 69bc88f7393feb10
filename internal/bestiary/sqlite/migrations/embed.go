package migrations

import "embed"

// FS contains embedded SQLite migrations for the bestiary catalog.
//
//go:embed *.sql
var FS embed.FS
