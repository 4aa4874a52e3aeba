// Package migrations embeds SQL migration files for the SQLite stores.
package migrations

import "embed"

// Verses contains migration files for the verses database.
//
//go:embed verses/*.sql
var Verses embed.FS

// Sayings contains migration files for the sayings database.
//
//go:embed sayings/*.sql
var Sayings embed.FS
