package database

import "embed"

// EmbeddedMigrations bundles the migration SQL files into the binary so a
// deployed server needs no files next to it.
// Use fs.Sub(EmbeddedMigrations, "migrations") to get the subdirectory.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
