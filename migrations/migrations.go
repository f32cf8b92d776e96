// Package migrations bundles the schema files into the binary.
package migrations

import "embed"

// One directory per dialect; files apply in filename order.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
