package migrations

import "embed"

// FS holds the goose SQL migrations, one directory per dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
