package migrations

import "embed"

// FS содержит SQL-миграции хранилища.
//
//go:embed *.sql
var FS embed.FS
