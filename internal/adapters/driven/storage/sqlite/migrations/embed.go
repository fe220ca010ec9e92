// Package migrations holds the SQLite schema, one up/down pair per version.
package migrations

import "embed"

// FS is read by the store's migrator at open.
//
//go:embed *.sql
var FS embed.FS
