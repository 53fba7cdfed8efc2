// Package migrations embeds the SQL schema files applied at startup when
// migrations are enabled, and reused by tests and tooling.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
