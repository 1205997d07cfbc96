// Package migrations embeds the SQL schema files so the migrate binary can
// run them from any working directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
