// Package migrations embeds the knowledge graph schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
