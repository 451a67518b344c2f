// Package migrations embeds the key-store schema migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
