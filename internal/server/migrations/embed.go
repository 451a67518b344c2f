// Package migrations embeds the relay server schema migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
