// Package migrations embeds the goose SQL migrations applied at startup
// and by the lettermail CLI migrate command.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
