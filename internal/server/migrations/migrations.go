// Package migrations embeds the goose SQL migrations for the identity
// record store. The statements are valid for both PostgreSQL and SQLite.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
