// Package migrations embeds the SQL schema for the postgres event store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
