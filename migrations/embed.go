// Package migrations embeds the SQL migrations for the Postgres remote store.
// The API applies them with goose at startup when REMOTE_BACKEND=postgres.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
// Pass this to goose.NewProvider instead of relying on
// a filesystem path at runtime.
//
//go:embed *.sql
var FS embed.FS
