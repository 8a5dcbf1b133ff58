// Package migrations embeds the catalog schema applied by goose on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
