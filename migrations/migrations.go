// Package migrations embeds the forward-only SQL schema applied at startup
// by database.RunMigrations.
package migrations

import "embed"

// FS holds the *.up.sql files in lexical order.
//
//go:embed *.up.sql
var FS embed.FS
