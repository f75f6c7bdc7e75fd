package db

import "embed"

// MigrationFS embeds the SQL migrations for the XP ledger and the pairing audit log.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
