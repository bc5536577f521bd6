// Package db embeds the schema migrations applied at startup.
package db

import "embed"

// Migrations holds the SQL migration files consumed by golang-migrate's
// iofs source.
//
//go:embed migrations
var Migrations embed.FS
