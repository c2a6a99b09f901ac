package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every schema change; files in this package register themselves.
var Migrations = migrate.NewMigrations()
