package repository

import "embed"

// MigrationsFS - SQL-миграции схемы story_records для golang-migrate.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsPath - каталог миграций внутри MigrationsFS.
const MigrationsPath = "migrations"
