package standingsmigrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every standings schema migration.
var Migrations = migrate.NewMigrations()

func init() {
	// Each migration takes its ID from the file that registers it.
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
