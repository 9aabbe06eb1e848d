package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/railzwaylabs/sagalog/sql/migrations"
)

// Migrate applies ("up") or rolls back ("down") the embedded schema
// migrations against dsn. It reports whether anything changed.
func Migrate(dsn, command string) (bool, error) {
	if command != "up" && command != "down" {
		return false, fmt.Errorf("unknown migration command: %s", command)
	}

	d, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return false, fmt.Errorf("load migration files: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, dsn)
	if err != nil {
		return false, fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if command == "up" {
		err = m.Up()
	} else {
		err = m.Down()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("migration %s failed: %w", command, err)
	}
	return true, nil
}
