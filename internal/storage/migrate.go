package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SchemaState is the applied migration version of a ledger database.
type SchemaState struct {
	Version uint
	Dirty   bool
}

// withMigrator runs fn against a migrator on its own connection; the sqlite
// driver closes the handle it is given.
func withMigrator(dbPath string, fn func(*migrate.Migrate) error) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	defer m.Close()
	return fn(m)
}

func state(m *migrate.Migrate) (SchemaState, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaState{}, nil
	}
	if err != nil {
		return SchemaState{}, fmt.Errorf("read schema version: %w", err)
	}
	return SchemaState{Version: v, Dirty: dirty}, nil
}

// RunMigrations applies pending migrations to the database at dbPath and
// refuses a schema left dirty by an interrupted run.
func RunMigrations(dbPath string) error {
	return withMigrator(dbPath, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", err)
		}
		st, err := state(m)
		if err != nil {
			return err
		}
		if st.Dirty {
			return fmt.Errorf("schema version %d is dirty", st.Version)
		}
		slog.Debug("Ledger schema ready", "path", dbPath, "version", st.Version)
		return nil
	})
}

// SchemaVersion reports the applied migration version without changing it.
func SchemaVersion(dbPath string) (SchemaState, error) {
	var st SchemaState
	err := withMigrator(dbPath, func(m *migrate.Migrate) error {
		var err error
		st, err = state(m)
		return err
	})
	return st, err
}
