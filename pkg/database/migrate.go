package database

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrator applies SQL migrations embedded in the binary
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator reads migrations from dir inside fsys and targets databaseURL (pgx5:// scheme)
func NewMigrator(fsys fs.FS, dir, databaseURL string) (*Migrator, error) {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up applies all pending migrations. Returns false when nothing changed.
func (mg *Migrator) Up() (bool, error) {
	return changed(mg.m.Up())
}

// Down rolls back the most recent migration
func (mg *Migrator) Down() (bool, error) {
	return changed(mg.m.Steps(-1))
}

// Goto migrates up or down to version
func (mg *Migrator) Goto(version uint) (bool, error) {
	return changed(mg.m.Migrate(version))
}

// Force sets the version without running migrations and clears the dirty flag
func (mg *Migrator) Force(version int) error {
	return mg.m.Force(version)
}

// Version returns the current schema version. ok is false when no migration has run.
func (mg *Migrator) Version() (version uint, dirty bool, ok bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, err
	}
	return version, dirty, true, nil
}

// Close releases the source and database handles
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

func changed(err error) (bool, error) {
	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
