package back

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/charmbracelet/log"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate brings the schema to the latest version found in migrations, a
// directory of golang-migrate "N_name.up.sql" files.
func (b *Back) Migrate(migrations fs.FS) error {
	src, err := iofs.New(migrations, ".")
	if err != nil {
		return fmt.Errorf("unable to read migrations: %w", err)
	}

	// The sqlite3 driver only issues plain SQL on the given handle, it works
	// for libsql too.
	driver, err := sqlite3.WithInstance(b.db.DB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("unable to create migration driver: %w", wrapDBError(err))
	}

	// Do not Close() the migrator, it would close the shared *sql.DB.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}

	before, _, _ := m.Version()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("unable to migrate: %w", wrapDBError(err))
	}
	after, dirty, _ := m.Version()

	if dirty {
		return fmt.Errorf("schema version %d is dirty", after)
	}

	if before != after {
		log.Infof("migrated schema from version %d to %d", before, after)
	} else {
		log.Debugf("schema up to date at version %d", after)
	}

	return nil
}
