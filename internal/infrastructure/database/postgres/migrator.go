package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
)

// Migrator applies the SQL files of a migrations directory.
type Migrator struct {
	conn *Connection
	dir  string
}

// NewMigrator returns a migrator reading dir.
func NewMigrator(conn *Connection, dir string) *Migrator {
	return &Migrator{conn: conn, dir: dir}
}

func (m *Migrator) instance() (*migrate.Migrate, error) {
	driver, err := migratepgx.WithInstance(m.conn.DB(), &migratepgx.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}
	mig, err := migrate.NewWithDatabaseInstance("file://"+m.dir, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mig, nil
}

// Up applies all pending migrations. No pending migration is not an error.
func (m *Migrator) Up() error {
	mig, err := m.instance()
	if err != nil {
		return err
	}
	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	version, dirty, err := m.status(mig)
	if err != nil {
		return err
	}
	m.conn.logger.Info("database migrations applied",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty))
	return nil
}

// Down rolls back steps migrations.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0, got %d", steps)
	}
	mig, err := m.instance()
	if err != nil {
		return err
	}
	if err := mig.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("no migrations to roll back")
		}
		return fmt.Errorf("failed to rollback %d step(s): %w", steps, err)
	}
	return nil
}

// Status returns the applied version and whether a failed migration left the
// schema dirty. An empty database reports version 0.
func (m *Migrator) Status() (uint, bool, error) {
	mig, err := m.instance()
	if err != nil {
		return 0, false, err
	}
	return m.status(mig)
}

func (m *Migrator) status(mig *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := mig.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the version without running migrations, to recover a dirty
// schema after manual repair.
func (m *Migrator) Force(version int) error {
	mig, err := m.instance()
	if err != nil {
		return err
	}
	if err := mig.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}
