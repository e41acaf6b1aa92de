package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrMigrationFailed wraps any failure while changing the schema.
var ErrMigrationFailed = errors.New("postgres: migration failed")

// migrationLockKey serialises migrators across processes via
// pg_advisory_xact_lock.
const migrationLockKey int64 = 0x76616c6f726f6e // "valoron"

const migrationsTable = "schema_migrations"

// Migration is one embedded schema step.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator applies the embedded migrations in version order.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

// NewMigrator creates a migrator over GetMigrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, migrations: GetMigrations()}
}

// EnsureMigrationTable creates the bookkeeping table.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrMigrationFailed, migrationsTable, err)
	}
	return nil
}

// GetAppliedMigrations maps applied versions to when they ran.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	return appliedVersions(ctx, m.conn)
}

func appliedVersions(ctx context.Context, q Querier) (map[int]time.Time, error) {
	rows, err := q.Query(ctx, `SELECT version, applied_at FROM `+migrationsTable)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	applied := make(map[int]time.Time)
	var (
		version int
		at      time.Time
	)
	_, err = pgx.ForEachRow(rows, []any{&version, &at}, func() error {
		applied[version] = at
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan applied migrations: %w", err)
	}
	return applied, nil
}

// Migrate applies every pending migration, each in its own transaction, and
// returns how many ran. Concurrent migrators wait on an advisory lock.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range m.migrations {
		if mig.UpSQL == "" {
			return count, fmt.Errorf("%w: migration %d has no up SQL", ErrMigrationFailed, mig.Version)
		}
		ran := false
		err := m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
				return err
			}
			applied, err := appliedVersions(ctx, tx)
			if err != nil {
				return err
			}
			if _, done := applied[mig.Version]; done {
				return nil
			}
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `INSERT INTO `+migrationsTable+` (version, name) VALUES ($1, $2)`, mig.Version, mig.Name); err != nil {
				return err
			}
			ran = true
			return nil
		})
		if err != nil {
			return count, fmt.Errorf("%w: %03d_%s: %v", ErrMigrationFailed, mig.Version, mig.Name, err)
		}
		if ran {
			count++
		}
	}
	return count, nil
}

// Rollback reverts the newest applied migration. It is a no-op on an empty
// schema.
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	return m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
			return err
		}
		var last int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM `+migrationsTable).Scan(&last); err != nil {
			return fmt.Errorf("find last migration: %w", err)
		}
		if last == 0 {
			return nil
		}

		mig, ok := m.find(last)
		if !ok || mig.DownSQL == "" {
			return fmt.Errorf("%w: migration %d has no down SQL", ErrMigrationFailed, last)
		}
		if _, err := tx.Exec(ctx, mig.DownSQL); err != nil {
			return fmt.Errorf("%w: revert %03d_%s: %v", ErrMigrationFailed, mig.Version, mig.Name, err)
		}
		_, err := tx.Exec(ctx, `DELETE FROM `+migrationsTable+` WHERE version = $1`, last)
		return err
	})
}

// Status lists the embedded migrations with their applied state.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	return markApplied(m.migrations, applied), nil
}

func (m *Migrator) find(version int) (Migration, bool) {
	for _, mig := range m.migrations {
		if mig.Version == version {
			return mig, true
		}
	}
	return Migration{}, false
}

func markApplied(migrations []Migration, applied map[int]time.Time) []Migration {
	out := make([]Migration, len(migrations))
	for i, mig := range migrations {
		if at, ok := applied[mig.Version]; ok {
			mig.IsApplied = true
			mig.AppliedAt = at
		}
		out[i] = mig
	}
	return out
}
