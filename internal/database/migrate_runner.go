package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"murmur/internal/middleware"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUndefinedTable = "42P01"

// MigrationLog records one applied migration.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

const ensureMigrationLogTableSQL = `CREATE TABLE IF NOT EXISTS migration_logs (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// requirePostgres rejects other dialects; the scripts use Postgres DDL.
func requirePostgres(db *gorm.DB) error {
	if name := db.Dialector.Name(); name != "postgres" {
		return fmt.Errorf("sql migrations need postgres, not %s; use AutoMigrate", name)
	}
	return nil
}

// appliedVersions lists migration_logs in version order. A database that
// has never been migrated has none.
func appliedVersions(ctx context.Context, db *gorm.DB) ([]int, error) {
	versions := []int{}
	err := db.WithContext(ctx).Model(&MigrationLog{}).Order("version").Pluck("version", &versions).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return []int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migration_logs: %w", err)
	}
	return versions, nil
}

// pendingMigrations returns what remains to apply after applied. The applied
// set must be a prefix of all: an unknown version means the code is older
// than the database, and a gap means a step was skipped or rolled back out
// of order.
func pendingMigrations(all []Migration, applied []int) ([]Migration, error) {
	if len(applied) > len(all) {
		return nil, fmt.Errorf("database has %d migrations applied but only %d are known", len(applied), len(all))
	}
	for i, version := range applied {
		if version != all[i].Version {
			if _, ok := migrationByVersion(all, version); !ok {
				return nil, fmt.Errorf("migration_logs has unknown version %06d", version)
			}
			return nil, fmt.Errorf("migration_logs skips %s", all[i])
		}
	}
	return all[len(applied):], nil
}

// RunMigrations applies every pending migration in order. Each script and
// its migration_logs row commit in one transaction, so a failed step leaves
// neither behind.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if err := requirePostgres(db); err != nil {
		return err
	}
	all, err := Migrations()
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).Exec(ensureMigrationLogTableSQL).Error; err != nil {
		return fmt.Errorf("ensure migration_logs: %w", err)
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}
	pending, err := pendingMigrations(all, applied)
	if err != nil {
		return err
	}

	for _, m := range pending {
		middleware.Logger.Info("Applying migration", slog.String("migration", m.String()))
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.UpScript).Error; err != nil {
				return err
			}
			return tx.Exec("INSERT INTO migration_logs (version, name) VALUES (?, ?)", m.Version, m.Name).Error
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m, err)
		}
	}
	if len(pending) == 0 {
		middleware.Logger.Debug("Schema is up to date", slog.Int("version", len(applied)))
	}
	return nil
}

// RollbackMigration reverts version, which must be the newest applied
// migration. Reverting an older one would strand the steps built on it.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	if err := requirePostgres(db); err != nil {
		return err
	}
	all, err := Migrations()
	if err != nil {
		return err
	}
	m, ok := migrationByVersion(all, version)
	if !ok {
		return fmt.Errorf("migration version %d not found", version)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return fmt.Errorf("no migrations have been applied")
	}
	if latest := applied[len(applied)-1]; latest != version {
		return fmt.Errorf("migration %s is not the latest applied (%06d); roll back newer ones first", m, latest)
	}

	middleware.Logger.Info("Rolling back migration", slog.String("migration", m.String()))
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM migration_logs WHERE version = ?", version).Error
	})
	if err != nil {
		return fmt.Errorf("roll back migration %s: %w", m, err)
	}
	return nil
}
