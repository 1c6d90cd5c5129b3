package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func sqlFile(body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(body)}
}

func TestLoadMigrations(t *testing.T) {
	valid := fstest.MapFS{
		"m/000002_second.up.sql":   sqlFile("ALTER TABLE a ADD COLUMN b INT;"),
		"m/000002_second.down.sql": sqlFile("ALTER TABLE a DROP COLUMN b;"),
		"m/000001_first.up.sql":    sqlFile("CREATE TABLE a (id INT);"),
		"m/000001_first.down.sql":  sqlFile("DROP TABLE a;"),
	}
	all, err := loadMigrations(valid, "m")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "000001_first", all[0].String())
	assert.Equal(t, "000002_second", all[1].String())
	assert.Equal(t, "DROP TABLE a;", all[0].DownScript)

	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{
			name: "missing down",
			files: fstest.MapFS{
				"m/000001_first.up.sql": sqlFile("CREATE TABLE a (id INT);"),
			},
			wantErr: "both an up and a down",
		},
		{
			name: "gap",
			files: fstest.MapFS{
				"m/000001_first.up.sql":   sqlFile("x"),
				"m/000001_first.down.sql": sqlFile("x"),
				"m/000003_third.up.sql":   sqlFile("x"),
				"m/000003_third.down.sql": sqlFile("x"),
			},
			wantErr: "contiguous",
		},
		{
			name: "name disagreement",
			files: fstest.MapFS{
				"m/000001_first.up.sql":   sqlFile("x"),
				"m/000001_other.down.sql": sqlFile("x"),
			},
			wantErr: "two names",
		},
		{
			name: "non numeric version",
			files: fstest.MapFS{
				"m/00000x_first.up.sql":   sqlFile("x"),
				"m/00000x_first.down.sql": sqlFile("x"),
			},
			wantErr: "invalid version",
		},
		{
			name: "short version",
			files: fstest.MapFS{
				"m/1_first.up.sql":   sqlFile("x"),
				"m/1_first.down.sql": sqlFile("x"),
			},
			wantErr: "NNNNNN_name",
		},
		{
			name: "stray file",
			files: fstest.MapFS{
				"m/000001_first.sql": sqlFile("x"),
			},
			wantErr: "suffix",
		},
		{
			name: "empty script",
			files: fstest.MapFS{
				"m/000001_first.up.sql":   sqlFile("  \n"),
				"m/000001_first.down.sql": sqlFile("x"),
			},
			wantErr: "empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadMigrations(tt.files, "m")
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}, {Version: 3, Name: "c"}}

	pending, err := pendingMigrations(all, []int{})
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	pending, err = pendingMigrations(all, []int{1, 2})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 3, pending[0].Version)

	pending, err = pendingMigrations(all, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = pendingMigrations(all, []int{1, 3})
	assert.ErrorContains(t, err, "skips 000002_b")

	_, err = pendingMigrations(all, []int{1, 7})
	assert.ErrorContains(t, err, "unknown version 000007")

	_, err = pendingMigrations(all, []int{1, 2, 3, 4})
	assert.ErrorContains(t, err, "only 3 are known")
}

func newMigrationMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

var selectApplied = regexp.QuoteMeta(`SELECT "version" FROM "migration_logs" ORDER BY version`)

func TestRunMigrations_AppliesPendingInOwnTransactions(t *testing.T) {
	db, mock := newMigrationMock(t)
	all, err := Migrations()
	require.NoError(t, err)
	require.Len(t, all, 2)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS migration_logs")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectApplied).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE reactions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO migration_logs (version, name) VALUES ($1, $2)")).
		WithArgs(2, "reaction_target_fks").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_FailedStepLeavesNoLogRow(t *testing.T) {
	db, mock := newMigrationMock(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS migration_logs")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectApplied).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
		WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err := RunMigrations(context.Background(), db)
	assert.ErrorContains(t, err, "000001_social_graph")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollbackMigration_OnlyLatest(t *testing.T) {
	ctx := context.Background()

	t.Run("older version refused", func(t *testing.T) {
		db, mock := newMigrationMock(t)
		mock.ExpectQuery(selectApplied).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1).AddRow(2))

		err := RollbackMigration(ctx, db, 1)
		assert.ErrorContains(t, err, "not the latest applied")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("latest reverted with its log row", func(t *testing.T) {
		db, mock := newMigrationMock(t)
		mock.ExpectQuery(selectApplied).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1).AddRow(2))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE reactions DROP CONSTRAINT IF EXISTS fk_reactions_reply")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM migration_logs WHERE version = $1")).
			WithArgs(2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, RollbackMigration(ctx, db, 2))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("never migrated", func(t *testing.T) {
		db, mock := newMigrationMock(t)
		mock.ExpectQuery(selectApplied).
			WillReturnError(&pgconn.PgError{Code: pgUndefinedTable})

		err := RollbackMigration(ctx, db, 1)
		assert.ErrorContains(t, err, "no migrations have been applied")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown version", func(t *testing.T) {
		db, _ := newMigrationMock(t)
		assert.ErrorContains(t, RollbackMigration(ctx, db, 99), "not found")
	})
}
