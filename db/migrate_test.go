package db

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRaw(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "m.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationNamesOrdered(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.True(t, strings.HasPrefix(names[0], "000_"), "schema_migrations must be created first")
	assert.IsIncreasing(t, names)
}

func TestMigrate_CascadeDeletesInvocations(t *testing.T) {
	db := openRaw(t)
	require.NoError(t, Migrate(db, nil))

	_, err := db.Exec(`INSERT INTO sweep_runs (id, evaluator, interpreter, script_path, data_path, weights_path, status, started_at)
		VALUES ('r1', 'monovit', 'python', 's.py', 'd', 'w', 'completed', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO sweep_invocations (run_id, seq, corruption, severity, command, status, exit_code, started_at)
		VALUES ('r1', 0, 'fog', 1, 'python s.py', 'completed', 0, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM sweep_runs WHERE id = 'r1'")
	require.NoError(t, err)

	var remaining int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sweep_invocations").Scan(&remaining))
	assert.Equal(t, 0, remaining)
}

func TestMigrate_RejectsDuplicatePair(t *testing.T) {
	db := openRaw(t)
	require.NoError(t, Migrate(db, nil))

	_, err := db.Exec(`INSERT INTO sweep_runs (id, evaluator, interpreter, script_path, data_path, weights_path, status, started_at)
		VALUES ('r1', 'monovit', 'python', 's.py', 'd', 'w', 'running', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	insert := `INSERT INTO sweep_invocations (run_id, seq, corruption, severity, command, status, exit_code, started_at)
		VALUES ('r1', ?, 'fog', 3, 'cmd', 'completed', 0, CURRENT_TIMESTAMP)`
	_, err = db.Exec(insert, 0)
	require.NoError(t, err)
	_, err = db.Exec(insert, 1)
	assert.Error(t, err, "one row per (run, corruption, severity)")
}

func TestMigrate_MissingSchemaTable(t *testing.T) {
	db := openRaw(t)
	require.NoError(t, Migrate(db, nil))

	_, err := db.Exec("DROP TABLE schema_migrations")
	require.NoError(t, err)

	// 000 recreates the bookkeeping table; the remaining DDL is idempotent
	require.NoError(t, Migrate(db, nil))

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 3, applied)
}
