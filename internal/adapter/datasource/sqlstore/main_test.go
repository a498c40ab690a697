// file: internal/adapter/datasource/sqlstore/main_test.go
package sqlstore

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// ============================================================================
//  共享测试辅助工具 (Shared Test Helpers)
// ============================================================================

// createTestDB 创建一个带有指定 schema 的临时数据库文件。
func createTestDB(t *testing.T, createStmts ...string) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crm.db")

	dsn := "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)

	for _, stmt := range createStmts {
		_, err = db.Exec(stmt)
		require.NoError(t, err, "Failed to execute statement: %s", stmt)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

const membersDDL = `CREATE TABLE members (
	member_id INTEGER PRIMARY KEY AUTOINCREMENT,
	member_name TEXT NOT NULL,
	member_phone TEXT,
	branch_id INTEGER
)`

func newSQLiteStore(t *testing.T, stmts ...string) (*Store, *sql.DB) {
	t.Helper()
	db := createTestDB(t, append([]string{membersDDL}, stmts...)...)
	store, err := New(db, DriverSQLite)
	require.NoError(t, err)
	return store, db
}
