// Package sqlstore file: internal/adapter/datasource/sqlstore/dialect.go
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// dialect 在 port.Dialect 之上增加列探测能力
type dialect interface {
	QuoteIdent(name string) string
	listColumns(ctx context.Context, db *sql.DB, table string) ([]string, error)
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return sqliteDialect{}, nil
	case DriverMySQL:
		return mysqlDialect{}, nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: '%s'", driver)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// listColumns 通过 PRAGMA table_info 按列定义顺序返回物理列名。
// 表不存在时 PRAGMA 返回空结果而不是错误。
func (d sqliteDialect) listColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, d.QuoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("PRAGMA table_info for table %q 失败: %w", table, err)
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var (
			cid       int
			colName   string
			colType   string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notnull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("扫描表 %q 的列信息失败: %w", table, err)
		}
		cols = append(cols, colName)
	}
	return cols, rows.Err()
}

type mysqlDialect struct{}

func (mysqlDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

const mysqlColumnsQuery = `SELECT COLUMN_NAME FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`

// listColumns 查询 information_schema，表名作为绑定参数传入
func (mysqlDialect) listColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, mysqlColumnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("查询 information_schema 表 %q 失败: %w", table, err)
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var colName string
		if err := rows.Scan(&colName); err != nil {
			return nil, fmt.Errorf("扫描表 %q 的列信息失败: %w", table, err)
		}
		cols = append(cols, colName)
	}
	return cols, rows.Err()
}
