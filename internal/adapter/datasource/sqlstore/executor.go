// file: internal/adapter/datasource/sqlstore/executor.go
package sqlstore

import (
	"RangeGate/internal/core/domain"
	"context"
	"fmt"
)

// QueryRows 实现 port.QueryExecutor，执行参数化查询并把每行扫描为 map
func (s *Store) QueryRows(ctx context.Context, stmt domain.Statement) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("执行查询失败: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("读取结果列失败: %w", err)
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		scanDest := make([]any, len(columns))
		scanDestPtrs := make([]any, len(columns))
		for i := range scanDest {
			scanDestPtrs[i] = &scanDest[i]
		}
		if errScan := rows.Scan(scanDestPtrs...); errScan != nil {
			return nil, fmt.Errorf("扫描行数据失败: %w", errScan)
		}
		rowData := make(map[string]any, len(columns))
		for i, colName := range columns {
			if bytes, ok := scanDest[i].([]byte); ok {
				rowData[colName] = string(bytes)
			} else {
				rowData[colName] = scanDest[i]
			}
		}
		results = append(results, rowData)
	}
	if errRows := rows.Err(); errRows != nil {
		return nil, fmt.Errorf("迭代行数据时发生错误: %w", errRows)
	}
	return results, nil
}

// Exec 实现 port.QueryExecutor，执行单条写语句，不开启事务
func (s *Store) Exec(ctx context.Context, stmt domain.Statement) (domain.ExecResult, error) {
	res, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("执行写语句失败: %w", err)
	}

	var out domain.ExecResult
	if stmt.Kind == domain.OpAdd {
		if out.LastInsertID, err = res.LastInsertId(); err != nil {
			return domain.ExecResult{}, fmt.Errorf("读取自增ID失败: %w", err)
		}
	}
	if out.RowsAffected, err = res.RowsAffected(); err != nil {
		return domain.ExecResult{}, fmt.Errorf("读取影响行数失败: %w", err)
	}
	return out, nil
}
