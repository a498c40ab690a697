// file: internal/adapter/datasource/sqlstore/schema.go
package sqlstore

import (
	"RangeGate/internal/core/domain"
	"context"
	"errors"
	"fmt"
)

// ErrTableNotInSchema 表示白名单中的表在实时库中不存在 (配置漂移)
var ErrTableNotInSchema = errors.New("表在数据库中不存在或没有任何列")

// Introspect 实现 port.SchemaIntrospector，每次调用都会实时查询元数据，不做缓存。
func (s *Store) Introspect(ctx context.Context, table string) (domain.TableSchema, error) {
	cols, err := s.dialect.listColumns(ctx, s.db, table)
	if err != nil {
		return domain.TableSchema{}, err
	}
	if len(cols) == 0 {
		return domain.TableSchema{}, fmt.Errorf("表 '%s': %w", table, ErrTableNotInSchema)
	}
	return domain.TableSchema{Table: table, Columns: cols}, nil
}
