// Package port file: internal/core/port/gateway.go
package port

import (
	"RangeGate/internal/core/domain"
	"context"
)

// SchemaIntrospector 返回指定表的实时列清单。
// 返回的列清单是本次请求中"合法字段"的唯一依据。
type SchemaIntrospector interface {
	Introspect(ctx context.Context, table string) (domain.TableSchema, error)
}

// QueryExecutor 以参数化方式执行已编译的语句
type QueryExecutor interface {
	// QueryRows 执行 get 语句并返回行数据
	QueryRows(ctx context.Context, stmt domain.Statement) ([]map[string]any, error)

	// Exec 执行 add / update / delete 语句
	Exec(ctx context.Context, stmt domain.Statement) (domain.ExecResult, error)
}

// Dialect 提供标识符引用规则。表名和列名是语句中唯一不走绑定参数的部分,
// 且只有通过白名单 / schema 校验后才会到达这里。
type Dialect interface {
	QuoteIdent(name string) string
}
