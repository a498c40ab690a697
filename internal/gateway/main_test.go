// file: internal/gateway/main_test.go
package gateway

import (
	"RangeGate/internal/core/domain"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ============================================================================
//  测试替身 (Test Doubles)
// ============================================================================

// fakeIntrospector 记录调用次数, 便于断言白名单校验先于任何数据库访问
type fakeIntrospector struct {
	IntrospectFunc func(ctx context.Context, table string) (domain.TableSchema, error)
	calls          int
}

func (f *fakeIntrospector) Introspect(ctx context.Context, table string) (domain.TableSchema, error) {
	f.calls++
	if f.IntrospectFunc != nil {
		return f.IntrospectFunc(ctx, table)
	}
	return domain.TableSchema{}, errors.New("no schema configured")
}

// fakeExecutor 记录最后一次收到的语句
type fakeExecutor struct {
	QueryRowsFunc func(ctx context.Context, stmt domain.Statement) ([]map[string]any, error)
	ExecFunc      func(ctx context.Context, stmt domain.Statement) (domain.ExecResult, error)
	statements    []domain.Statement
}

func (f *fakeExecutor) QueryRows(ctx context.Context, stmt domain.Statement) ([]map[string]any, error) {
	f.statements = append(f.statements, stmt)
	if f.QueryRowsFunc != nil {
		return f.QueryRowsFunc(ctx, stmt)
	}
	return []map[string]any{}, nil
}

func (f *fakeExecutor) Exec(ctx context.Context, stmt domain.Statement) (domain.ExecResult, error) {
	f.statements = append(f.statements, stmt)
	if f.ExecFunc != nil {
		return f.ExecFunc(ctx, stmt)
	}
	return domain.ExecResult{}, nil
}

// testDialect 使用双引号引用标识符 (与 SQLite 一致)
type testDialect struct{}

func (testDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var membersSchema = domain.TableSchema{
	Table:   "members",
	Columns: []string{"member_id", "member_name", "member_phone", "branch_id"},
}

func staticSchema(schema domain.TableSchema) func(context.Context, string) (domain.TableSchema, error) {
	return func(_ context.Context, table string) (domain.TableSchema, error) {
		if table != schema.Table {
			return domain.TableSchema{}, errors.New("unexpected table " + table)
		}
		return schema, nil
	}
}

func newTestPolicy(t *testing.T, mutate ...func(*domain.PolicyOptions)) *domain.Policy {
	t.Helper()
	opts := domain.PolicyOptions{
		Tables:       []string{"members", "branches", "lockers"},
		PhoneColumns: []string{"member_phone"},
	}
	for _, m := range mutate {
		m(&opts)
	}
	p, err := domain.NewPolicy(opts)
	require.NoError(t, err)
	return p
}
