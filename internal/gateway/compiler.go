// file: internal/gateway/compiler.go
package gateway

import (
	"RangeGate/internal/core/domain"
	"RangeGate/internal/core/port"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// allowedOperators 是固定的过滤操作符白名单
var allowedOperators = map[string]struct{}{
	"=": {}, ">": {}, "<": {}, ">=": {}, "<=": {}, "<>": {}, "LIKE": {}, "IN": {},
}

// Compiler 把已校验的操作编译为参数化语句。
// 只有通过 schema 校验的表名 / 列名会被拼进 SQL 文本, 所有值一律走绑定参数。
type Compiler struct {
	policy  *domain.Policy
	dialect port.Dialect
}

// NewCompiler 创建编译器
func NewCompiler(policy *domain.Policy, dialect port.Dialect) *Compiler {
	return &Compiler{policy: policy, dialect: dialect}
}

// Compile 按操作变体分派
func (c *Compiler) Compile(op domain.Operation, schema domain.TableSchema) (domain.Statement, error) {
	switch o := op.(type) {
	case *domain.GetOperation:
		return c.compileGet(o, schema)
	case *domain.AddOperation:
		return c.compileAdd(o, schema)
	case *domain.UpdateOperation:
		return c.compileUpdate(o, schema)
	case *domain.DeleteOperation:
		return c.compileDelete(o, schema)
	default:
		return domain.Statement{}, port.NewError(port.KindUnsupportedOperation, "未知的操作变体: %T", op)
	}
}

func (c *Compiler) compileGet(op *domain.GetOperation, schema domain.TableSchema) (domain.Statement, error) {
	selectClause, err := c.buildSelectList(op.Fields, schema)
	if err != nil {
		return domain.Statement{}, err
	}
	whereClause, args, err := c.buildWhereClause(op.Where, schema, domain.OpGet)
	if err != nil {
		return domain.Statement{}, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectClause)
	sb.WriteString(" FROM ")
	sb.WriteString(c.dialect.QuoteIdent(op.Table))
	if whereClause != "" {
		sb.WriteString(" ")
		sb.WriteString(whereClause)
	}
	if orderClause := c.buildOrderClause(op.OrderBy, schema); orderClause != "" {
		sb.WriteString(" ")
		sb.WriteString(orderClause)
	}
	if op.Paging.Limit != nil {
		sb.WriteString(" LIMIT ?")
		args = append(args, *op.Paging.Limit)
		if op.Paging.Offset != nil {
			sb.WriteString(" OFFSET ?")
			args = append(args, *op.Paging.Offset)
		}
	}
	return domain.Statement{Kind: domain.OpGet, SQL: sb.String(), Args: args}, nil
}

func (c *Compiler) compileAdd(op *domain.AddOperation, schema domain.TableSchema) (domain.Statement, error) {
	keys := validDataKeys(op.Data, schema)
	if len(keys) == 0 {
		return domain.Statement{}, port.NewError(port.KindNoValidFields, "没有可写入的有效字段")
	}
	cols := make([]string, 0, len(keys))
	placeholders := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		cols = append(cols, c.dialect.QuoteIdent(k))
		placeholders = append(placeholders, "?")
		args = append(args, payloadValue(op.Data[k]))
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.dialect.QuoteIdent(op.Table), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return domain.Statement{Kind: domain.OpAdd, SQL: query, Args: args}, nil
}

func (c *Compiler) compileUpdate(op *domain.UpdateOperation, schema domain.TableSchema) (domain.Statement, error) {
	if len(op.Where) == 0 {
		return domain.Statement{}, port.NewError(port.KindNoConditions, "出于安全考虑，不允许无条件的 update 操作")
	}
	whereClause, whereArgs, err := c.buildWhereClause(op.Where, schema, domain.OpUpdate)
	if err != nil {
		return domain.Statement{}, err
	}
	keys := validDataKeys(op.Data, schema)
	if len(keys) == 0 {
		return domain.Statement{}, port.NewError(port.KindNoValidFields, "没有可更新的有效字段")
	}

	setClauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+len(whereArgs))
	for _, k := range keys {
		setClauses = append(setClauses, c.dialect.QuoteIdent(k)+" = ?")
		args = append(args, payloadValue(op.Data[k]))
	}
	args = append(args, whereArgs...)
	query := fmt.Sprintf("UPDATE %s SET %s %s", c.dialect.QuoteIdent(op.Table), strings.Join(setClauses, ", "), whereClause)
	return domain.Statement{Kind: domain.OpUpdate, SQL: query, Args: args}, nil
}

func (c *Compiler) compileDelete(op *domain.DeleteOperation, schema domain.TableSchema) (domain.Statement, error) {
	if len(op.Where) == 0 {
		return domain.Statement{}, port.NewError(port.KindNoConditions, "出于安全考虑，不允许无条件的 delete 操作")
	}
	whereClause, whereArgs, err := c.buildWhereClause(op.Where, schema, domain.OpDelete)
	if err != nil {
		return domain.Statement{}, err
	}
	query := fmt.Sprintf("DELETE FROM %s %s", c.dialect.QuoteIdent(op.Table), whereClause)
	return domain.Statement{Kind: domain.OpDelete, SQL: query, Args: whereArgs}, nil
}

// buildSelectList 空列表或恰好 ["*"] 表示全部列, 其余情况每个字段都必须存在
func (c *Compiler) buildSelectList(fields []string, schema domain.TableSchema) (string, error) {
	if len(fields) == 0 || (len(fields) == 1 && fields[0] == "*") {
		return "*", nil
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		if !schema.HasColumn(f) {
			return "", port.NewError(port.KindInvalidField, "字段 '%s' 不存在于表 '%s'", f, schema.Table)
		}
		quoted = append(quoted, c.dialect.QuoteIdent(f))
	}
	return strings.Join(quoted, ", "), nil
}

// buildWhereClause 条件之间以 AND 连接; IN 展开为与数组等长的占位符
func (c *Compiler) buildWhereClause(conds []domain.Condition, schema domain.TableSchema, kind domain.OperationKind) (string, []any, error) {
	if len(conds) == 0 {
		return "", make([]any, 0), nil
	}

	fragments := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds))
	for _, cond := range conds {
		if !schema.HasColumn(cond.Field) {
			return "", nil, port.NewError(port.KindInvalidFilterField, "过滤字段 '%s' 不存在于表 '%s'", cond.Field, schema.Table)
		}
		operator := strings.ToUpper(strings.TrimSpace(cond.Operator))
		if _, ok := allowedOperators[operator]; !ok {
			return "", nil, port.NewError(port.KindInvalidOperator, "不支持的操作符: '%s'", cond.Operator)
		}
		column := c.dialect.QuoteIdent(cond.Field)

		if operator == "IN" {
			if kind != domain.OpGet && !c.policy.AllowInForMutations() {
				return "", nil, port.NewError(port.KindInvalidOperator, "%s 操作的条件不允许使用 IN", kind)
			}
			values, ok := cond.Value.([]any)
			if !ok || len(values) == 0 {
				return "", nil, port.NewError(port.KindInvalidFilterValue, "IN 条件 '%s' 的值必须是非空数组", cond.Field)
			}
			placeholders := make([]string, len(values))
			for i, v := range values {
				if !isScalar(v) {
					return "", nil, port.NewError(port.KindInvalidFilterValue, "IN 条件 '%s' 的第 %d 个值不是标量", cond.Field, i)
				}
				placeholders[i] = "?"
				args = append(args, v)
			}
			fragments = append(fragments, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
			continue
		}

		if !isScalar(cond.Value) {
			return "", nil, port.NewError(port.KindInvalidFilterValue, "条件 '%s' 的值必须是标量", cond.Field)
		}
		fragments = append(fragments, fmt.Sprintf("%s %s ?", column, operator))
		args = append(args, cond.Value)
	}
	return "WHERE " + strings.Join(fragments, " AND "), args, nil
}

// buildOrderClause 未知字段直接丢弃; 只有不区分大小写的 DESC 才是降序
func (c *Compiler) buildOrderClause(specs []domain.OrderSpec, schema domain.TableSchema) string {
	parts := make([]string, 0, len(specs))
	for _, s := range specs {
		if !schema.HasColumn(s.Field) {
			continue
		}
		direction := "ASC"
		if strings.EqualFold(strings.TrimSpace(s.Direction), "DESC") {
			direction = "DESC"
		}
		parts = append(parts, c.dialect.QuoteIdent(s.Field)+" "+direction)
	}
	if len(parts) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

// validDataKeys 返回存在于 schema 中的 payload 键 (排序后), 其余键被静默丢弃
func validDataKeys(data map[string]any, schema domain.TableSchema) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		if schema.HasColumn(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, int64, float64, bool:
		return true
	default:
		return false
	}
}

// payloadValue 嵌套对象 / 数组以 JSON 文本写入
func payloadValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return v
	}
}
