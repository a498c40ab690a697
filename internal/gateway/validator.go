// Package gateway 实现白名单表访问网关的请求流水线:
// 校验 → schema 探测 → 子句编译 → 执行 → 结果后处理。
// file: internal/gateway/validator.go
package gateway

import (
	"RangeGate/internal/core/domain"
	"RangeGate/internal/core/port"
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequestValidator 解析原始请求体并做操作 / 表白名单校验。
// 它不接触数据库: 未知表名永远到不了 schema 探测阶段。
type RequestValidator struct {
	policy   *domain.Policy
	validate *validator.Validate
}

// NewRequestValidator 创建校验器
func NewRequestValidator(policy *domain.Policy) *RequestValidator {
	return &RequestValidator{
		policy:   policy,
		validate: validator.New(),
	}
}

// Validate 把请求体转换为对应的操作变体
func (v *RequestValidator) Validate(body []byte) (domain.Operation, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	opName, _ := raw["operation"].(string)
	if errVar := v.validate.Var(opName, "required,oneof=get add update delete"); errVar != nil {
		return nil, port.NewError(port.KindUnsupportedOperation, "不支持的操作类型: '%s'", opName)
	}
	kind, _ := domain.ParseOperationKind(opName)
	if !v.policy.OperationAllowed(kind) {
		return nil, port.NewError(port.KindUnsupportedOperation, "操作 '%s' 未被允许", opName)
	}

	table, _ := raw["table"].(string)
	if table == "" || !v.policy.TableAllowed(table) {
		return nil, port.NewError(port.KindUnknownTable, "不允许访问的表: '%s'", table)
	}

	switch kind {
	case domain.OpGet:
		fields, err := parseFields(raw["fields"])
		if err != nil {
			return nil, err
		}
		where, err := parseConditions(raw["where"])
		if err != nil {
			return nil, err
		}
		return &domain.GetOperation{
			Table:   table,
			Fields:  fields,
			Where:   where,
			OrderBy: parseOrderBy(raw["orderBy"]),
			Paging:  parsePaging(raw["limit"], raw["offset"]),
		}, nil

	case domain.OpAdd:
		return &domain.AddOperation{Table: table, Data: parseData(raw["data"])}, nil

	case domain.OpUpdate:
		where, err := parseConditions(raw["where"])
		if err != nil {
			return nil, err
		}
		return &domain.UpdateOperation{Table: table, Data: parseData(raw["data"]), Where: where}, nil

	default:
		where, err := parseConditions(raw["where"])
		if err != nil {
			return nil, err
		}
		return &domain.DeleteOperation{Table: table, Where: where}, nil
	}
}

// decodeObject 要求请求体是且仅是一个 JSON 对象
func decodeObject(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, port.NewError(port.KindMalformedRequest, "请求体为空")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, port.WrapError(port.KindMalformedRequest, err, "请求体不是合法的 JSON")
	}
	if dec.More() {
		return nil, port.NewError(port.KindMalformedRequest, "请求体包含多余内容")
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, port.NewError(port.KindMalformedRequest, "请求体必须是 JSON 对象")
	}
	return obj, nil
}

func parseFields(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, port.NewError(port.KindMalformedRequest, "'fields' 必须是字符串数组")
	}
	fields := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, port.NewError(port.KindMalformedRequest, "'fields' 必须是字符串数组")
		}
		fields = append(fields, s)
	}
	return fields, nil
}

// parseConditions 解析 where 数组。缺少 field / operator / value 的条件直接跳过,
// 由编译器决定跳过之后的空条件集是否可以接受。
func parseConditions(v any) ([]domain.Condition, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, port.NewError(port.KindMalformedRequest, "'where' 必须是数组")
	}
	conds := make([]domain.Condition, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		field, _ := m["field"].(string)
		operator, _ := m["operator"].(string)
		value, hasValue := m["value"]
		if field == "" || operator == "" || !hasValue || value == nil {
			continue
		}
		conds = append(conds, domain.Condition{
			Field:    field,
			Operator: operator,
			Value:    normalizeValue(value),
		})
	}
	return conds, nil
}

// parseOrderBy 排序属于展示层, 任何格式问题都只会让对应项被忽略
func parseOrderBy(v any) []domain.OrderSpec {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	specs := make([]domain.OrderSpec, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		field, _ := m["field"].(string)
		if field == "" {
			continue
		}
		direction, _ := m["direction"].(string)
		specs = append(specs, domain.OrderSpec{Field: field, Direction: direction})
	}
	return specs
}

// parsePaging limit 必须是数值才生效; offset 仅在 limit 生效时才会被考虑
func parsePaging(limit, offset any) domain.Paging {
	var p domain.Paging
	l, ok := numericInt(limit)
	if !ok || l < 0 {
		return p
	}
	p.Limit = &l
	if o, ok := numericInt(offset); ok && o >= 0 {
		p.Offset = &o
	}
	return p
}

func parseData(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = normalizeValue(val)
	}
	return out
}

// numericInt 接受 JSON 数字或数字字符串, 小数部分截断
func numericInt(v any) (int64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// normalizeValue 把 json.Number 转成驱动可以直接绑定的 int64 / float64
func normalizeValue(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
