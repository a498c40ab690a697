// Package domain file: internal/core/domain/policy.go
package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Policy 是启动时构造、之后只读的访问白名单。
// 请求校验器和子句编译器通过引用持有它, 不存在任何全局查找。
type Policy struct {
	tables              map[string]struct{}
	operations          map[OperationKind]struct{}
	allowInForMutations bool
	phoneColumns        []string
}

// PolicyOptions 用于构造 Policy
type PolicyOptions struct {
	Tables              []string
	Operations          []string
	AllowInForMutations bool
	PhoneColumns        []string
}

// NewPolicy 根据配置构造白名单。Operations 为空时允许全部四种操作。
func NewPolicy(opts PolicyOptions) (*Policy, error) {
	if len(opts.Tables) == 0 {
		return nil, fmt.Errorf("表白名单不能为空")
	}
	p := &Policy{
		tables:              make(map[string]struct{}, len(opts.Tables)),
		operations:          make(map[OperationKind]struct{}, len(AllOperationKinds)),
		allowInForMutations: opts.AllowInForMutations,
	}
	for _, t := range opts.Tables {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, fmt.Errorf("表白名单中存在空表名")
		}
		p.tables[t] = struct{}{}
	}

	if len(opts.Operations) == 0 {
		for _, k := range AllOperationKinds {
			p.operations[k] = struct{}{}
		}
	}
	for _, op := range opts.Operations {
		kind, ok := ParseOperationKind(op)
		if !ok {
			return nil, fmt.Errorf("未知的操作类型: '%s'", op)
		}
		p.operations[kind] = struct{}{}
	}

	for _, c := range opts.PhoneColumns {
		if c = strings.TrimSpace(c); c != "" {
			p.phoneColumns = append(p.phoneColumns, c)
		}
	}
	return p, nil
}

// ParseOperationKind 严格匹配四种操作名 (区分大小写)
func ParseOperationKind(s string) (OperationKind, bool) {
	for _, k := range AllOperationKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// TableAllowed 判断表是否在白名单中
func (p *Policy) TableAllowed(table string) bool {
	_, ok := p.tables[table]
	return ok
}

// OperationAllowed 判断操作是否在白名单中
func (p *Policy) OperationAllowed(kind OperationKind) bool {
	_, ok := p.operations[kind]
	return ok
}

// AllowInForMutations 表示 update / delete 的 where 条件是否允许使用 IN。
// 默认关闭: 按值集合批量修改被视为高风险操作。
func (p *Policy) AllowInForMutations() bool { return p.allowInForMutations }

// PhoneColumns 返回需要做电话号码规范化的列名
func (p *Policy) PhoneColumns() []string { return p.phoneColumns }

// Tables 返回排序后的白名单表名
func (p *Policy) Tables() []string {
	out := make([]string, 0, len(p.tables))
	for t := range p.tables {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
