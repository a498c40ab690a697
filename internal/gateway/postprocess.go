// file: internal/gateway/postprocess.go
package gateway

import (
	"RangeGate/internal/core/domain"
	"strings"
)

// PostProcessor 在 get 结果序列化前做输出转换。它是纯函数, 不会让请求失败。
type PostProcessor struct {
	phoneColumns []string
}

// NewPostProcessor 创建后处理器
func NewPostProcessor(policy *domain.Policy) *PostProcessor {
	return &PostProcessor{phoneColumns: policy.PhoneColumns()}
}

// Apply 就地规范化 rows 中的电话列, 只处理 schema 中真实存在的电话列
func (p *PostProcessor) Apply(schema domain.TableSchema, rows []map[string]any) {
	var cols []string
	for _, c := range p.phoneColumns {
		if schema.HasColumn(c) {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return
	}
	for _, row := range rows {
		for _, c := range cols {
			if s, ok := row[c].(string); ok {
				row[c] = NormalizePhone(s)
			}
		}
	}
}

// NormalizePhone 提取数字; 恰好 11 位时格式化为 3-4-4, 否则原样返回
func NormalizePhone(v string) string {
	var digits strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) != 11 {
		return v
	}
	return d[:3] + "-" + d[3:7] + "-" + d[7:]
}
