// file: internal/gateway/schema_cache.go
package gateway

import (
	"RangeGate/internal/core/domain"
	"RangeGate/internal/core/port"
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// CachingIntrospector 为 SchemaIntrospector 加一层带过期时间的 LRU 缓存。
// 只缓存成功结果。默认部署不启用: 每个请求都实时探测 schema。
type CachingIntrospector struct {
	next  port.SchemaIntrospector
	cache *lru.LRU[string, domain.TableSchema]
}

var _ port.SchemaIntrospector = (*CachingIntrospector)(nil)

// NewCachingIntrospector 创建缓存探测器
func NewCachingIntrospector(next port.SchemaIntrospector, size int, ttl time.Duration) *CachingIntrospector {
	if size <= 0 {
		size = 128
	}
	return &CachingIntrospector{
		next:  next,
		cache: lru.NewLRU[string, domain.TableSchema](size, nil, ttl),
	}
}

// Introspect 命中缓存直接返回, 否则委托给底层探测器
func (c *CachingIntrospector) Introspect(ctx context.Context, table string) (domain.TableSchema, error) {
	if schema, ok := c.cache.Get(table); ok {
		return schema, nil
	}
	schema, err := c.next.Introspect(ctx, table)
	if err != nil {
		return domain.TableSchema{}, err
	}
	c.cache.Add(table, schema)
	return schema, nil
}
