// Package aegobserve 暴露 Prometheus 指标
package aegobserve

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 指标定义
var (
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rangegate_http_request_duration_seconds",
		Help:    "HTTP 请求耗时",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "code"})

	gatewayOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rangegate_gateway_operations_total",
		Help: "网关操作次数, 按操作、表和结果划分",
	}, []string{"operation", "table", "outcome"})
)

// OutcomeOK 成功操作的 outcome 标签值
const OutcomeOK = "ok"

// Register 必须在 main 调用一次
func Register() {
	prometheus.MustRegister(httpRequestDuration, gatewayOperations)
}

// Handler 返回 HTTP 处理器
func Handler() http.Handler { return promhttp.Handler() }

// ObserveGatewayOperation 记录一次网关操作。
// table 只应传入白名单内的表名, 否则标签基数不受控。
func ObserveGatewayOperation(operation, table, outcome string) {
	gatewayOperations.WithLabelValues(operation, table, outcome).Inc()
}

// PrometheusMiddleware 记录每个请求的耗时, path 使用路由模板
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestDuration.
			WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
