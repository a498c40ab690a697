// file: internal/transport/http/router/router.go
package router

import (
	"RangeGate/internal/aegmiddleware"
	"RangeGate/internal/aegobserve"
	"RangeGate/internal/gateway"
	"RangeGate/internal/transport/http/middleware"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// HealthChecker 由存储层实现, /healthz 用它探测连接
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies 结构体用于将所有依赖项注入到路由器中
type Dependencies struct {
	Gateway *gateway.Service
	Store   HealthChecker
	Guard   *aegmiddleware.AccessGuard
	// Limiter 为 nil 时不做速率限制
	Limiter     *aegmiddleware.BusinessRateLimiter
	Admin       *aegmiddleware.AdminAuthenticator
	GuardHeader string
	MetricsPath string
	// TrustedProxies 允许提供转发头的代理地址 (IP 或 CIDR), 为空表示不信任任何代理
	TrustedProxies []string
}

// New 创建并配置基于 Gin 的 HTTP 路由器
func New(deps Dependencies) http.Handler {
	router := gin.New()
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		slog.Error("[Router] 可信代理配置无效, 将忽略所有转发头", "error", err)
		_ = router.SetTrustedProxies(nil)
	}

	// --- 配置全局中间件 ---
	router.Use(gin.Recovery())
	router.Use(wrap(aegmiddleware.RequestID))
	router.Use(clientIPMiddleware())
	router.Use(aegobserve.PrometheusMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(cors.New(corsConfig(deps.GuardHeader)))
	router.Use(middleware.ErrorHandlingMiddleware())

	router.GET("/healthz", healthHandler(deps.Store))
	metricsPath := deps.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	router.GET(metricsPath, gin.WrapH(aegobserve.Handler()))

	v1 := router.Group("/api/v1")
	{
		// 移动端: 共享密钥守卫必须最先执行, 之后才是限流与网关
		mobile := v1.Group("/gateway")
		mobile.Use(wrap(deps.Guard.Middleware))
		if deps.Limiter != nil {
			mobile.Use(wrap(deps.Limiter.Chain))
		}
		mobile.POST("", gatewayHandler(deps.Gateway))

		// 管理页面: 以管理员令牌代替共享密钥
		admin := v1.Group("/admin/gateway")
		admin.Use(wrap(deps.Admin.RequireAdmin))
		admin.POST("", gatewayHandler(deps.Gateway))
	}

	return router
}

func corsConfig(guardHeader string) cors.Config {
	headers := []string{"Origin", "Content-Type", "Authorization", "Accept", aegmiddleware.RequestIDHeader}
	if guardHeader != "" {
		headers = append(headers, guardHeader)
	}
	return cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    headers,
		ExposeHeaders:   []string{"Content-Length", aegmiddleware.RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}
}

// =============================================================================
//  Gin 中间件 (Middleware)
// =============================================================================

// wrap 把 net/http 风格的中间件接入 gin 流程。
// 中间件自行写出响应 (拒绝请求) 时中止后续处理。
func wrap(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		passed := false
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

// clientIPMiddleware 按可信代理规则解析客户端IP并放入请求上下文
func clientIPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(aegmiddleware.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}

// healthHandler 探测存储连接是否可用
func healthHandler(store HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
