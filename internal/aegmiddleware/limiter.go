package aegmiddleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL       = 15 * time.Minute
	limiterSweepInterval = 10 * time.Minute
)

// limiterEntry 存储限制器和最后访问时间
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimitSettings 描述全局与单IP的令牌桶参数, 速率单位为 req/s
type LimitSettings struct {
	GlobalRate  float64
	GlobalBurst int
	IPRate      float64
	IPBurst     int
}

// ============================================================================
//  业务速率限制器 (Business Rate Limiter)
// ============================================================================

// BusinessRateLimiter 管理网关入口的全局与单IP速率限制。
type BusinessRateLimiter struct {
	globalLimiter *rate.Limiter

	ipLimiters map[string]*limiterEntry
	ipMu       sync.Mutex
	ipRate     rate.Limit
	ipBurst    int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewBusinessRateLimiter 创建速率限制器并启动后台清理协程, 使用完毕需调用 Close
func NewBusinessRateLimiter(s LimitSettings) *BusinessRateLimiter {
	if s.GlobalBurst <= 0 {
		s.GlobalBurst = 1
	}
	if s.IPBurst <= 0 {
		s.IPBurst = 1
	}
	brl := &BusinessRateLimiter{
		globalLimiter: rate.NewLimiter(rate.Limit(s.GlobalRate), s.GlobalBurst),
		ipLimiters:    make(map[string]*limiterEntry),
		ipRate:        rate.Limit(s.IPRate),
		ipBurst:       s.IPBurst,
		stop:          make(chan struct{}),
	}
	go brl.cleanupIPs(limiterSweepInterval)

	slog.Info("[Business Limiter] 初始化完成",
		"global_rate", s.GlobalRate, "global_burst", s.GlobalBurst,
		"ip_rate", s.IPRate, "ip_burst", s.IPBurst)
	return brl
}

// Close 停止后台清理协程
func (brl *BusinessRateLimiter) Close() {
	brl.stopOnce.Do(func() { close(brl.stop) })
}

// cleanupIPs 定期清理不活跃的IP条目
func (brl *BusinessRateLimiter) cleanupIPs(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-brl.stop:
			return
		case <-ticker.C:
			brl.evictIdle(time.Now())
		}
	}
}

func (brl *BusinessRateLimiter) evictIdle(now time.Time) int {
	brl.ipMu.Lock()
	defer brl.ipMu.Unlock()
	evicted := 0
	for ip, entry := range brl.ipLimiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(brl.ipLimiters, ip)
			evicted++
		}
	}
	return evicted
}

func (brl *BusinessRateLimiter) ipLimiter(ip string) *rate.Limiter {
	brl.ipMu.Lock()
	defer brl.ipMu.Unlock()
	entry, exists := brl.ipLimiters[ip]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(brl.ipRate, brl.ipBurst)}
		brl.ipLimiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Global 返回全局限制中间件
func (brl *BusinessRateLimiter) Global(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !brl.globalLimiter.Allow() {
			errResp(w, http.StatusTooManyRequests, "TooManyRequests", "系统繁忙，请稍后再试")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PerIP 返回IP限制中间件
func (brl *BusinessRateLimiter) PerIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)
		if !brl.ipLimiter(ip).Allow() {
			slog.Warn("[Business Limiter] 单IP请求过于频繁", "ip", ip)
			errResp(w, http.StatusTooManyRequests, "TooManyRequests", "您的请求过于频繁，请稍后再试")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Chain 顺序: Global -> IP -> Handler
func (brl *BusinessRateLimiter) Chain(next http.Handler) http.Handler {
	return brl.Global(brl.PerIP(next))
}
