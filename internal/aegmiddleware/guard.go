package aegmiddleware

import (
	"RangeGate/internal/core/port"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
)

// GuardOptions 共享密钥守卫的配置
type GuardOptions struct {
	Header string
	// Secret 明文密钥; SecretHash 非空时优先使用 bcrypt 校验
	Secret      string
	SecretHash  string
	MaxFailures int
	Lockout     time.Duration
}

// ============================================================================
//  共享密钥守卫 (Access Guard)
// ============================================================================

// AccessGuard 校验移动端请求头中的共享密钥, 并对连续失败的IP临时锁定。
// 未配置密钥时所有请求都会被拒绝。
type AccessGuard struct {
	header      string
	secretSum   [sha256.Size]byte
	hasSecret   bool
	secretHash  []byte
	failures    *cache.Cache
	maxFailures int
	lockout     time.Duration
}

// NewAccessGuard 创建守卫
func NewAccessGuard(opts GuardOptions) (*AccessGuard, error) {
	if opts.Header == "" {
		return nil, errors.New("access guard: header 不能为空")
	}
	g := &AccessGuard{
		header:      opts.Header,
		failures:    cache.New(5*time.Minute, 10*time.Minute),
		maxFailures: opts.MaxFailures,
		lockout:     opts.Lockout,
	}
	switch {
	case opts.SecretHash != "":
		if _, err := bcrypt.Cost([]byte(opts.SecretHash)); err != nil {
			return nil, errors.New("access guard: secret_hash 不是有效的 bcrypt 哈希")
		}
		g.secretHash = []byte(opts.SecretHash)
	case opts.Secret != "":
		g.secretSum = sha256.Sum256([]byte(opts.Secret))
		g.hasSecret = true
	default:
		slog.Warn("[Access Guard] 未配置共享密钥, 所有受保护请求都将被拒绝")
	}
	return g, nil
}

// Verify 判断提供的值是否与配置的密钥一致
func (g *AccessGuard) Verify(provided string) bool {
	if provided == "" {
		return false
	}
	if g.secretHash != nil {
		return bcrypt.CompareHashAndPassword(g.secretHash, []byte(provided)) == nil
	}
	if !g.hasSecret {
		return false
	}
	sum := sha256.Sum256([]byte(provided))
	return subtle.ConstantTimeCompare(sum[:], g.secretSum[:]) == 1
}

// Middleware 在任何其他处理之前执行校验, 失败返回 403
func (g *AccessGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)
		lockKey := "lock:" + ip

		if _, locked := g.failures.Get(lockKey); locked {
			slog.Warn("[Access Guard] 已锁定的IP再次请求", "ip", ip)
			gatewayErrResp(w, port.ErrForbidden)
			return
		}

		if !g.Verify(r.Header.Get(g.header)) {
			g.recordFailure(ip, lockKey)
			gatewayErrResp(w, port.ErrForbidden)
			return
		}

		g.failures.Delete("failures:" + ip)
		next.ServeHTTP(w, r)
	})
}

func (g *AccessGuard) recordFailure(ip, lockKey string) {
	if g.maxFailures <= 0 {
		return
	}
	failureKey := "failures:" + ip
	if err := g.failures.Increment(failureKey, int64(1)); err != nil {
		g.failures.Set(failureKey, int64(1), cache.DefaultExpiration)
	}

	var current int64
	if x, found := g.failures.Get(failureKey); found {
		current = x.(int64)
	}
	slog.Info("[Access Guard] 共享密钥校验失败", "ip", ip, "failures", current)

	if current >= int64(g.maxFailures) {
		g.failures.Set(lockKey, true, g.lockout)
		g.failures.Delete(failureKey)
		slog.Warn("[Access Guard] IP 已被临时锁定", "ip", ip, "duration", g.lockout)
	}
}
