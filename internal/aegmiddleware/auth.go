package aegmiddleware

import (
	"RangeGate/internal/core/port"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin 管理端网关要求的角色
const RoleAdmin = "admin"

// ErrInvalidToken 表示 JWT 无效、过期或解析失败。
var ErrInvalidToken = errors.New("invalid or expired token")

// Claim 定义 JWT 的载荷结构
type Claim struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuthenticator 校验管理页面签发的 HS256 令牌
type AdminAuthenticator struct {
	key    []byte
	issuer string
}

// NewAdminAuthenticator 创建管理端鉴权器
func NewAdminAuthenticator(key, issuer string) (*AdminAuthenticator, error) {
	if key == "" {
		return nil, errors.New("admin authenticator: jwt_key 不能为空")
	}
	return &AdminAuthenticator{key: []byte(key), issuer: issuer}, nil
}

// GenToken 生成一个新的 JWT
func (a *AdminAuthenticator) GenToken(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claim{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("签名 JWT 失败: %w", err)
	}
	return signed, nil
}

// ParseToken 解析并验证 JWT 字符串
func (a *AdminAuthenticator) ParseToken(tokenString string) (*Claim, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &Claim{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, jwt.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w (detail: %v)", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RequireAdmin 只放行携带有效管理员令牌的请求: 缺失或无效返回 401, 角色不符返回 403
func (a *AdminAuthenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			gatewayErrResp(w, port.ErrUnauthorized)
			return
		}
		claims, err := a.ParseToken(tokenString)
		if err != nil {
			slog.Warn("[Admin Auth] 令牌无效", "path", r.URL.Path, "ip", getClientIP(r), "error", err)
			gatewayErrResp(w, port.ErrUnauthorized)
			return
		}
		if claims.Role != RoleAdmin {
			slog.Warn("[Admin Auth] 非管理员访问被拒绝", "subject", claims.Subject, "role", claims.Role)
			gatewayErrResp(w, port.NewError(port.KindForbidden, "需要管理员权限"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimKey, claims)))
	})
}

// ClaimFrom 取出已通过校验的令牌载荷
func ClaimFrom(r *http.Request) *Claim {
	claims, _ := r.Context().Value(claimKey).(*Claim)
	return claims
}
