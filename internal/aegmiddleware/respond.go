// Package aegmiddleware file: internal/aegmiddleware/respond.go
package aegmiddleware

import (
	"RangeGate/internal/core/port"
	"encoding/json"
	"net"
	"net/http"
)

// errResp 输出与网关其余部分一致的错误信封
func errResp(w http.ResponseWriter, code int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   kind,
		"message": msg,
	})
}

// gatewayErrResp 按网关错误的 Kind 输出状态码与信封
func gatewayErrResp(w http.ResponseWriter, e *port.GatewayError) {
	errResp(w, e.HTTPStatus(), string(e.Kind), e.Message)
}

// getClientIP 返回守卫与限流使用的客户端IP。
// 只信任路由层按可信代理列表解析后放入上下文的地址; 没有时退回 RemoteAddr,
// 调用方自带的 X-Forwarded-For / X-Real-IP 不会被采信。
func getClientIP(r *http.Request) string {
	if ip := ClientIPFrom(r.Context()); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
