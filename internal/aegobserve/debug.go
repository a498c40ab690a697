// Package aegobserve file: internal/aegobserve/debug.go
package aegobserve

import (
	"net/http"
	"net/http/pprof"
	"time"
)

// NewPprofServer 返回一个只暴露 /debug/pprof 端点的独立 server, addr 为空时返回 nil。
// 例如 addr 可以是 "localhost:6060" 或 ":6060"
func NewPprofServer(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
