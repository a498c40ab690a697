// Package aegobserve file: internal/aegobserve/logging.go
package aegobserve

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel 把配置中的级别字符串转换为 slog.Level, 未知值按 INFO 处理
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger 创建输出到 w 的 JSON 结构化日志记录器
func NewLogger(w io.Writer, levelStr string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     ParseLevel(levelStr),
		AddSource: true,
	})
	return slog.New(handler).With("service", "rangegate")
}

// InitLogger 初始化全局的结构化日志记录器。
// 它应该在 main 函数的早期被调用。
func InitLogger(levelStr string) {
	slog.SetDefault(NewLogger(os.Stdout, levelStr))
}
