// Package middleware file: internal/transport/http/middleware/error_handler.go
package middleware

import (
	"RangeGate/internal/aegmiddleware"
	"RangeGate/internal/core/port"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorHandlingMiddleware 是一个Gin中间件，用于集中处理错误。
// 每个请求最多写出一次错误信封; 处理器已写出响应时不再重复。
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// 只处理最后一个错误，它通常是根本原因
		err := c.Errors.Last().Err
		requestID := aegmiddleware.RequestIDFrom(c.Request.Context())

		var gwErr *port.GatewayError
		if !errors.As(err, &gwErr) {
			slog.Error("[HTTP] 未分类的错误", "request_id", requestID, "path", c.Request.URL.Path, "error", err)
			c.JSON(http.StatusInternalServerError, errorBody("InternalError", "服务器内部错误"))
			return
		}

		status := gwErr.HTTPStatus()
		if !gwErr.IsClientError() {
			// 服务端错误的细节只写日志
			slog.Error("[HTTP] 网关服务端错误", "request_id", requestID, "kind", gwErr.Kind, "error", gwErr)
			c.JSON(status, errorBody(string(gwErr.Kind), "服务器内部错误"))
			return
		}

		slog.Info("[HTTP] 请求被拒绝", "request_id", requestID, "kind", gwErr.Kind, "message", gwErr.Message)
		c.JSON(status, errorBody(string(gwErr.Kind), gwErr.Message))
	}
}

func errorBody(kind, msg string) gin.H {
	return gin.H{"success": false, "error": kind, "message": msg}
}
