// file: internal/transport/http/router/gateway_handler.go
package router

import (
	"RangeGate/internal/aegmiddleware"
	"RangeGate/internal/aegobserve"
	"RangeGate/internal/core/domain"
	"RangeGate/internal/core/port"
	"RangeGate/internal/gateway"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// maxBodyBytes 单个请求体的上限
const maxBodyBytes = 1 << 20

// gatewayHandler 处理 POST /gateway: 成功时输出结果信封, 失败时交给 ErrorHandlingMiddleware
func gatewayHandler(svc *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		body, err := c.GetRawData()
		if err != nil {
			_ = c.Error(port.WrapError(port.KindMalformedRequest, err, "无法读取请求体"))
			return
		}

		op, err := svc.Parse(body)
		if err != nil {
			// 未通过白名单校验的表名不能作为指标标签
			aegobserve.ObserveGatewayOperation("invalid", "", string(port.KindOf(err)))
			_ = c.Error(err)
			return
		}

		result, err := svc.Execute(c.Request.Context(), op)
		if err != nil {
			aegobserve.ObserveGatewayOperation(string(op.Kind()), op.TableName(), string(port.KindOf(err)))
			_ = c.Error(err)
			return
		}

		kind := result.OperationKind()
		aegobserve.ObserveGatewayOperation(string(kind), op.TableName(), aegobserve.OutcomeOK)
		// 管理页面的写操作留审计日志
		if claim := aegmiddleware.ClaimFrom(c.Request); claim != nil && kind != domain.OpGet {
			slog.Info("[Gateway] 管理员写操作",
				"request_id", aegmiddleware.RequestIDFrom(c.Request.Context()),
				"subject", claim.Subject, "operation", kind, "table", op.TableName())
		}
		c.JSON(http.StatusOK, result)
	}
}
