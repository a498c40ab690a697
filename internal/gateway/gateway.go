// file: internal/gateway/gateway.go
package gateway

import (
	"RangeGate/internal/aegmiddleware"
	"RangeGate/internal/core/domain"
	"RangeGate/internal/core/port"
	"context"
	"fmt"
	"log/slog"
)

// Service 串联整个请求流水线。除构造时注入的只读依赖外不持有任何状态,
// 每个请求都是独立、同步的。
type Service struct {
	validator *RequestValidator
	schemas   port.SchemaIntrospector
	executor  port.QueryExecutor
	compiler  *Compiler
	post      *PostProcessor
}

// NewService 创建网关服务
func NewService(policy *domain.Policy, schemas port.SchemaIntrospector, executor port.QueryExecutor, dialect port.Dialect) (*Service, error) {
	if policy == nil || schemas == nil || executor == nil || dialect == nil {
		return nil, fmt.Errorf("gateway.Service 初始化失败: 依赖不能为 nil")
	}
	return &Service{
		validator: NewRequestValidator(policy),
		schemas:   schemas,
		executor:  executor,
		compiler:  NewCompiler(policy, dialect),
		post:      NewPostProcessor(policy),
	}, nil
}

// Handle 处理一次原始请求体。返回的错误一定是 *port.GatewayError。
func (s *Service) Handle(ctx context.Context, body []byte) (domain.Result, error) {
	op, err := s.Parse(body)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, op)
}

// Parse 只做格式与白名单校验, 不访问数据库
func (s *Service) Parse(body []byte) (domain.Operation, error) {
	return s.validator.Validate(body)
}

// Execute 对已校验的操作执行 探测 → 编译 → 执行 → 后处理
func (s *Service) Execute(ctx context.Context, op domain.Operation) (domain.Result, error) {
	table := op.TableName()
	logger := slog.With("request_id", aegmiddleware.RequestIDFrom(ctx))

	schema, err := s.schemas.Introspect(ctx, table)
	if err != nil {
		logger.Error("[Gateway] schema 探测失败", "table", table, "error", err)
		return nil, port.WrapError(port.KindSchemaUnavailable, err, "表 '%s' 的结构不可用", table)
	}

	stmt, err := s.compiler.Compile(op, schema)
	if err != nil {
		return nil, err
	}
	logger.Debug("[Gateway] 语句已编译", "operation", op.Kind(), "table", table, "sql", stmt.SQL, "args", len(stmt.Args))

	switch stmt.Kind {
	case domain.OpGet:
		rows, err := s.executor.QueryRows(ctx, stmt)
		if err != nil {
			return nil, s.executionFailed(logger, op, err)
		}
		s.post.Apply(schema, rows)
		return &domain.GetResult{Success: true, Data: rows, Count: len(rows)}, nil

	case domain.OpAdd:
		res, err := s.executor.Exec(ctx, stmt)
		if err != nil {
			return nil, s.executionFailed(logger, op, err)
		}
		return &domain.AddResult{Success: true, Message: "新增成功", InsertID: res.LastInsertID}, nil

	default:
		res, err := s.executor.Exec(ctx, stmt)
		if err != nil {
			return nil, s.executionFailed(logger, op, err)
		}
		msg := "更新成功"
		if stmt.Kind == domain.OpDelete {
			msg = "删除成功"
		}
		return &domain.MutationResult{Kind: stmt.Kind, Success: true, Message: msg, AffectedRows: res.RowsAffected}, nil
	}
}

func (s *Service) executionFailed(logger *slog.Logger, op domain.Operation, err error) error {
	logger.Error("[Gateway] 语句执行失败", "operation", op.Kind(), "table", op.TableName(), "error", err)
	return port.WrapError(port.KindQueryExecutionFailed, err, "%s 操作执行失败", op.Kind())
}
