// Package domain file: internal/core/domain/result_models.go
package domain

// Result 是四种操作结果的公共接口, 直接序列化为响应体
type Result interface {
	OperationKind() OperationKind
}

// GetResult 查询结果
type GetResult struct {
	Success bool             `json:"success"`
	Data    []map[string]any `json:"data"`
	Count   int              `json:"count"`
}

// AddResult 插入结果
type AddResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	InsertID int64  `json:"insertId"`
}

// MutationResult 是 update / delete 的结果
type MutationResult struct {
	Kind         OperationKind `json:"-"`
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	AffectedRows int64         `json:"affectedRows"`
}

func (*GetResult) OperationKind() OperationKind        { return OpGet }
func (*AddResult) OperationKind() OperationKind        { return OpAdd }
func (r *MutationResult) OperationKind() OperationKind { return r.Kind }
