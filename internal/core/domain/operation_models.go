// Package domain file: internal/core/domain/operation_models.go
package domain

// OperationKind 是网关支持的四种操作类型
type OperationKind string

const (
	OpGet    OperationKind = "get"
	OpAdd    OperationKind = "add"
	OpUpdate OperationKind = "update"
	OpDelete OperationKind = "delete"
)

// AllOperationKinds 按固定顺序列出全部操作类型
var AllOperationKinds = []OperationKind{OpGet, OpAdd, OpUpdate, OpDelete}

// Operation 是四种操作变体的封闭联合类型。
// 只有本包中的 *GetOperation / *AddOperation / *UpdateOperation / *DeleteOperation 实现它。
type Operation interface {
	Kind() OperationKind
	TableName() string
	isOperation()
}

// Condition 是一个 where 条件: 字段 / 操作符 / 值。
// 对于 IN 操作符, Value 是 []any。
type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// OrderSpec 定义一个排序项, Direction 为空时按升序处理
type OrderSpec struct {
	Field     string `json:"field"`
	Direction string `json:"direction,omitempty"`
}

// Paging 是已经过数值校验的分页参数, nil 表示未提供或不合法
type Paging struct {
	Limit  *int64
	Offset *int64
}

// GetOperation 查询操作
type GetOperation struct {
	Table   string
	Fields  []string
	Where   []Condition
	OrderBy []OrderSpec
	Paging  Paging
}

// AddOperation 插入操作
type AddOperation struct {
	Table string
	Data  map[string]any
}

// UpdateOperation 更新操作, Where 为空时编译阶段会拒绝
type UpdateOperation struct {
	Table string
	Data  map[string]any
	Where []Condition
}

// DeleteOperation 删除操作, Where 为空时编译阶段会拒绝
type DeleteOperation struct {
	Table string
	Where []Condition
}

func (o *GetOperation) Kind() OperationKind    { return OpGet }
func (o *AddOperation) Kind() OperationKind    { return OpAdd }
func (o *UpdateOperation) Kind() OperationKind { return OpUpdate }
func (o *DeleteOperation) Kind() OperationKind { return OpDelete }

func (o *GetOperation) TableName() string    { return o.Table }
func (o *AddOperation) TableName() string    { return o.Table }
func (o *UpdateOperation) TableName() string { return o.Table }
func (o *DeleteOperation) TableName() string { return o.Table }

func (*GetOperation) isOperation()    {}
func (*AddOperation) isOperation()    {}
func (*UpdateOperation) isOperation() {}
func (*DeleteOperation) isOperation() {}

// TableSchema 是单次请求内从数据库实时探测得到的表结构
type TableSchema struct {
	Table   string
	Columns []string
}

// HasColumn 判断列是否存在于探测到的结构中
func (s TableSchema) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Statement 是编译完成的参数化语句
type Statement struct {
	Kind OperationKind
	SQL  string
	Args []any
}

// ExecResult 是写操作的执行结果
type ExecResult struct {
	LastInsertID int64
	RowsAffected int64
}
