// Package port file: internal/core/port/errors.go
package port

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind 区分调用方错误与服务端错误, 决定最终的 HTTP 状态码
type ErrorKind string

const (
	KindMalformedRequest     ErrorKind = "MalformedRequest"
	KindUnsupportedOperation ErrorKind = "UnsupportedOperation"
	KindUnknownTable         ErrorKind = "UnknownTable"
	KindInvalidField         ErrorKind = "InvalidField"
	KindInvalidFilterField   ErrorKind = "InvalidFilterField"
	KindInvalidFilterValue   ErrorKind = "InvalidFilterValue"
	KindInvalidOperator      ErrorKind = "InvalidOperator"
	KindNoConditions         ErrorKind = "NoConditions"
	KindNoValidFields        ErrorKind = "NoValidFields"
	KindForbidden            ErrorKind = "Forbidden"
	KindUnauthorized         ErrorKind = "Unauthorized"
	KindSchemaUnavailable    ErrorKind = "SchemaUnavailable"
	KindQueryExecutionFailed ErrorKind = "QueryExecutionFailed"
)

// Standard errors
var (
	ErrForbidden    = &GatewayError{Kind: KindForbidden, Message: "访问被拒绝"}
	ErrUnauthorized = &GatewayError{Kind: KindUnauthorized, Message: "需要认证"}
)

// GatewayError 是网关流水线中所有失败的统一类型
type GatewayError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Is 按 Kind 比较, 使 errors.Is(err, port.ErrForbidden) 对任意 Forbidden 错误成立
func (e *GatewayError) Is(target error) bool {
	t, ok := target.(*GatewayError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// IsClientError 调用方造成的错误 (格式、白名单、作用域) 返回 true
func (e *GatewayError) IsClientError() bool {
	return e.Kind != KindSchemaUnavailable && e.Kind != KindQueryExecutionFailed
}

// HTTPStatus 返回该错误对应的状态码
func (e *GatewayError) HTTPStatus() int {
	switch e.Kind {
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindSchemaUnavailable, KindQueryExecutionFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// NewError 构造一个不带底层原因的网关错误
func NewError(kind ErrorKind, format string, args ...any) *GatewayError {
	return &GatewayError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError 构造一个带底层原因的网关错误
func WrapError(kind ErrorKind, err error, format string, args ...any) *GatewayError {
	return &GatewayError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 提取错误的 Kind, 非 GatewayError 返回空串
func KindOf(err error) ErrorKind {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}
