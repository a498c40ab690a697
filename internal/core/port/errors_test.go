// file: internal/core/port/errors_test.go
package port

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatewayError_Classification(t *testing.T) {
	client := []ErrorKind{
		KindMalformedRequest, KindUnsupportedOperation, KindUnknownTable, KindInvalidField,
		KindInvalidFilterField, KindInvalidFilterValue, KindInvalidOperator, KindNoConditions, KindNoValidFields,
	}
	for _, k := range client {
		e := NewError(k, "x")
		assert.True(t, e.IsClientError(), k)
		assert.Equal(t, http.StatusBadRequest, e.HTTPStatus(), k)
	}

	assert.Equal(t, http.StatusForbidden, ErrForbidden.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, ErrUnauthorized.HTTPStatus())

	for _, k := range []ErrorKind{KindSchemaUnavailable, KindQueryExecutionFailed} {
		e := NewError(k, "x")
		assert.False(t, e.IsClientError(), k)
		assert.Equal(t, http.StatusInternalServerError, e.HTTPStatus(), k)
	}
}

func TestGatewayError_Wrapping(t *testing.T) {
	cause := errors.New("database is locked")
	err := fmt.Errorf("handler: %w", WrapError(KindQueryExecutionFailed, cause, "get 操作执行失败"))

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, &GatewayError{Kind: KindQueryExecutionFailed})
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.Equal(t, KindQueryExecutionFailed, KindOf(err))
	assert.Contains(t, err.Error(), "database is locked")

	assert.ErrorIs(t, NewError(KindForbidden, "共享密钥不匹配"), ErrForbidden)
	assert.Equal(t, ErrorKind(""), KindOf(cause))
}
