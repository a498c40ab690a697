// file: internal/gateway/postprocess_test.go
package gateway

import (
	"RangeGate/internal/core/domain"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"01012345678":    "010-1234-5678",
		"010-1234-5678":  "010-1234-5678",
		"010 1234 5678":  "010-1234-5678",
		"0101234567":     "0101234567",
		"02-123-4567":    "02-123-4567",
		"":               "",
		"+82 10 1234 56": "+82 10 1234 56",
		"010123456789":   "010123456789",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePhone(in), "input=%q", in)
	}
}

func TestPostProcessor_Apply(t *testing.T) {
	p := NewPostProcessor(newTestPolicy(t))
	rows := []map[string]any{
		{"member_id": int64(1), "member_phone": "01012345678"},
		{"member_id": int64(2), "member_phone": nil},
		{"member_id": int64(3), "member_phone": "0311234567"},
	}
	p.Apply(membersSchema, rows)
	assert.Equal(t, "010-1234-5678", rows[0]["member_phone"])
	assert.Nil(t, rows[1]["member_phone"])
	assert.Equal(t, "0311234567", rows[2]["member_phone"])

	t.Run("schema without phone column is untouched", func(t *testing.T) {
		other := []map[string]any{{"member_phone": "01012345678"}}
		p.Apply(domain.TableSchema{Table: "branches", Columns: []string{"branch_id"}}, other)
		assert.Equal(t, "01012345678", other[0]["member_phone"])
	})
}
