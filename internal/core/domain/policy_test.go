// file: internal/core/domain/policy_test.go
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy(PolicyOptions{
		Tables:       []string{"members", " lockers "},
		PhoneColumns: []string{"member_phone", " "},
	})
	require.NoError(t, err)

	assert.True(t, p.TableAllowed("members"))
	assert.True(t, p.TableAllowed("lockers"))
	assert.False(t, p.TableAllowed("Members"), "表名区分大小写")
	assert.False(t, p.TableAllowed("admin_users"))
	assert.Equal(t, []string{"lockers", "members"}, p.Tables())
	assert.Equal(t, []string{"member_phone"}, p.PhoneColumns())
	assert.False(t, p.AllowInForMutations())

	for _, k := range AllOperationKinds {
		assert.True(t, p.OperationAllowed(k), "未配置操作白名单时允许全部操作")
	}
}

func TestNewPolicy_RestrictedOperations(t *testing.T) {
	p, err := NewPolicy(PolicyOptions{Tables: []string{"members"}, Operations: []string{"get"}, AllowInForMutations: true})
	require.NoError(t, err)
	assert.True(t, p.OperationAllowed(OpGet))
	assert.False(t, p.OperationAllowed(OpDelete))
	assert.True(t, p.AllowInForMutations())
}

func TestNewPolicy_Errors(t *testing.T) {
	cases := map[string]PolicyOptions{
		"no tables":         {},
		"blank table":       {Tables: []string{"members", ""}},
		"unknown operation": {Tables: []string{"members"}, Operations: []string{"GET"}},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewPolicy(opts)
			assert.Error(t, err)
		})
	}
}

func TestTableSchema_HasColumn(t *testing.T) {
	s := TableSchema{Table: "members", Columns: []string{"member_id", "member_name"}}
	assert.True(t, s.HasColumn("member_id"))
	assert.False(t, s.HasColumn("member_phone"))
	assert.False(t, s.HasColumn(""))
}
