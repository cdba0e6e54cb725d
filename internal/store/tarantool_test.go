package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeOps(t *testing.T) {
	tests := []struct {
		name string
		op   Op
		want []interface{}
	}{
		{
			name: "set",
			op:   Op{Kind: OpSet, Collection: "users", ID: "u1", Doc: doc{Name: "a", Items: []string{}}},
			want: []interface{}{"set", "users", "u1", `{"name":"a","items":[]}`, []string{}},
		},
		{
			name: "create",
			op:   Op{Kind: OpCreate, Collection: "usernames", ID: "alice", Doc: map[string]string{"uid": "u1"}},
			want: []interface{}{"create", "usernames", "alice", `{"uid":"u1"}`, []string{}},
		},
		{
			name: "delete",
			op:   Op{Kind: OpDelete, Collection: "usernames", ID: "alice"},
			want: []interface{}{"delete", "usernames", "alice", "", []string{}},
		},
		{
			name: "update",
			op:   Op{Kind: OpUpdate, Collection: "users", ID: "u1", Fields: map[string]interface{}{"bio": "hi", "name": "bob"}},
			want: []interface{}{"update", "users", "u1", `{"bio":"hi","name":"bob"}`, []string{}},
		},
		{
			name: "union",
			op:   Op{Kind: OpUnion, Collection: "users", ID: "u1", Field: "followers", Values: []string{"u2"}},
			want: []interface{}{"union", "users", "u1", "followers", []string{"u2"}},
		},
		{
			name: "remove",
			op:   Op{Kind: OpRemove, Collection: "users", ID: "u1", Field: "polls", Values: []string{"p1"}},
			want: []interface{}{"remove", "users", "u1", "polls", []string{"p1"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := encodeOps([]Op{tt.op})
			require.NoError(t, err)
			require.Len(t, args, 1)
			assert.Equal(t, tt.want, args[0])
		})
	}

	_, err := encodeOps([]Op{{Kind: "merge"}})
	assert.Error(t, err)
}

func TestCommitResult(t *testing.T) {
	tests := []struct {
		name    string
		data    []interface{}
		wantErr error
		fails   bool
	}{
		{name: "ok", data: []interface{}{"ok"}},
		{name: "exists", data: []interface{}{"exists", "usernames/alice"}, wantErr: ErrExists, fails: true},
		{name: "missing", data: []interface{}{"missing", "users/u9"}, wantErr: ErrNotFound, fails: true},
		{name: "empty", data: nil, fails: true},
		{name: "unexpected", data: []interface{}{uint64(1)}, fails: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := commitResult(tt.data)
			if !tt.fails {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.data[1])
			}
		})
	}
}
