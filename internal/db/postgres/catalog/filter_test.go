package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableFilter(t *testing.T) {
	tables := []*Table{
		{Schema: "public", Name: "audit_log", Size: "12 MB", SizeBytes: 12 * mebibyte},
		{Schema: "public", Name: "orders", Size: "8192 bytes", SizeBytes: 8192},
		{Schema: "public", Name: "users", Size: "2 GB", SizeBytes: 2 * gibibyte},
	}

	tests := []struct {
		name       string
		expression string
		expected   []string
	}{
		{name: "by size", expression: "size_bytes > 10 * MB", expected: []string{"audit_log", "users"}},
		{name: "by name", expression: `name startsWith "audit_"`, expected: []string{"audit_log"}},
		{name: "combined", expression: `size_bytes < GB && schema == "public"`, expected: []string{"audit_log", "orders"}},
		{name: "nothing", expression: `name == "missing"`, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewTableFilter(tt.expression)
			require.NoError(t, err)
			res, err := f.Apply(tables)
			require.NoError(t, err)
			names := make([]string, 0, len(res))
			for _, r := range res {
				names = append(names, r.Name)
			}
			require.Equal(t, tt.expected, names)
		})
	}
}

func TestTableFilter_CompileError(t *testing.T) {
	_, err := NewTableFilter("size_bytes +")
	require.Error(t, err)

	_, err = NewTableFilter(`name`)
	require.Error(t, err)
}
