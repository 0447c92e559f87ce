package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemReportStringRendersHierarchy(t *testing.T) {
	r := MemReport{
		Name:       "trie",
		TotalBytes: 300,
		Children: []MemReport{
			{Name: "dense", TotalBytes: 100},
			{Name: "sparse", TotalBytes: 200},
		},
	}
	s := r.String()
	require.Contains(t, s, "trie")
	require.Contains(t, s, "dense")
	require.Contains(t, s, "sparse")
}

func TestMemReportJSONRoundTrips(t *testing.T) {
	r := MemReport{Name: "suffixes", TotalBytes: 42}
	j := r.JSON()
	require.Contains(t, j, `"name":"suffixes"`)
	require.Contains(t, j, `"total_bytes":42`)
}
