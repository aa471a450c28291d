package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaginationDefaults(t *testing.T) {
	skip, limit := Pagination("", "")
	require.Equal(t, 0, skip)
	require.Equal(t, DefaultLimit, limit)
}

func TestPaginationClamps(t *testing.T) {
	skip, limit := Pagination("-5", "0")
	require.Equal(t, 0, skip)
	require.Equal(t, DefaultLimit, limit)

	skip, limit = Pagination("10", "500")
	require.Equal(t, 10, skip)
	require.Equal(t, DefaultLimit, limit)

	skip, limit = Pagination("garbage", "also-garbage")
	require.Equal(t, 0, skip)
	require.Equal(t, DefaultLimit, limit)
}

func TestPaginationPassthrough(t *testing.T) {
	skip, limit := Pagination("20", "50")
	require.Equal(t, 20, skip)
	require.Equal(t, 50, limit)
}
