package util

import "strconv"

const (
	DefaultLimit = 100
	MaxLimit     = 100
)

// Pagination parses skip/limit query params with the API defaults:
// skip 0, limit 100, limit capped at 100.
func Pagination(skipParam, limitParam string) (skip, limit int) {
	skip = parseIntDefault(skipParam, 0)
	if skip < 0 {
		skip = 0
	}
	limit = parseIntDefault(limitParam, DefaultLimit)
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return skip, limit
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
