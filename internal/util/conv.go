package util

import (
	"strconv"
	"strings"
)

// MustParseUint converts s to uint and returns 0 when it does not parse.
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParseUintList accepts repeated values and comma separated lists
// ("1,2" or ["1", "2"]) and drops entries that are not positive integers.
func ParseUintList(values []string) []uint {
	var out []uint
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if id := MustParseUint(strings.TrimSpace(part)); id > 0 {
				out = append(out, id)
			}
		}
	}
	return out
}

// ParseIntList is ParseUintList for signed values such as years.
func ParseIntList(values []string) []int {
	var out []int
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				out = append(out, n)
			}
		}
	}
	return out
}

// Pagination normalises page/limit query values.
func Pagination(pageStr, limitStr string) (page, limit int) {
	page, _ = strconv.Atoi(pageStr)
	limit, _ = strconv.Atoi(limitStr)
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
