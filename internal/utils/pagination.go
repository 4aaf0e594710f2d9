// Package utils provides small helpers shared by the HTTP and service
// layers: query-parameter parsing, list limits and calendar dates.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses a query value such as ?limit= or ?k=. Surrounding
// whitespace is ignored; an empty or non-numeric value yields def.
//
// Example:
//
//	n := utils.AtoiDefault(" 42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)    // returns 10
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ClampLimit applies def when n <= 0 and caps the result at max (when max > 0).
func ClampLimit(n, def, max int) int {
	if n <= 0 {
		n = def
	}
	if max > 0 && n > max {
		n = max
	}
	return n
}
