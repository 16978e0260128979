package repository

import "strings"

// placeholders returns "?,?,?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// whereClause joins conditions with AND, or returns "1=1" when there
// are none.
func whereClause(where []string) string {
	if len(where) == 0 {
		return "1=1"
	}
	return strings.Join(where, " AND ")
}
