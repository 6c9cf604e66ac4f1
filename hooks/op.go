// Package hooks provides observability hooks for the datasource layer.
package hooks

import "strings"

// OperationType extracts the operation type from a statement.
func OperationType(query string) string {
	query = strings.TrimSpace(strings.ToUpper(query))
	switch {
	case strings.HasPrefix(query, "SELECT"):
		return "select"
	case strings.HasPrefix(query, "INSERT"):
		return "insert"
	case strings.HasPrefix(query, "UPDATE"):
		return "update"
	case strings.HasPrefix(query, "DELETE"):
		return "delete"
	case strings.HasPrefix(query, "REPLACE"):
		return "replace"
	case strings.HasPrefix(query, "SHOW"):
		return "show"
	case strings.HasPrefix(query, "DESCRIBE"), strings.HasPrefix(query, "EXPLAIN"):
		return "describe"
	case strings.HasPrefix(query, "CREATE"):
		return "create"
	case strings.HasPrefix(query, "DROP"):
		return "drop"
	case strings.HasPrefix(query, "ALTER"):
		return "alter"
	case strings.HasPrefix(query, "BEGIN"), strings.HasPrefix(query, "START"):
		return "begin"
	case strings.HasPrefix(query, "COMMIT"):
		return "commit"
	case strings.HasPrefix(query, "ROLLBACK"):
		return "rollback"
	case strings.HasPrefix(query, "WITH"):
		return "select"
	default:
		return "other"
	}
}

// ReturnsRows reports whether a statement produces a result set and
// should be issued as a query rather than an exec.
func ReturnsRows(query string) bool {
	switch OperationType(query) {
	case "select", "show", "describe":
		return true
	}
	return false
}
