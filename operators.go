package kquery

import "strings"

var operators = map[string]bool{
	"=": true, "<": true, "<=": true, ">": true, ">=": true, "<>": true, "!=": true, "<=>": true,
	"like": true, "like binary": true, "not like": true, "ilike": true, "not ilike": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true, "&~": true,
	"is": true, "is not": true,
	"rlike": true, "not rlike": true, "regexp": true, "not regexp": true,
	"~": true, "~*": true, "!~": true, "!~*": true,
	"similar to": true, "not similar to": true, "~~*": true, "!~~*": true,
	"in": true, "not in": true, "between": true, "not between": true,
}

// normalizeOperator lowercases the operator and collapses its inner
// whitespace, the second return value is false for unknown operators.
func normalizeOperator(operator string) (string, bool) {
	op := strings.ToLower(strings.Join(strings.Fields(operator), " "))
	return op, operators[op]
}

func isListOperator(op string) bool {
	return op == "in" || op == "not in" || op == "between" || op == "not between"
}
