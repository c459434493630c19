package kquery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/astadb/kquery/sqldialect"
)

var tokenRegex = regexp.MustCompile(`:n[0-9]+n`)

// RewriteTokens replaces each `:n<N>n` token of the query by the
// positional placeholder of the dialect and returns the parameters
// in the order the tokens appear on the query.
//
// A token found on the query but missing from the bindings is an error,
// bindings never referenced by the query are ignored. Text inside single
// quoted string literals is never rewritten.
func RewriteTokens(grammar sqldialect.Grammar, query string, bindings []Binding) (string, []interface{}, error) {
	values := make(map[string]interface{}, len(bindings))
	for _, b := range bindings {
		values[b.Token] = b.Value
	}

	var missing []string
	params := []interface{}{}
	rewritten := mapUnquoted(query, func(sql string) string {
		return tokenRegex.ReplaceAllStringFunc(sql, func(token string) string {
			value, found := values[token]
			if !found {
				missing = append(missing, token)
				return token
			}

			params = append(params, value)
			return grammar.Placeholder(len(params) - 1)
		})
	})

	if len(missing) > 0 {
		return "", nil, fmt.Errorf(
			"kquery: no value was bound for the tokens %s of query: %s",
			strings.Join(missing, ", "), query,
		)
	}

	return rewritten, params, nil
}

// mapUnquoted applies fn to the parts of sql outside single quoted
// string literals and keeps the literals untouched.
func mapUnquoted(sql string, fn func(string) string) string {
	var out strings.Builder
	start := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] != '\'' {
			continue
		}

		end := literalEnd(sql, i)
		out.WriteString(fn(sql[start:i]))
		out.WriteString(sql[i:end])
		start = end
		i = end - 1
	}
	out.WriteString(fn(sql[start:]))
	return out.String()
}

// literalEnd returns the offset right after the string literal opened
// at start. A doubled quote is an escaped quote and an unterminated
// literal runs until the end of sql.
func literalEnd(sql string, start int) int {
	for i := start + 1; i < len(sql); i++ {
		if sql[i] != '\'' {
			continue
		}
		if i+1 < len(sql) && sql[i+1] == '\'' {
			i++
			continue
		}
		return i + 1
	}
	return len(sql)
}
