package cypher

import (
	"fmt"
	"strings"
)

// Clause is one keyword fragment of a statement: the keyword followed by its
// rendered arguments. Arguments may be patterns, strings, or nested clauses.
type Clause struct {
	keyword string
	sep     string
	args    []any
}

func (c Clause) String() string {
	parts := make([]string, len(c.args))
	for i, a := range c.args {
		parts[i] = render(a)
	}
	body := strings.Join(parts, c.sep)
	if body == "" {
		return c.keyword
	}
	return c.keyword + " " + body
}

// Args exposes the clause arguments for parameter extraction.
func (c Clause) Args() []any { return c.args }

func render(arg any) string {
	switch v := arg.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func Match(args ...any) Clause { return Clause{keyword: "MATCH", sep: ", ", args: args} }
func OptionalMatch(args ...any) Clause { return Clause{keyword: "OPTIONAL MATCH", sep: ", ", args: args} }
func Merge(args ...any) Clause { return Clause{keyword: "MERGE", sep: " ", args: args} }
func Create(args ...any) Clause { return Clause{keyword: "CREATE", sep: " ", args: args} }
func Where(args ...any) Clause { return Clause{keyword: "WHERE", sep: " ", args: args} }
func With(args ...any) Clause { return Clause{keyword: "WITH", sep: ", ", args: args} }
func Case(args ...any) Clause { return Clause{keyword: "CASE", sep: " ", args: args} }
func When(args ...any) Clause { return Clause{keyword: "WHEN", sep: " ", args: args} }
func ForEach(args ...any) Clause { return Clause{keyword: "FOREACH", sep: " ", args: args} }
func Delete(args ...any) Clause { return Clause{keyword: "DELETE", sep: ", ", args: args} }
func DetachDelete(args ...any) Clause { return Clause{keyword: "DETACH DELETE", sep: ", ", args: args} }
func Set(args ...any) Clause { return Clause{keyword: "SET", sep: ", ", args: args} }

// OnCreateSet renders the create-only assignment appended to a MERGE, used
// to stamp commit markers without widening the merge key.
func OnCreateSet(expr string) Clause {
	return Clause{keyword: "ON CREATE SET", sep: " ", args: []any{expr}}
}
