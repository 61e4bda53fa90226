package cypher

import "strings"

// Statement is an ordered sequence of clauses and raw text fragments joined
// by single spaces. A forward statement and its rollback always travel as a
// pair; the rollback of an idempotent merge is the literal text "empty".
type Statement struct {
	fragments []any
	terminate bool
	params    map[string]any
}

func NewStatement(fragments ...any) *Statement {
	return &Statement{fragments: fragments}
}

// Terminated returns a copy of the statement that renders a trailing ';'.
func (s *Statement) Terminated() *Statement {
	return &Statement{fragments: s.fragments, terminate: true}
}

func (s *Statement) String() string {
	parts := make([]string, len(s.fragments))
	for i, f := range s.fragments {
		parts[i] = render(f)
	}
	out := strings.Join(parts, " ")
	if s.terminate {
		out += ";"
	}
	return out
}

// Params returns the scalar bindings referenced by the statement's patterns,
// keyed by "<pattern var>_<attribute>". Computed once and cached.
func (s *Statement) Params() map[string]any {
	if s.params != nil {
		return s.params
	}
	s.params = make(map[string]any)
	for _, f := range s.fragments {
		collectParams(f, s.params)
	}
	return s.params
}

func collectParams(arg any, out map[string]any) {
	switch v := arg.(type) {
	case *NodePattern:
		for _, p := range v.Props {
			out[v.Var+"_"+p.Name] = p.Value
		}
	case *Triple:
		collectParams(v.Src, out)
		collectParams(v.Dst, out)
	case *Path:
		for _, t := range v.Triples {
			collectParams(t, out)
		}
	case Clause:
		for _, a := range v.Args() {
			collectParams(a, out)
		}
	}
}
