package cypher

import (
	"errors"
	"fmt"
	"strings"

	"mdb-go/internal/model"
)

// Data-integrity faults. A statement that would MATCH nothing is worse than
// an error, so pattern construction fails fast instead.
var (
	ErrPropertyMissingOwner = errors.New("property missing owner handle")
	ErrTagMissingParent     = errors.New("tag missing parent")
)

// MatchClauseFor builds the MATCH clause locating an existing entity.
// Edges match through their endpoint nodes, properties through their owning
// node or edge, tags through their parent entity; everything else matches on
// its own pattern.
func MatchClauseFor(b *Builder, e *model.Entity, pat *NodePattern) (Clause, error) {
	switch e.Kind {
	case model.KindEdge:
		return matchEdge(b, e, pat), nil
	case model.KindProperty:
		pat.RemoveProp(model.OwnerHandleAttr)
		return matchProp(b, e, pat)
	case model.KindTag:
		return matchTag(b, e, pat)
	default:
		return Match(pat), nil
	}
}

func matchEdge(b *Builder, edge *model.Entity, pat *NodePattern) Clause {
	srcPat := b.Cypherize(edge.Src)
	dstPat := b.Cypherize(edge.Dst)
	path := &Path{Triples: []*Triple{
		{Src: pat, Rel: b.Rel("has_src"), Dst: srcPat},
		{Src: pat, Rel: b.Rel("has_dst"), Dst: dstPat},
	}}
	return Match(path)
}

func matchProp(b *Builder, prop *model.Entity, pat *NodePattern) (Clause, error) {
	owner := prop.OwnerHandle()
	if owner == "" {
		return Clause{}, fmt.Errorf("%w: %v", ErrPropertyMissingOwner, prop.Attrs)
	}
	ownerPat := b.Node("", Prop{Name: "handle", Value: EscapeQuotes(owner)})
	return Match(&Triple{Src: ownerPat, Rel: b.Rel("has_property"), Dst: pat}), nil
}

func matchTag(b *Builder, tag *model.Entity, pat *NodePattern) (Clause, error) {
	if tag.Parent == nil {
		return Clause{}, fmt.Errorf("%w: %v", ErrTagMissingParent, tag.Attrs)
	}
	parentPat := b.Cypherize(tag.Parent)
	parentClause, err := MatchClauseFor(b, tag.Parent, parentPat)
	if err != nil {
		return Clause{}, err
	}
	parentBody := strings.TrimPrefix(parentClause.String(), "MATCH ")
	trip := &Triple{Src: parentPat.PlainVar(), Rel: b.Rel("has_tag"), Dst: pat}
	return Match(parentBody, trip), nil
}

// CreateEntityStatement builds the mutation creating an entity, paired with
// its rollback. Vocabulary entities (term, value set, concept) merge
// idempotently with a no-op rollback: deleting shared vocabulary on rollback
// would orphan everything already linked to it. Model-owned entities are
// created outright and detach-deleted on rollback.
func CreateEntityStatement(e *model.Entity) (*Statement, *Statement) {
	b := NewBuilder()
	pat := b.Cypherize(e)
	switch e.Kind {
	case model.KindTerm, model.KindValueSet, model.KindConcept:
		commit, ok := pat.RemoveProp(model.CommitAttr)
		if !ok {
			return NewStatement(Merge(pat)), NewStatement("empty")
		}
		// The marker must never widen the merge key; it is applied only
		// when this run actually creates the node.
		set := fmt.Sprintf("%s.%s = '%v'", pat.Var, model.CommitAttr, commit.Value)
		return NewStatement(Merge(pat), OnCreateSet(set)), NewStatement("empty")
	default:
		stmt := NewStatement(Create(pat))
		rollback := NewStatement(Match(pat), DetachDelete(pat.Var))
		return stmt, rollback
	}
}

// CreateRelationshipStatement builds the mutation linking two entities that
// already exist, paired with its rollback. MERGE keeps relationship creation
// idempotent under re-run; commit markers and owner handles are stripped
// from the endpoint patterns because they belong to creation, not matching.
func CreateRelationshipStatement(src *model.Entity, rel string, dst *model.Entity) (*Statement, *Statement) {
	b := NewBuilder()
	srcPat := b.Cypherize(src)
	dstPat := b.Cypherize(dst)
	relPat := b.Rel(rel)
	for _, pat := range []*NodePattern{srcPat, dstPat} {
		pat.RemoveProp(model.CommitAttr)
	}
	stmt := NewStatement(
		Match(srcPat, dstPat),
		Merge(&Triple{Src: srcPat.PlainVar(), Rel: relPat, Dst: dstPat.PlainVar()}),
	)
	rollback := NewStatement(
		Match(&Triple{Src: srcPat, Rel: relPat, Dst: dstPat}),
		Delete(relPat.Var),
	)
	return stmt, rollback
}

// LinkTermSynonyms builds the statement connecting two terms through one
// shared concept tagged with the mapping source. The statement finds a
// concept already attached to either term (preferring termA's when both
// exist) and merges "represents" edges onto it; when neither term has one it
// creates a fresh concept, tags it, and connects both terms. Both branches
// are always present in the text; the FOREACH guards select which one runs.
// Safe to re-run any number of times, including when the two terms render to
// the same pattern (the <> guard then yields zero rows).
func LinkTermSynonyms(termA, termB *model.Entity, mappingSource, commit string) *Statement {
	b := NewBuilder()
	entA := b.Cypherize(termA)
	entB := b.Cypherize(termB)
	conceptA := b.Node("concept")
	conceptB := b.Node("concept")
	tripA := &Triple{Src: entA.PlainVar(), Rel: b.Rel("represents"), Dst: conceptA}
	tripB := &Triple{Src: entB.PlainVar(), Rel: b.Rel("represents"), Dst: conceptB}
	sourceTag := func() []Prop {
		return []Prop{
			{Name: "key", Value: "mapping_source"},
			{Name: "value", Value: EscapeQuotes(mappingSource)},
		}
	}
	pathA := &Path{Triples: []*Triple{
		tripA,
		{Src: conceptA, Rel: b.Rel("has_tag"), Dst: b.Node("tag", sourceTag()...)},
	}}
	pathB := &Path{Triples: []*Triple{
		tripB,
		{Src: conceptB, Rel: b.Rel("has_tag"), Dst: b.Node("tag", sourceTag()...)},
	}}

	varA := entA.PlainVar().Pattern()
	varB := entB.PlainVar().Pattern()
	varConceptA := conceptA.PlainVar().Pattern()
	varConceptB := conceptB.PlainVar().Pattern()

	var conceptProps []Prop
	if commit != "" {
		conceptProps = append(conceptProps, Prop{Name: model.CommitAttr, Value: EscapeQuotes(commit)})
	}
	newConcept := b.Node("concept", conceptProps...)

	entA.RemoveProp(model.CommitAttr)
	entB.RemoveProp(model.CommitAttr)

	existing := fmt.Sprintf("%s ELSE NULL END AS existing_concept",
		Case(
			When(varConceptA, "IS NOT NULL", "THEN", varConceptA),
			When(varConceptB, "IS NOT NULL", "THEN", varConceptB),
		))

	return NewStatement(
		Match(entA, entB),
		Where(varA, "<>", varB),
		With(varA, varB),
		OptionalMatch(pathA),
		With(varA, varB, varConceptA),
		"LIMIT 1",
		OptionalMatch(pathB),
		With(varA, varB, varConceptA, varConceptB),
		"LIMIT 1",
		With(varA, varB, existing),
		ForEach(
			fmt.Sprintf("(_ IN %s THEN [1] ELSE [] END |", Case(When("existing_concept", "IS NOT NULL"))),
			Merge(fmt.Sprintf("%s-[:represents]->(existing_concept)", varA)),
			Merge(fmt.Sprintf("%s-[:represents]->(existing_concept)", varB)),
			")",
		),
		ForEach(
			fmt.Sprintf("(_ IN %s THEN [1] ELSE [] END |", Case(When("existing_concept", "IS NULL"))),
			Create(newConcept),
			Create(&Triple{Src: newConcept.PlainVar(), Rel: b.Rel("has_tag"), Dst: b.Node("tag", sourceTag()...)}),
			Create(&Triple{Src: entA.PlainVar(), Rel: b.Rel("represents"), Dst: newConcept.PlainVar()}),
			Create(&Triple{Src: entB.PlainVar(), Rel: b.Rel("represents"), Dst: newConcept.PlainVar()}),
			")",
		),
	)
}

// DeprecateOldModelNodes clears the latest-version flag on every existing
// model node for the handle, so the incoming model node can claim it.
func DeprecateOldModelNodes(handle string) (*Statement, *Statement) {
	b := NewBuilder()
	pat := b.Node("model", Prop{Name: "handle", Value: EscapeQuotes(handle)})
	stmt := NewStatement(
		Match(pat),
		Where(fmt.Sprintf("%s.latest_version = true", pat.Var)),
		Set(fmt.Sprintf("%s.latest_version = false", pat.Var)),
	)
	return stmt, NewStatement()
}
