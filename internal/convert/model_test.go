package convert

import (
	"strconv"
	"strings"
	"testing"

	"mdb-go/internal/model"
)

func simpleModel() *model.Model {
	m := &model.Model{Handle: "test"}
	m.AddNode(model.NewEntity(model.KindNode, map[string]any{"handle": "sample", "model": "test"}))
	return m
}

func modelWithProp() *model.Model {
	m := simpleModel()
	prop := model.NewEntity(model.KindProperty, map[string]any{
		"handle":       "sample_type",
		"model":        "test",
		"value_domain": "value_set",
	})
	vs := model.NewEntity(model.KindValueSet, nil)
	vs.AddTerm(model.NewEntity(model.KindTerm, map[string]any{"value": "tumor"}))
	prop.ValueSet = vs
	m.AddProp(m.Nodes[0], prop)
	return m
}

func TestConvertSimpleModel(t *testing.T) {
	c := NewModelConverter(simpleModel(), Options{AddRollback: true}, nil)
	cl := c.Convert("alice", "", false)

	if cl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cl.Len())
	}
	first := cl.Changesets[0]
	if first.ID != "1" || first.Author != "alice" {
		t.Errorf("first changeset id/author = %s/%s, want 1/alice", first.ID, first.Author)
	}
	want := "CREATE (n0:model {handle:'test',name:'test',latest_version:false})"
	if first.Cypher != want {
		t.Errorf("model changeset = %q, want %q", first.Cypher, want)
	}
	if !strings.HasPrefix(first.Rollback, "MATCH (n0:model") || !strings.HasSuffix(first.Rollback, "DETACH DELETE n0") {
		t.Errorf("model rollback = %q", first.Rollback)
	}
	wantNode := "CREATE (n0:node {handle:'sample',model:'test'})"
	if got := cl.Changesets[1].Cypher; got != wantNode {
		t.Errorf("node changeset = %q, want %q", got, wantNode)
	}
}

func TestConvertEntitiesBeforeRelationships(t *testing.T) {
	c := NewModelConverter(modelWithProp(), Options{AddRollback: true}, nil)
	cl := c.Convert("alice", "", false)

	// model, node, prop, value set, term; then has_property,
	// has_value_set, has_term.
	if cl.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", cl.Len())
	}
	for i, cs := range cl.Changesets {
		if cs.ID != strconv.Itoa(i+1) {
			t.Errorf("changeset %d id = %s, want %d", i, cs.ID, i+1)
		}
		isRel := strings.Contains(cs.Cypher, ")-[r0:")
		if i < 5 && isRel {
			t.Errorf("changeset %s is a relationship before all entities: %q", cs.ID, cs.Cypher)
		}
		if i >= 5 && !isRel {
			t.Errorf("changeset %s is not a relationship: %q", cs.ID, cs.Cypher)
		}
	}
	if got := cl.Changesets[5].Cypher; !strings.Contains(got, "has_property") {
		t.Errorf("changeset 6 = %q, want has_property link", got)
	}
	if got := cl.Changesets[7].Cypher; !strings.Contains(got, "has_term") {
		t.Errorf("changeset 8 = %q, want has_term link", got)
	}
}

func TestConvertSkipsDuplicateEntities(t *testing.T) {
	m := simpleModel()
	m.AddNode(model.NewEntity(model.KindNode, map[string]any{"handle": "sample", "model": "test"}))

	c := NewModelConverter(m, Options{}, nil)
	cl := c.Convert("alice", "", false)

	// model + one node; the value-equal second node is skipped.
	if cl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cl.Len())
	}
}

func TestConvertRollbackToggle(t *testing.T) {
	c := NewModelConverter(simpleModel(), Options{AddRollback: false}, nil)
	cl := c.Convert("alice", "", false)
	for _, cs := range cl.Changesets {
		if cs.Rollback != "" {
			t.Errorf("changeset %s has rollback %q with rollbacks disabled", cs.ID, cs.Rollback)
		}
	}
}

func TestConvertVersionOverride(t *testing.T) {
	c := NewModelConverter(simpleModel(), Options{}, nil)
	cl := c.Convert("alice", "2.0", false)

	if got := cl.Changesets[0].Cypher; !strings.Contains(got, "version:'2.0'") {
		t.Errorf("model changeset = %q, want version:'2.0'", got)
	}
	if got := cl.Changesets[1].Cypher; !strings.Contains(got, "version:'2.0'") {
		t.Errorf("node changeset = %q, want stamped version", got)
	}
}

func TestConvertLatestDeprecatesPriorVersions(t *testing.T) {
	c := NewModelConverter(simpleModel(), Options{}, nil)
	cl := c.Convert("alice", "2.0", true)

	want := "MATCH (n0:model {handle:'test'}) WHERE n0.latest_version = true SET n0.latest_version = false"
	if got := cl.Changesets[0].Cypher; got != want {
		t.Errorf("first changeset = %q, want %q", got, want)
	}
	if got := cl.Changesets[1].Cypher; !strings.Contains(got, "latest_version:true") {
		t.Errorf("model changeset = %q, want latest_version:true", got)
	}
}

func TestConvertEdges(t *testing.T) {
	m := simpleModel()
	m.AddNode(model.NewEntity(model.KindNode, map[string]any{"handle": "subject", "model": "test"}))
	edge := model.NewEntity(model.KindEdge, map[string]any{
		"handle":       "of_subject",
		"model":        "test",
		"multiplicity": "many_to_one",
	})
	edge.Src = m.Nodes[0]
	edge.Dst = m.Nodes[1]
	m.AddEdge(edge)

	c := NewModelConverter(m, Options{}, nil)
	cl := c.Convert("alice", "", false)

	// model + 2 nodes + edge entity, then has_src and has_dst links.
	if cl.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", cl.Len())
	}
	edgeCS := cl.Changesets[3].Cypher
	if !strings.HasPrefix(edgeCS, "CREATE (n0:relationship {handle:'of_subject'") {
		t.Errorf("edge changeset = %q", edgeCS)
	}
	if !strings.Contains(edgeCS, "nanoid:'") {
		t.Errorf("edge changeset missing generated nanoid: %q", edgeCS)
	}
	if got := cl.Changesets[4].Cypher; !strings.Contains(got, "has_src") {
		t.Errorf("changeset 5 = %q, want has_src link", got)
	}
	if got := cl.Changesets[5].Cypher; !strings.Contains(got, "has_dst") {
		t.Errorf("changeset 6 = %q, want has_dst link", got)
	}
}

func TestConvertTermsOnly(t *testing.T) {
	m := modelWithProp()
	m.Terms = append(m.Terms, model.NewEntity(model.KindTerm, map[string]any{"value": "study"}))

	c := NewModelConverter(m, Options{TermsOnly: true}, nil)
	cl := c.Convert("alice", "", false)

	// model node, the property's term, the top-level term; nothing
	// structural.
	if cl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", cl.Len())
	}
	for _, cs := range cl.Changesets[1:] {
		if !strings.HasPrefix(cs.Cypher, "MERGE (n0:term") {
			t.Errorf("changeset %s = %q, want term merge", cs.ID, cs.Cypher)
		}
	}
}

func TestConvertSharedPropSplit(t *testing.T) {
	m := simpleModel()
	m.AddNode(model.NewEntity(model.KindNode, map[string]any{"handle": "file", "model": "test"}))
	shared := model.NewEntity(model.KindProperty, map[string]any{
		"handle": "id",
		"model":  "test",
	})
	m.AddProp(m.Nodes[0], shared)
	m.AddProp(m.Nodes[1], shared)

	c := NewModelConverter(m, Options{}, nil)
	cl := c.Convert("alice", "", false)

	// model + 2 nodes + 2 property copies + 2 has_property links.
	if cl.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", cl.Len())
	}

	// The input model is untouched by conversion.
	if m.Props[0].Prop != m.Props[1].Prop {
		t.Error("conversion split the caller's model")
	}
	if m.Props[0].Prop.Nanoid() != "" {
		t.Error("conversion stamped a nanoid on the caller's model")
	}
}

func TestDefaultCommitFormat(t *testing.T) {
	commit := DefaultCommit()
	if !strings.HasPrefix(commit, "CDEPV-") {
		t.Errorf("DefaultCommit() = %q, want CDEPV- prefix", commit)
	}
	if len(commit) != len("CDEPV-20060102") {
		t.Errorf("DefaultCommit() = %q, want CDEPV-YYYYMMDD", commit)
	}
}
