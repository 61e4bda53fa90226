package model

import (
	"strings"
	"testing"
)

func TestNewEntityDropsUnknownAttrs(t *testing.T) {
	e := NewEntity(KindTerm, map[string]any{
		"value":        "tumor",
		"multiplicity": "many_to_one",
		"bogus":        "x",
	})
	if got := e.StringAttr("value"); got != "tumor" {
		t.Errorf("value = %q, want %q", got, "tumor")
	}
	if _, ok := e.Attrs["multiplicity"]; ok {
		t.Error("multiplicity kept on a term entity")
	}
	if _, ok := e.Attrs["bogus"]; ok {
		t.Error("unknown attribute kept")
	}
}

func TestNewEntityDropsNilAttrs(t *testing.T) {
	e := NewEntity(KindNode, map[string]any{"handle": "sample", "desc": nil})
	if _, ok := e.Attrs["desc"]; ok {
		t.Error("nil attribute kept")
	}
}

func TestEntityEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *Entity
		expected bool
	}{
		{
			"Same kind and attrs",
			NewEntity(KindTerm, map[string]any{"value": "tumor", "origin_name": "NCIt"}),
			NewEntity(KindTerm, map[string]any{"value": "tumor", "origin_name": "NCIt"}),
			true,
		},
		{
			"Different kind",
			NewEntity(KindTerm, map[string]any{"handle": "x"}),
			NewEntity(KindNode, map[string]any{"handle": "x"}),
			false,
		},
		{
			"Different attr value",
			NewEntity(KindTerm, map[string]any{"value": "tumor"}),
			NewEntity(KindTerm, map[string]any{"value": "normal"}),
			false,
		},
		{
			"Attr subset",
			NewEntity(KindTerm, map[string]any{"value": "tumor"}),
			NewEntity(KindTerm, map[string]any{"value": "tumor", "origin_name": "NCIt"}),
			false,
		},
		{"Both nil", nil, nil, true},
		{"One nil", NewEntity(KindTerm, nil), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.expected {
				t.Errorf("Equal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEntityDup(t *testing.T) {
	vs := NewEntity(KindValueSet, nil)
	e := NewEntity(KindProperty, map[string]any{"handle": "sample_type"})
	e.ValueSet = vs
	e.Terms = append(e.Terms, NewEntity(KindTerm, map[string]any{"value": "tumor"}))

	dup := e.Dup()
	if !dup.Equal(e) {
		t.Fatal("Dup() not value-equal to original")
	}
	dup.SetAttr("handle", "other")
	if e.Handle() != "sample_type" {
		t.Error("mutating the duplicate changed the original attrs")
	}
	if dup.ValueSet != vs {
		t.Error("Dup() copied the value set; relational refs must be shared")
	}
	if len(dup.Terms) != 1 || dup.Terms[0] != e.Terms[0] {
		t.Error("Dup() did not share term entities")
	}
}

func TestAddTagReplacesByKey(t *testing.T) {
	e := NewEntity(KindNode, map[string]any{"handle": "sample"})
	e.AddTag(NewEntity(KindTag, map[string]any{"key": "category", "value": "core"}))
	e.AddTag(NewEntity(KindTag, map[string]any{"key": "category", "value": "extended"}))
	e.AddTag(NewEntity(KindTag, map[string]any{"key": "assignment", "value": "required"}))

	if len(e.Tags) != 2 {
		t.Fatalf("len(Tags) = %d, want 2", len(e.Tags))
	}
	if got := e.TagByKey("category").StringAttr("value"); got != "extended" {
		t.Errorf("category tag value = %q, want %q", got, "extended")
	}
	if e.TagByKey("missing") != nil {
		t.Error("TagByKey(missing) != nil")
	}
}

func TestAddTermReplacesByValueAndOrigin(t *testing.T) {
	e := NewEntity(KindValueSet, nil)
	e.AddTerm(NewEntity(KindTerm, map[string]any{"value": "tumor", "origin_name": "NCIt"}))
	e.AddTerm(NewEntity(KindTerm, map[string]any{"value": "tumor", "origin_name": "NCIm"}))
	e.AddTerm(NewEntity(KindTerm, map[string]any{"value": "tumor", "origin_name": "NCIt", "origin_id": "C3262"}))

	if len(e.Terms) != 2 {
		t.Fatalf("len(Terms) = %d, want 2", len(e.Terms))
	}
	if got := e.Terms[0].StringAttr("origin_id"); got != "C3262" {
		t.Errorf("replaced term origin_id = %q, want %q", got, "C3262")
	}
}

func TestMakeNanoid(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := MakeNanoid()
		if len(id) != 6 {
			t.Fatalf("len(MakeNanoid()) = %d, want 6", len(id))
		}
		for _, c := range id {
			if !strings.ContainsRune(nanoidAlphabet, c) {
				t.Fatalf("MakeNanoid() = %q contains %q outside alphabet", id, c)
			}
		}
		seen[id] = true
	}
	if len(seen) < 2 {
		t.Error("MakeNanoid() produced no distinct values across 100 calls")
	}
}
