package model

import (
	"os"
	"path/filepath"
	"testing"
)

const testCDEJSON = `{
  "handle": "test",
  "version": "1.0",
  "annotations": [
    {
      "entity": {"key": "sample.sample_type"},
      "annotation": {"attrs": {"origin_id": "11524549", "origin_version": "1.00"}},
      "value_set": [
        {
          "value": "Tumor",
          "origin_id": "C18009",
          "origin_name": "NCIt",
          "synonyms": [
            {"value": "Neoplasm", "origin_id": "C3262", "origin_name": "NCIt"}
          ]
        }
      ]
    }
  ]
}`

func TestLoadModelCDEs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cdes.json")
	if err := os.WriteFile(path, []byte(testCDEJSON), 0o644); err != nil {
		t.Fatalf("failed to write CDE file: %v", err)
	}

	spec, err := LoadModelCDEs(path)
	if err != nil {
		t.Fatalf("LoadModelCDEs() error = %v", err)
	}
	if spec.Handle != "test" || len(spec.Annotations) != 1 {
		t.Fatalf("spec = %s with %d annotations, want test with 1", spec.Handle, len(spec.Annotations))
	}

	annotation := spec.Annotations[0]
	if got := annotation.Annotation.Attrs["origin_id"]; got != "11524549" {
		t.Errorf("annotation origin_id = %q", got)
	}
	if len(annotation.ValueSet) != 1 {
		t.Fatalf("len(ValueSet) = %d, want 1", len(annotation.ValueSet))
	}
	pv := annotation.ValueSet[0]
	if pv.Value != "Tumor" || len(pv.Synonyms) != 1 {
		t.Errorf("permissible value = %+v", pv)
	}
}

func TestPermissibleValueTermEntity(t *testing.T) {
	pv := &PermissibleValue{Value: "Tumor", OriginID: "C18009", OriginName: "NCIt"}
	term := pv.TermEntity()
	if term.Kind != KindTerm {
		t.Fatalf("Kind = %v, want term", term.Kind)
	}
	if term.StringAttr("value") != "Tumor" || term.StringAttr("origin_id") != "C18009" {
		t.Errorf("term attrs = %v", term.Attrs)
	}
	if _, ok := term.Attrs["origin_version"]; ok {
		t.Error("empty origin_version kept on term")
	}
}

func TestLoadModelCDEsErrors(t *testing.T) {
	if _, err := LoadModelCDEs(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("LoadModelCDEs(absent) error = nil, want error")
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadModelCDEs(path); err == nil {
		t.Error("LoadModelCDEs(bad) error = nil, want error")
	}
}
