package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// ModelCDESpec holds every CDE annotation harvested for one model, as
// produced by the vocabulary-API fetch step.
type ModelCDESpec struct {
	Handle      string            `json:"handle"`
	Version     string            `json:"version"`
	Annotations []*AnnotationSpec `json:"annotations"`
}

// AnnotationSpec ties one annotated model entity to a CDE and the CDE's
// permissible values.
type AnnotationSpec struct {
	Entity     map[string]string   `json:"entity"`
	Annotation CDEAnnotation       `json:"annotation"`
	ValueSet   []*PermissibleValue `json:"value_set"`
}

// CDEAnnotation carries the caDSR term attributes of the annotating CDE.
type CDEAnnotation struct {
	Attrs map[string]string `json:"attrs"`
}

// PermissibleValue is one allowed value in a CDE's value domain, with any
// cross-vocabulary synonyms already resolved.
type PermissibleValue struct {
	Value            string     `json:"value"`
	OriginID         string     `json:"origin_id"`
	OriginDefinition string     `json:"origin_definition"`
	OriginVersion    string     `json:"origin_version"`
	OriginName       string     `json:"origin_name"`
	NCItConceptCodes []string   `json:"ncit_concept_codes"`
	Synonyms         []*Synonym `json:"synonyms"`
}

// Synonym is a term from another vocabulary equivalent to a permissible
// value.
type Synonym struct {
	Value         string `json:"value"`
	OriginID      string `json:"origin_id"`
	OriginName    string `json:"origin_name"`
	OriginVersion string `json:"origin_version"`
}

// TermEntity builds the metamodel term for a permissible value. Empty
// attributes are omitted from the pattern, matching how absent vocabulary
// fields behave.
func (pv *PermissibleValue) TermEntity() *Entity {
	return NewEntity(KindTerm, map[string]any{
		"value":             emptyAsNil(pv.Value),
		"origin_id":         emptyAsNil(pv.OriginID),
		"origin_definition": emptyAsNil(pv.OriginDefinition),
		"origin_version":    emptyAsNil(pv.OriginVersion),
		"origin_name":       emptyAsNil(pv.OriginName),
	})
}

// TermEntity builds the metamodel term for a synonym record.
func (s *Synonym) TermEntity() *Entity {
	return NewEntity(KindTerm, map[string]any{
		"value":          emptyAsNil(s.Value),
		"origin_id":      emptyAsNil(s.OriginID),
		"origin_name":    emptyAsNil(s.OriginName),
		"origin_version": emptyAsNil(s.OriginVersion),
	})
}

// LoadModelCDEs reads a model-CDE JSON document.
func LoadModelCDEs(path string) (*ModelCDESpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CDE spec: %w", err)
	}
	var spec ModelCDESpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal CDE spec %s: %w", path, err)
	}
	return &spec, nil
}
