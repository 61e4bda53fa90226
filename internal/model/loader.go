package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Document mirrors the YAML layout of a model description file. Top-level
// property definitions are attached to every node or edge that lists them,
// so a definition reused by several owners arrives in the Model as a shared
// property, to be split by SeparateSharedProps.
type Document struct {
	Handle  string    `yaml:"handle"`
	Version string    `yaml:"version"`
	URI     string    `yaml:"uri"`
	Nodes   []NodeDoc `yaml:"nodes"`
	Edges   []EdgeDoc `yaml:"edges"`
	Props   []PropDoc `yaml:"props"`
	Terms   []TermDoc `yaml:"terms"`
}

type NodeDoc struct {
	Handle string   `yaml:"handle"`
	Desc   string   `yaml:"desc"`
	Tags   []TagDoc `yaml:"tags"`
	Props  []string `yaml:"props"`
}

type EdgeDoc struct {
	Handle       string   `yaml:"handle"`
	Src          string   `yaml:"src"`
	Dst          string   `yaml:"dst"`
	Multiplicity string   `yaml:"multiplicity"`
	IsRequired   *bool    `yaml:"is_required"`
	Desc         string   `yaml:"desc"`
	Tags         []TagDoc `yaml:"tags"`
	Props        []string `yaml:"props"`
}

type PropDoc struct {
	Handle      string    `yaml:"handle"`
	ValueDomain string    `yaml:"value_domain"`
	Units       string    `yaml:"units"`
	Desc        string    `yaml:"desc"`
	IsRequired  *bool     `yaml:"is_required"`
	Tags        []TagDoc  `yaml:"tags"`
	Terms       []TermDoc `yaml:"terms"`
}

type TermDoc struct {
	Handle           string `yaml:"handle"`
	Value            string `yaml:"value"`
	OriginName       string `yaml:"origin_name"`
	OriginID         string `yaml:"origin_id"`
	OriginVersion    string `yaml:"origin_version"`
	OriginDefinition string `yaml:"origin_definition"`
}

type TagDoc struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// LoadModel reads a model description file and builds the in-memory Model.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model file %s: %w", path, err)
	}
	return BuildModel(&doc)
}

// BuildModel converts a parsed model document into a Model.
func BuildModel(doc *Document) (*Model, error) {
	if doc.Handle == "" {
		return nil, fmt.Errorf("model document missing handle")
	}
	m := &Model{Handle: doc.Handle, Version: doc.Version, URI: doc.URI}

	propDefs := make(map[string]*Entity, len(doc.Props))
	for _, pd := range doc.Props {
		propDefs[pd.Handle] = buildProp(doc.Handle, pd)
	}

	for _, nd := range doc.Nodes {
		node := NewEntity(KindNode, map[string]any{
			"handle": nd.Handle,
			"model":  doc.Handle,
			"desc":   emptyAsNil(nd.Desc),
		})
		attachTags(node, nd.Tags)
		m.AddNode(node)
		if err := attachProps(m, node, nd.Props, propDefs); err != nil {
			return nil, err
		}
	}

	for _, ed := range doc.Edges {
		src := m.NodeByHandle(ed.Src)
		dst := m.NodeByHandle(ed.Dst)
		if src == nil || dst == nil {
			return nil, fmt.Errorf("edge %s references unknown node (%s -> %s)", ed.Handle, ed.Src, ed.Dst)
		}
		attrs := map[string]any{
			"handle":       ed.Handle,
			"model":        doc.Handle,
			"multiplicity": emptyAsNil(ed.Multiplicity),
			"desc":         emptyAsNil(ed.Desc),
		}
		if ed.IsRequired != nil {
			attrs["is_required"] = *ed.IsRequired
		}
		edge := NewEntity(KindEdge, attrs)
		edge.Src, edge.Dst = src, dst
		attachTags(edge, ed.Tags)
		m.AddEdge(edge)
		if err := attachProps(m, edge, ed.Props, propDefs); err != nil {
			return nil, err
		}
	}

	for _, td := range doc.Terms {
		m.Terms = append(m.Terms, buildTerm(td))
	}
	return m, nil
}

func buildProp(modelHandle string, pd PropDoc) *Entity {
	attrs := map[string]any{
		"handle":       pd.Handle,
		"model":        modelHandle,
		"value_domain": emptyAsNil(pd.ValueDomain),
		"units":        emptyAsNil(pd.Units),
		"desc":         emptyAsNil(pd.Desc),
	}
	if pd.IsRequired != nil {
		attrs["is_required"] = *pd.IsRequired
	}
	prop := NewEntity(KindProperty, attrs)
	attachTags(prop, pd.Tags)
	if len(pd.Terms) > 0 {
		vs := NewEntity(KindValueSet, nil)
		for _, td := range pd.Terms {
			vs.AddTerm(buildTerm(td))
		}
		prop.ValueSet = vs
		if prop.StringAttr("value_domain") == "" {
			prop.SetAttr("value_domain", "value_set")
		}
	}
	return prop
}

func buildTerm(td TermDoc) *Entity {
	return NewEntity(KindTerm, map[string]any{
		"handle":            emptyAsNil(td.Handle),
		"value":             td.Value,
		"origin_name":       emptyAsNil(td.OriginName),
		"origin_id":         emptyAsNil(td.OriginID),
		"origin_version":    emptyAsNil(td.OriginVersion),
		"origin_definition": emptyAsNil(td.OriginDefinition),
	})
}

func attachTags(e *Entity, tags []TagDoc) {
	for _, td := range tags {
		e.AddTag(NewEntity(KindTag, map[string]any{"key": td.Key, "value": td.Value}))
	}
}

// attachProps binds the named property definitions to owner. Definitions are
// attached by reference: a handle listed by several owners yields a shared
// entity, split later by the separation pass.
func attachProps(m *Model, owner *Entity, handles []string, defs map[string]*Entity) error {
	for _, h := range handles {
		def, ok := defs[h]
		if !ok {
			return fmt.Errorf("%s %s references undefined property %q", owner.Label(), owner.Handle(), h)
		}
		m.AddProp(owner, def)
	}
	return nil
}

func emptyAsNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
