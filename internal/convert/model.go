// Package convert walks metamodel inputs and accumulates ordered
// (statement, rollback) pairs into changelogs.
package convert

import (
	"time"

	"go.uber.org/zap"

	"mdb-go/internal/changelog"
	"mdb-go/internal/cypher"
	"mdb-go/internal/model"
)

// DefaultAuthor is used when the caller supplies no changeset author.
const DefaultAuthor = "DEFAULT"

// DefaultCommit builds the provenance marker stamped on vocabulary entities
// created by this run.
func DefaultCommit() string {
	return "CDEPV-" + time.Now().UTC().Format("20060102")
}

// Options control changelog generation for one model conversion.
type Options struct {
	// AddRollback pairs each changeset with its rollback statement.
	AddRollback bool
	// TermsOnly skips structural nodes/edges and emits only property and
	// model-level terms, for bulk vocabulary loads.
	TermsOnly bool
}

type stmtPair struct {
	stmt     *cypher.Statement
	rollback *cypher.Statement
}

// ModelConverter converts one metamodel into a changelog: every entity gets
// a creation statement, every relationship a linking statement, entities
// strictly before relationships, numbered from 1.
type ModelConverter struct {
	model  *model.Model
	opts   Options
	logger *zap.Logger

	addEnts []stmtPair
	addRels []stmtPair
	added   []*model.Entity
}

func NewModelConverter(m *model.Model, opts Options, logger *zap.Logger) *ModelConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelConverter{model: m, opts: opts, logger: logger}
}

// Convert runs the full pipeline: property separation, version stamping,
// traversal, changeset numbering. versionOverride, when non-empty, replaces
// the model's own version before stamping; latest marks the generated model
// node as the latest version.
func (c *ModelConverter) Convert(author, versionOverride string, latest bool) *changelog.Changelog {
	c.model = model.SeparateSharedProps(c.model)
	if versionOverride != "" {
		c.model.Version = versionOverride
	}
	c.setModelVersion(latest)

	if c.opts.TermsOnly {
		c.processTermsOnly()
	} else {
		c.processNodes()
		c.processEdges()
	}

	cl := &changelog.Changelog{}
	id := 1
	for _, pairs := range [][]stmtPair{c.addEnts, c.addRels} {
		for _, p := range pairs {
			var rb *cypher.Statement
			if c.opts.AddRollback {
				rb = p.rollback
			}
			cl.Append(changelog.NewChangeset(id, author, p.stmt, rb))
			id++
		}
	}
	return cl
}

// addEntity records the creation statement for an entity unless a
// value-equal entity was already added in this run.
func (c *ModelConverter) addEntity(e *model.Entity) {
	for _, prev := range c.added {
		if prev.Equal(e) {
			c.logger.Info("entity already added, skipping",
				zap.String("label", e.Label()),
				zap.Any("attrs", e.Attrs))
			return
		}
	}
	stmt, rollback := cypher.CreateEntityStatement(e)
	c.addEnts = append(c.addEnts, stmtPair{stmt: stmt, rollback: rollback})
	c.added = append(c.added, e)
}

func (c *ModelConverter) addRelationship(src *model.Entity, rel string, dst *model.Entity) {
	stmt, rollback := cypher.CreateRelationshipStatement(src, rel, dst)
	c.addRels = append(c.addRels, stmtPair{stmt: stmt, rollback: rollback})
}

func (c *ModelConverter) processTags(e *model.Entity) {
	for _, tag := range e.Tags {
		if tag.Nanoid() == "" {
			tag.SetAttr("nanoid", model.MakeNanoid())
		}
		if tag.Parent == nil {
			tag.Parent = e
		}
		c.addEntity(tag)
		c.addRelationship(e, "has_tag", tag)
	}
}

func (c *ModelConverter) processOrigin(e *model.Entity) {
	if e.Origin == nil {
		return
	}
	c.addEntity(e.Origin)
	c.addRelationship(e, "has_origin", e.Origin)
	c.processTags(e.Origin)
}

func (c *ModelConverter) processTerms(e *model.Entity) {
	for _, term := range e.Terms {
		c.addEntity(term)
		if e.Kind == model.KindConcept {
			c.addRelationship(term, "represents", e)
		} else {
			c.addRelationship(e, "has_term", term)
		}
		c.processTags(term)
		c.processOrigin(term)
		c.processConcept(term)
	}
}

func (c *ModelConverter) processConcept(e *model.Entity) {
	if e.Concept == nil {
		return
	}
	if e.Concept.TagByKey("mapping_source") == nil {
		e.Concept.AddTag(model.NewEntity(model.KindTag, map[string]any{
			"key":   "mapping_source",
			"value": c.model.Handle,
		}))
	}
	c.addEntity(e.Concept)
	c.addRelationship(e, "has_concept", e.Concept)
	c.processTags(e.Concept)
	c.processTerms(e.Concept)
}

func (c *ModelConverter) processValueSet(e *model.Entity) {
	if e.ValueSet == nil {
		return
	}
	if e.ValueSet.Nanoid() == "" {
		e.ValueSet.SetAttr("nanoid", model.MakeNanoid())
	}
	c.addEntity(e.ValueSet)
	c.addRelationship(e, "has_value_set", e.ValueSet)
	c.processTags(e.ValueSet)
	c.processOrigin(e.ValueSet)
	c.processTerms(e.ValueSet)
}

func (c *ModelConverter) processProps(e *model.Entity) {
	for _, prop := range e.Props {
		if prop.Nanoid() == "" {
			prop.SetAttr("nanoid", model.MakeNanoid())
		}
		if prop.OwnerHandle() == "" {
			prop.SetOwnerHandle(e.Handle())
		}
		c.addEntity(prop)
		c.addRelationship(e, "has_property", prop)
		c.processTags(prop)
		c.processConcept(prop)
		c.processValueSet(prop)
	}
}

func (c *ModelConverter) processNodes() {
	for _, node := range c.model.Nodes {
		c.addEntity(node)
		c.processTags(node)
		c.processConcept(node)
		c.processProps(node)
	}
}

func (c *ModelConverter) processEdges() {
	for _, edge := range c.model.Edges {
		if edge.Nanoid() == "" {
			edge.SetAttr("nanoid", model.MakeNanoid())
		}
		c.addEntity(edge)
		c.addRelationship(edge, "has_src", edge.Src)
		c.addRelationship(edge, "has_dst", edge.Dst)
		c.processTags(edge)
		c.processConcept(edge)
		c.processProps(edge)
	}
}

// processTermsOnly flattens property terms plus the model's top-level terms
// and emits vocabulary statements only; structural relationships are skipped
// entirely.
func (c *ModelConverter) processTermsOnly() {
	c.logger.Info("processing terms-only model", zap.String("model", c.model.Handle))
	var terms []*model.Entity
	for _, entry := range c.model.Props {
		if entry.Prop.ValueSet != nil {
			terms = append(terms, entry.Prop.ValueSet.Terms...)
		}
		terms = append(terms, entry.Prop.Terms...)
	}
	terms = append(terms, c.model.Terms...)
	for _, term := range terms {
		c.addEntity(term)
		c.processTags(term)
		c.processOrigin(term)
		c.processConcept(term)
	}
}

// setModelVersion emits the model's own top-level node and, when the model
// carries a version, stamps it onto every unversioned entity. With latest
// set, prior model nodes lose their latest-version flag first.
func (c *ModelConverter) setModelVersion(latest bool) {
	if latest {
		stmt, rollback := cypher.DeprecateOldModelNodes(c.model.Handle)
		c.addEnts = append(c.addEnts, stmtPair{stmt: stmt, rollback: rollback})
	}
	attrs := map[string]any{
		"latest_version": latest,
		"handle":         c.model.Handle,
		"name":           c.model.Handle,
	}
	if c.model.URI != "" {
		attrs["repository"] = c.model.URI
	}
	if c.model.Version != "" {
		attrs["version"] = c.model.Version
	}
	ent := model.NewEntity(model.KindModel, attrs)
	c.addEntity(ent)
	if c.model.Version != "" {
		model.AddVersionToEntities(c.model)
	}
}
