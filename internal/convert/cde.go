package convert

import (
	"fmt"

	"go.uber.org/zap"

	"mdb-go/internal/changelog"
	"mdb-go/internal/cypher"
	"mdb-go/internal/model"
)

// cdeBaseURL locates a Data Element in the caDSR API; value-set URLs are
// derived from it deterministically so re-runs merge onto the same node.
const cdeBaseURL = "https://cadsrapi.cancer.gov/rad/NCIAPI/1.0/api/DataElement/"

// CDEConverter turns controlled-vocabulary annotation records into
// forward-only merge changesets. Every emitted statement is idempotent by
// construction: external vocabulary updates must be safely re-appliable, so
// nothing here is ever rolled back destructively.
type CDEConverter struct {
	author string
	commit string
	logger *zap.Logger
}

func NewCDEConverter(author, commit string, logger *zap.Logger) *CDEConverter {
	if author == "" {
		author = DefaultAuthor
	}
	if commit == "" {
		commit = DefaultCommit()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CDEConverter{author: author, commit: commit, logger: logger}
}

// Convert walks every annotation in the spec and appends its changesets,
// numbered sequentially across the whole document.
func (c *CDEConverter) Convert(spec *model.ModelCDESpec) *changelog.Changelog {
	cl := &changelog.Changelog{}
	id := 1
	for _, annotation := range spec.Annotations {
		c.logger.Info("converting annotation",
			zap.String("entity", annotation.Entity["key"]),
			zap.Int("permissible_values", len(annotation.ValueSet)))
		changesets := c.ConvertAnnotation(annotation, id)
		if len(changesets) == 0 {
			continue
		}
		id += len(changesets)
		for _, cs := range changesets {
			cl.Append(cs)
		}
	}
	return cl
}

// ConvertAnnotation emits the changesets for one CDE annotation: a value-set
// merge keyed by origin id and version, a term merge plus has_term merge per
// permissible value, and a synonym merge plus concept-link statement per
// synonym. Annotations without permissible values produce no changesets.
func (c *CDEConverter) ConvertAnnotation(annotation *model.AnnotationSpec, startID int) []*changelog.Changeset {
	if len(annotation.ValueSet) == 0 {
		c.logger.Warn("annotation has no permissible values, skipping",
			zap.String("entity", annotation.Entity["key"]))
		return nil
	}
	var statements []*cypher.Statement

	cdeID := annotation.Annotation.Attrs["origin_id"]
	cdeVer := annotation.Annotation.Attrs["origin_version"]
	url := cdeBaseURL + cdeID
	if cdeVer != "" {
		url += "?version=" + cdeVer
	}
	vs := model.NewEntity(model.KindValueSet, map[string]any{
		"url":            url,
		"handle":         fmt.Sprintf("%s|%s", cdeID, cdeVer),
		model.CommitAttr: c.commit,
	})
	stmt, _ := cypher.CreateEntityStatement(vs)
	statements = append(statements, stmt)

	for _, pv := range annotation.ValueSet {
		if pv == nil || pv.Value == "" {
			c.logger.Warn("empty permissible value, skipping",
				zap.String("cde_id", cdeID))
			continue
		}
		pvTerm := pv.TermEntity()
		pvTerm.SetCommit(c.commit)
		stmt, _ := cypher.CreateEntityStatement(pvTerm)
		statements = append(statements, stmt)
		relStmt, _ := cypher.CreateRelationshipStatement(vs, "has_term", pvTerm)
		statements = append(statements, relStmt)

		for _, syn := range pv.Synonyms {
			synTerm := syn.TermEntity()
			mappingSource := "NCIm"
			if syn.OriginName == "NCIt" {
				mappingSource = "caDSR"
			}
			stmt, _ := cypher.CreateEntityStatement(synTerm)
			statements = append(statements, stmt)
			statements = append(statements, cypher.LinkTermSynonyms(pvTerm, synTerm, mappingSource, c.commit))
		}
	}

	changesets := make([]*changelog.Changeset, 0, len(statements))
	for i, stmt := range statements {
		changesets = append(changesets, changelog.NewChangeset(startID+i, c.author, stmt, nil))
	}
	return changesets
}
