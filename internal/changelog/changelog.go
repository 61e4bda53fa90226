// Package changelog holds the ordered changeset list produced by the
// converters and its XML serialization for the external changelog runner.
package changelog

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"mdb-go/internal/cypher"
)

// Changeset is one numbered mutation unit: a single Cypher statement and an
// optional rollback. Ids are positional (1-based) within one changelog; the
// rendered statement text, not the id, is the idempotence key across runs.
type Changeset struct {
	ID       string
	Author   string
	Cypher   string
	Rollback string
}

// NewChangeset renders a statement into a changeset. Backslash-escaped
// single quotes are unescaped in the final text so re-rendering the same
// entity reproduces the same bytes regardless of prior escaping state.
func NewChangeset(id int, author string, stmt *cypher.Statement, rollback *cypher.Statement) *Changeset {
	cs := &Changeset{
		ID:     strconv.Itoa(id),
		Author: author,
		Cypher: cleanText(stmt.String()),
	}
	if rollback != nil {
		cs.Rollback = cleanText(rollback.String())
	}
	return cs
}

func cleanText(s string) string {
	return strings.ReplaceAll(s, `\'`, `'`)
}

// Changelog is the ordered sequence of changesets forming one migration
// script. The runner must apply changesets strictly in ascending id order:
// relationship statements silently match zero rows when their endpoints do
// not exist yet.
type Changelog struct {
	Changesets []*Changeset
}

// Append adds a changeset at the end of the log.
func (c *Changelog) Append(cs *Changeset) {
	c.Changesets = append(c.Changesets, cs)
}

// Len returns the number of changesets.
func (c *Changelog) Len() int { return len(c.Changesets) }

const (
	xmlnsChangelog = "http://www.liquibase.org/xml/ns/dbchangelog"
	xmlnsXSI       = "http://www.w3.org/2001/XMLSchema-instance"
	xmlnsNeo4j     = "http://www.liquibase.org/xml/ns/dbchangelog-ext"
	schemaLocation = "http://www.liquibase.org/xml/ns/dbchangelog " +
		"http://www.liquibase.org/xml/ns/dbchangelog/dbchangelog-latest.xsd"
)

type xmlChangelog struct {
	XMLName        xml.Name        `xml:"databaseChangeLog"`
	Xmlns          string          `xml:"xmlns,attr"`
	XmlnsXSI       string          `xml:"xmlns:xsi,attr"`
	XmlnsNeo4j     string          `xml:"xmlns:neo4j,attr"`
	SchemaLocation string          `xml:"xsi:schemaLocation,attr"`
	ChangeSets     []*xmlChangeset `xml:"changeSet"`
}

type xmlChangeset struct {
	ID       string       `xml:"id,attr"`
	Author   string       `xml:"author,attr"`
	Cypher   string       `xml:"neo4j:cypher"`
	Rollback *xmlRollback `xml:"rollback,omitempty"`
}

type xmlRollback struct {
	Text string `xml:",chardata"`
}

// XML serializes the changelog as a liquibase document.
func (c *Changelog) XML() ([]byte, error) {
	doc := xmlChangelog{
		Xmlns:          xmlnsChangelog,
		XmlnsXSI:       xmlnsXSI,
		XmlnsNeo4j:     xmlnsNeo4j,
		SchemaLocation: schemaLocation,
	}
	for _, cs := range c.Changesets {
		x := &xmlChangeset{ID: cs.ID, Author: cs.Author, Cypher: cs.Cypher}
		if cs.Rollback != "" {
			x.Rollback = &xmlRollback{Text: cs.Rollback}
		}
		doc.ChangeSets = append(doc.ChangeSets, x)
	}
	body, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal changelog: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// WriteFile serializes the changelog to path.
func (c *Changelog) WriteFile(path string) error {
	data, err := c.XML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write changelog: %w", err)
	}
	return nil
}

// Load parses a previously generated changelog document. Only the pieces the
// runner needs (ids, author, statement and rollback text) are read back.
func Load(path string) (*Changelog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read changelog: %w", err)
	}
	var doc struct {
		ChangeSets []struct {
			ID       string `xml:"id,attr"`
			Author   string `xml:"author,attr"`
			Cypher   string `xml:"cypher"`
			Rollback string `xml:"rollback"`
		} `xml:"changeSet"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse changelog %s: %w", path, err)
	}
	cl := &Changelog{}
	for _, x := range doc.ChangeSets {
		cl.Append(&Changeset{ID: x.ID, Author: x.Author, Cypher: x.Cypher, Rollback: x.Rollback})
	}
	return cl, nil
}
