// Package mdb wraps the Neo4j driver for applying changelogs and running
// administrative statements against a metamodel database.
package mdb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"mdb-go/internal/changelog"
	"mdb-go/internal/config"
)

// MDBRelTypes are the relationship types present in a metamodel database.
// ClearDatabase deletes relationships type by type before removing nodes.
var MDBRelTypes = []string{
	"has_term",
	"IN_CHANGELOG",
	"represents",
	"has_tag",
	"has_property",
	"has_concept",
	"has_value_set",
	"has_src",
	"has_dst",
}

const connectTimeout = 10 * time.Second

// Runner executes Cypher against a single Neo4j database.
type Runner struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewRunner connects to Neo4j and verifies connectivity before returning.
func NewRunner(cfg config.Neo4jConfig, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		c.SocketConnectTimeout = connectTimeout
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify database connectivity: %w", err)
	}

	return &Runner{
		driver:   driver,
		database: cfg.Database,
		logger:   logger,
	}, nil
}

func (r *Runner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Run executes a single Cypher statement and returns the result records as
// maps keyed by the statement's return aliases.
func (r *Runner) Run(ctx context.Context, query string, params map[string]any, write bool) ([]map[string]any, error) {
	mode := neo4j.AccessModeRead
	if write {
		mode = neo4j.AccessModeWrite
	}
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	work := func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		var records []map[string]any
		for result.Next(ctx) {
			records = append(records, result.Record().AsMap())
		}
		if err := result.Err(); err != nil {
			return nil, err
		}
		return records, nil
	}

	var out any
	var err error
	if write {
		out, err = session.ExecuteWrite(ctx, work)
	} else {
		out, err = session.ExecuteRead(ctx, work)
	}
	if err != nil {
		return nil, err
	}
	records, _ := out.([]map[string]any)
	return records, nil
}

// ApplyChangelog runs every changeset in id order, stopping at the first
// failure. With dryRun set, statements are logged but not executed.
func (r *Runner) ApplyChangelog(ctx context.Context, cl *changelog.Changelog, dryRun bool) error {
	runID := uuid.New().String()
	r.logger.Info("Applying changelog",
		zap.String("run_id", runID),
		zap.Int("changesets", cl.Len()),
		zap.Bool("dry_run", dryRun))

	for _, cs := range cl.Changesets {
		if dryRun {
			r.logger.Info("Would run changeset",
				zap.String("run_id", runID),
				zap.String("id", cs.ID),
				zap.String("cypher", cs.Cypher))
			continue
		}
		if _, err := r.Run(ctx, cs.Cypher, nil, true); err != nil {
			r.logger.Error("Changeset failed",
				zap.String("run_id", runID),
				zap.String("id", cs.ID),
				zap.Error(err))
			return fmt.Errorf("changeset %s failed: %w", cs.ID, err)
		}
		r.logger.Info("Changeset applied",
			zap.String("run_id", runID),
			zap.String("id", cs.ID))
	}

	r.logger.Info("Changelog applied", zap.String("run_id", runID))
	return nil
}

// ExportGraphML streams the whole database to a GraphML file at the given
// URL (typically s3://...) using APOC.
func (r *Runner) ExportGraphML(ctx context.Context, url string) error {
	r.logger.Info("Exporting database to GraphML", zap.String("url", url))
	stmt := fmt.Sprintf(
		"CALL apoc.export.graphml.all('%s', {useTypes: true, batchSize: 10000}) "+
			"YIELD nodes, relationships, properties "+
			"RETURN nodes, relationships, properties", url)
	records, err := r.Run(ctx, stmt, nil, false)
	if err != nil {
		return fmt.Errorf("GraphML export failed: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("GraphML export failed: no results returned")
	}
	r.logger.Info("Export finished", zap.Any("result", records[0]))
	return nil
}

// ImportGraphML loads a GraphML file at the given URL into the database
// using APOC. With clear set, the database is emptied first.
func (r *Runner) ImportGraphML(ctx context.Context, url string, clear bool) error {
	if clear {
		if err := r.ClearDatabase(ctx); err != nil {
			return err
		}
	}
	r.logger.Info("Importing database from GraphML", zap.String("url", url))
	stmt := fmt.Sprintf(
		"CALL apoc.import.graphml('%s', {readLabels: true, batchSize: 10000}) "+
			"YIELD nodes, relationships, properties "+
			"RETURN nodes, relationships, properties", url)
	records, err := r.Run(ctx, stmt, nil, true)
	if err != nil {
		return fmt.Errorf("GraphML import failed: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("GraphML import failed: no results returned")
	}
	r.logger.Info("Import finished", zap.Any("result", records[0]))
	return nil
}

// ClearDatabase removes all nodes and relationships. Relationships are
// deleted type by type first so the final node pass stays small.
func (r *Runner) ClearDatabase(ctx context.Context) error {
	r.logger.Info("Deleting relationships by type")
	for _, rel := range MDBRelTypes {
		stmt := fmt.Sprintf(
			"CALL apoc.periodic.iterate("+
				"\"MATCH ()-[r:%s]-() RETURN r\", "+
				"\"DELETE r\", "+
				"{batchSize: 5000, parallel: true, concurrency: 1}) "+
				"YIELD batches, total, timeTaken, committedOperations "+
				"RETURN batches, total, timeTaken, committedOperations", rel)
		records, err := r.Run(ctx, stmt, nil, true)
		if err != nil {
			return fmt.Errorf("failed to delete %s relationships: %w", rel, err)
		}
		if len(records) > 0 {
			r.logger.Info("Relationships deleted", zap.String("type", rel), zap.Any("result", records[0]))
		}
	}

	r.logger.Info("Deleting nodes and any remaining relationships")
	stmt := "CALL apoc.periodic.iterate(" +
		"\"MATCH (n) RETURN n\", " +
		"\"DETACH DELETE n\", " +
		"{batchSize: 5000, parallel: true, concurrency: 1}) " +
		"YIELD batches, total, timeTaken, committedOperations " +
		"RETURN batches, total, timeTaken, committedOperations"
	records, err := r.Run(ctx, stmt, nil, true)
	if err != nil {
		return fmt.Errorf("failed to delete nodes: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("clear remaining nodes failed: no results returned")
	}

	countRecords, err := r.Run(ctx, "MATCH (n) RETURN count(n) as node_count", nil, false)
	if err != nil {
		return fmt.Errorf("failed to verify cleared database: %w", err)
	}
	if len(countRecords) > 0 {
		if count, ok := countRecords[0]["node_count"].(int64); ok && count > 0 {
			return fmt.Errorf("clear operation incomplete: %d nodes remaining", count)
		}
	}
	r.logger.Info("Database cleared")
	return nil
}
