package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"mdb-go/internal/changelog"
	"mdb-go/internal/config"
	"mdb-go/internal/convert"
	"mdb-go/internal/mdb"
	"mdb-go/internal/model"
	"mdb-go/internal/storage"
)

type commandOptions struct {
	modelHandle string
	modelFile   string
	cdeFile     string
	output      string
	changelog   string
	author      string
	commit      string
	version     string
	latest      bool
	termsOnly   bool
	noRollback  bool
	dryRun      bool
	graphmlKey  string
	clearFirst  bool
}

// ChangelogCommand loads a model description and writes its liquibase
// changelog XML.
func ChangelogCommand(cfg *config.Config, logger *zap.Logger, opts commandOptions) error {
	file := opts.modelFile
	handle := opts.modelHandle
	version := opts.version
	latest := opts.latest
	termsOnly := opts.termsOnly

	if file == "" {
		if handle == "" {
			return fmt.Errorf("either -model or -model-file is required")
		}
		spec, err := cfg.GetModel(handle)
		if err != nil {
			return err
		}
		file = spec.File
		if version == "" {
			version = spec.Version
		}
		latest = latest || spec.Latest
		termsOnly = termsOnly || spec.TermsOnly
	}

	m, err := model.LoadModel(file)
	if err != nil {
		return fmt.Errorf("failed to load model %s: %w", file, err)
	}
	if handle == "" {
		handle = m.Handle
	}

	author := opts.author
	if author == "" {
		author = cfg.Changelog.Author
	}
	if author == "" {
		author = convert.DefaultAuthor
	}

	logger.Info("Converting model",
		zap.String("handle", handle),
		zap.String("file", file),
		zap.Bool("terms_only", termsOnly))

	converter := convert.NewModelConverter(m, convert.Options{
		AddRollback: !opts.noRollback,
		TermsOnly:   termsOnly,
	}, logger)
	cl := converter.Convert(author, version, latest)

	out := opts.output
	if out == "" {
		out = filepath.Join(cfg.Changelog.OutputDir, handle+"_changelog.xml")
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := cl.WriteFile(out); err != nil {
		return fmt.Errorf("failed to write changelog: %w", err)
	}
	logger.Info("Changelog written",
		zap.String("path", out),
		zap.Int("changesets", cl.Len()))
	return nil
}

// CDECommand converts CDE permissible values and synonym mappings to a
// changelog.
func CDECommand(cfg *config.Config, logger *zap.Logger, opts commandOptions) error {
	if opts.cdeFile == "" {
		return fmt.Errorf("-cdes is required")
	}
	spec, err := model.LoadModelCDEs(opts.cdeFile)
	if err != nil {
		return fmt.Errorf("failed to load CDE spec %s: %w", opts.cdeFile, err)
	}

	author := opts.author
	if author == "" {
		author = cfg.Changelog.Author
	}
	commit := opts.commit
	if commit == "" {
		commit = cfg.Changelog.Commit
	}

	converter := convert.NewCDEConverter(author, commit, logger)
	cl := converter.Convert(spec)

	out := opts.output
	if out == "" {
		base := filepath.Base(opts.cdeFile)
		base = base[:len(base)-len(filepath.Ext(base))]
		out = filepath.Join(cfg.Changelog.OutputDir, base+"_changelog.xml")
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := cl.WriteFile(out); err != nil {
		return fmt.Errorf("failed to write changelog: %w", err)
	}
	logger.Info("CDE changelog written",
		zap.String("path", out),
		zap.Int("changesets", cl.Len()))
	return nil
}

// ApplyCommand runs an existing changelog file against the database.
func ApplyCommand(cfg *config.Config, logger *zap.Logger, opts commandOptions) error {
	if opts.changelog == "" {
		return fmt.Errorf("-changelog is required")
	}
	cl, err := changelog.Load(opts.changelog)
	if err != nil {
		return fmt.Errorf("failed to load changelog %s: %w", opts.changelog, err)
	}

	ctx := context.Background()
	runner, err := mdb.NewRunner(cfg.Neo4j, logger)
	if err != nil {
		return err
	}
	defer runner.Close(ctx)

	return runner.ApplyChangelog(ctx, cl, opts.dryRun)
}

// ExportCommand dumps the database as GraphML to S3.
func ExportCommand(cfg *config.Config, logger *zap.Logger, opts commandOptions) error {
	if opts.graphmlKey == "" {
		return fmt.Errorf("-graphml-key is required")
	}
	ctx := context.Background()
	store, err := storage.NewS3Store(ctx, cfg.S3)
	if err != nil {
		return err
	}
	runner, err := mdb.NewRunner(cfg.Neo4j, logger)
	if err != nil {
		return err
	}
	defer runner.Close(ctx)

	return runner.ExportGraphML(ctx, store.URL(opts.graphmlKey))
}

// ImportCommand loads a GraphML dump from S3 into the database.
func ImportCommand(cfg *config.Config, logger *zap.Logger, opts commandOptions) error {
	if opts.graphmlKey == "" {
		return fmt.Errorf("-graphml-key is required")
	}
	ctx := context.Background()
	store, err := storage.NewS3Store(ctx, cfg.S3)
	if err != nil {
		return err
	}
	runner, err := mdb.NewRunner(cfg.Neo4j, logger)
	if err != nil {
		return err
	}
	defer runner.Close(ctx)

	return runner.ImportGraphML(ctx, store.URL(opts.graphmlKey), opts.clearFirst)
}

// ClearCommand removes all nodes and relationships from the database.
func ClearCommand(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()
	runner, err := mdb.NewRunner(cfg.Neo4j, logger)
	if err != nil {
		return err
	}
	defer runner.Close(ctx)

	return runner.ClearDatabase(ctx)
}
