package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mdb-go/internal/config"
)

func main() {
	var configPath = flag.String("config", "config.yaml", "Path to configuration file")
	var mode = flag.String("mode", "changelog", "Command: changelog, cdes, apply, export, import, clear")
	var modelHandle = flag.String("model", "", "Handle of the model to convert (from config)")
	var modelFile = flag.String("model-file", "", "Model YAML file (overrides config lookup)")
	var cdeFile = flag.String("cdes", "", "CDE permissible-value JSON file (mode=cdes)")
	var output = flag.String("output", "", "Output changelog path (default <handle>_changelog.xml)")
	var changelogPath = flag.String("changelog", "", "Existing changelog file to run (mode=apply)")
	var author = flag.String("author", "", "Changeset author")
	var commit = flag.String("commit", "", "Commit string stamped on merged entities")
	var version = flag.String("version", "", "Model version override")
	var latest = flag.Bool("latest", false, "Mark this version as latest and deprecate prior versions")
	var termsOnly = flag.Bool("terms-only", false, "Generate changesets for terms only")
	var noRollback = flag.Bool("no-rollback", false, "Omit rollback statements from changesets")
	var dryRun = flag.Bool("dry-run", false, "Log statements without executing (mode=apply)")
	var graphmlKey = flag.String("graphml-key", "", "S3 object key for GraphML export/import")
	var clearFirst = flag.Bool("clear", false, "Clear the database before import (mode=import)")
	flag.Parse()

	cfgZap := zap.NewProductionConfig()
	cfgZap.Level.SetLevel(zapcore.InfoLevel)
	cfgZap.OutputPaths = []string{"stdout"}
	logger, err := cfgZap.Build()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	opts := commandOptions{
		modelHandle: *modelHandle,
		modelFile:   *modelFile,
		cdeFile:     *cdeFile,
		output:      *output,
		changelog:   *changelogPath,
		author:      *author,
		commit:      *commit,
		version:     *version,
		latest:      *latest,
		termsOnly:   *termsOnly,
		noRollback:  *noRollback,
		dryRun:      *dryRun,
		graphmlKey:  *graphmlKey,
		clearFirst:  *clearFirst,
	}

	switch *mode {
	case "changelog":
		err = ChangelogCommand(cfg, logger, opts)
	case "cdes":
		err = CDECommand(cfg, logger, opts)
	case "apply":
		err = ApplyCommand(cfg, logger, opts)
	case "export":
		err = ExportCommand(cfg, logger, opts)
	case "import":
		err = ImportCommand(cfg, logger, opts)
	case "clear":
		err = ClearCommand(cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode: %s\n", *mode)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("Command failed", zap.String("mode", *mode), zap.Error(err))
	}
}
