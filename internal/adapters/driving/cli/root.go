// Package cli implements the command line interface. Commands are
// thin: they load configuration, wire the services and print results;
// pipeline behaviour lives in the core services.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calderalabs/ragline/internal/adapters/driven/stagestore/file"
	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/connectors"
	"github.com/calderalabs/ragline/internal/core/services"
	"github.com/calderalabs/ragline/internal/logger"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ragline",
	Short: "Extract, transform and load heterogeneous sources into a vector store",
	Long: `ragline runs an ETL pipeline for retrieval-augmented generation:
it extracts records from relational databases, mailboxes and search
indices, cuts them into tagged chunks, generates embeddings and
ingests the aligned records into a search backend.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "pipeline configuration file (default from settings, then pipeline.yml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// app bundles the wired pipeline services for one command invocation.
type app struct {
	cfg     *config.Pipeline
	manager *services.ConnectorManager
	stage   *file.Store
}

// newApp loads configuration and wires the services. The caller must
// invoke close when done.
func newApp() (*app, error) {
	settings := &config.Settings{}
	if settingsPath, err := config.DefaultSettingsPath(); err == nil {
		loaded, err := config.LoadSettings(settingsPath)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		settings = loaded
	}
	if settings.Verbose {
		logger.SetVerbose(true)
	}

	path := flagConfig
	if path == "" {
		path = settings.PipelinePath
	}
	if path == "" {
		path = "pipeline.yml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if settings.DataDir != "" {
		cfg.DataDir = settings.DataDir
	}

	return &app{
		cfg:     cfg,
		manager: services.NewConnectorManager(connectors.DefaultRegistry(), cfg.Connectors),
		stage:   file.New(cfg.DataDir),
	}, nil
}

func (a *app) close() {
	a.manager.DisconnectAll()
}

func (a *app) extraction() *services.ExtractionService {
	return services.NewExtractionService(a.cfg, a.manager, a.stage, a.stage)
}

func (a *app) transformation() *services.TransformationService {
	return services.NewTransformationService(a.cfg, a.stage)
}

func (a *app) loader() *services.LoaderService {
	return services.NewLoaderService(a.cfg, a.manager, a.stage)
}

func (a *app) search() *services.SearchService {
	return services.NewSearchService(a.cfg, a.manager)
}
