// Package cli provides the command-line interface for crawlkit.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/crawlkit/internal/config"
	"github.com/raphaelgruber/crawlkit/internal/crawler"
	"github.com/raphaelgruber/crawlkit/internal/db"
	"github.com/raphaelgruber/crawlkit/internal/llm"
	"github.com/raphaelgruber/crawlkit/internal/service"
	"github.com/raphaelgruber/crawlkit/internal/storage"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger and db client
	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
	dbClient *db.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "crawlkit",
	Short: "Crawl documentation into a searchable knowledge base",
	Long: `Crawlkit crawls documentation sites, sitemaps and link collections,
chunks and embeds the content, and stores it in SurrealDB for semantic
and full-text search. Code examples are extracted and summarized as a
separate searchable corpus.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		logger, closeLog = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if closeLog != nil {
			_ = closeLog()
		}
	},
}

// buildOrchestrator wires the crawl pipeline over the open database
// connection. The registry is returned so callers can cancel runs.
func buildOrchestrator(ctx context.Context) (*service.Orchestrator, *service.Registry, error) {
	embedder, err := llm.NewEmbedder(ctx, cfg, cfg.EmbedProvider)
	if err != nil {
		return nil, nil, fmt.Errorf("init embedder: %w", err)
	}

	store := storage.NewService(dbClient, embedder, logger)
	executor := crawler.NewExecutor(crawler.New(cfg.UserAgent))
	resolver := service.NewProviderResolver(llm.NewResolver(cfg))
	registry := service.NewRegistry()

	orch := service.NewOrchestrator(executor, store, resolver, dbClient,
		registry, cfg.HeartbeatInterval, logger)
	return orch, registry, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the crawlkit version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crawlkit %s\n", Version)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(versionCmd)
}
