package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List or delete crawled sources",
	Long: `Manage crawled sources in the knowledge base.

Subcommands:
  list    List sources (default)
  delete  Delete a source and all of its chunks and code examples

Examples:
  crawlkit sources
  crawlkit sources list -v
  crawlkit sources delete docs.example.com-1a2b3c4d`,
	RunE: runListSources,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sources",
	RunE:  runListSources,
}

var sourcesDeleteCmd = &cobra.Command{
	Use:   "delete <source-id>",
	Short: "Delete a source and all of its chunks and code examples",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteSource,
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesDeleteCmd)
}

func runListSources(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sources, err := dbClient.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	if len(sources) == 0 {
		fmt.Println("No sources found.")
		return nil
	}

	fmt.Printf("Sources (%d):\n\n", len(sources))
	for _, src := range sources {
		name := src.DisplayName
		if name == "" {
			name = src.SourceID
		}
		fmt.Printf("- %s [%s] %d words\n", name, src.CrawlStatus, src.WordCount)
		if verbose {
			fmt.Printf("  ID:  %s\n", src.SourceID)
			fmt.Printf("  URL: %s\n", src.URL)
			if src.Summary != "" {
				fmt.Printf("  %s\n", src.Summary)
			}
			if len(src.Tags) > 0 {
				fmt.Printf("  Tags: %s\n", strings.Join(src.Tags, ", "))
			}
		}
	}

	return nil
}

func runDeleteSource(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sourceID := args[0]

	deleted, err := dbClient.DeleteSource(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}

	fmt.Printf("Deleted source %s (%d chunks removed)\n", sourceID, deleted)
	return nil
}
