package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/crawlkit/internal/models"
	"github.com/raphaelgruber/crawlkit/internal/progress"
	"github.com/raphaelgruber/crawlkit/internal/service"
)

var (
	crawlDepth         int
	crawlConcurrency   int
	crawlCodeExamples  bool
	crawlTags          []string
	crawlKnowledgeType string
	crawlProvider      string
	crawlEmbedProvider string
	crawlPlain         bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Crawl a URL into the knowledge base",
	Long: `Crawl a documentation URL and ingest it into the knowledge base.

The URL is classified automatically: sitemaps are expanded and crawled
in parallel, text and markdown files are fetched directly (link
collections are expanded one level), and regular webpages are crawled
recursively up to --depth.

Examples:
  crawlkit crawl https://docs.example.com/sitemap.xml
  crawlkit crawl https://example.com/llms.txt
  crawlkit crawl https://docs.example.com --depth 3 --tags "go,http"
  crawlkit crawl https://docs.example.com --code-examples=false`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().IntVarP(&crawlDepth, "depth", "d", 1, "recursion depth for regular webpages")
	crawlCmd.Flags().IntVarP(&crawlConcurrency, "concurrency", "c", 0, "max parallel page fetches (0 = default)")
	crawlCmd.Flags().BoolVar(&crawlCodeExamples, "code-examples", true, "extract and summarize code examples")
	crawlCmd.Flags().StringSliceVarP(&crawlTags, "tags", "t", nil, "tags to apply to the source")
	crawlCmd.Flags().StringVar(&crawlKnowledgeType, "type", "", "knowledge type for the source")
	crawlCmd.Flags().StringVar(&crawlProvider, "provider", "", "LLM provider override for code summaries")
	crawlCmd.Flags().StringVar(&crawlEmbedProvider, "embedding-provider", "", "embedding provider override for code examples")
	crawlCmd.Flags().BoolVar(&crawlPlain, "plain", false, "log progress instead of the interactive display")
}

// runOutcome carries the orchestration result across the goroutine
// boundary to the command.
type runOutcome struct {
	result *service.Result
	err    error
}

// discardSink suppresses per-update logging while the interactive
// display reads the poll tracker instead.
type discardSink struct{}

func (discardSink) Send(context.Context, string, progress.Update) error { return nil }

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, registry, err := buildOrchestrator(ctx)
	if err != nil {
		return err
	}

	req := models.NewCrawlRequest(args[0])
	if crawlKnowledgeType != "" {
		req.KnowledgeType = crawlKnowledgeType
	}
	req.Tags = crawlTags
	if crawlDepth > 0 {
		req.MaxDepth = crawlDepth
	}
	if crawlConcurrency > 0 {
		req.MaxConcurrent = crawlConcurrency
	}
	req.ExtractCodeExamples = crawlCodeExamples
	req.Provider = crawlProvider
	req.EmbeddingProvider = crawlEmbedProvider

	interactive := !crawlPlain && term.IsTerminal(int(os.Stdout.Fd()))

	taskID := uuid.New().String()
	poll := progress.NewPollTracker()
	var sink progress.Sink
	if interactive {
		sink = discardSink{}
	}
	tracker := progress.NewTracker(taskID, sink, poll)

	done := make(chan runOutcome, 1)
	go func() {
		result, err := orch.Orchestrate(ctx, taskID, req, tracker)
		done <- runOutcome{result: result, err: err}
	}()

	if interactive {
		if err := runCrawlProgress(poll, func() { registry.Cancel(taskID) }); err != nil {
			return err
		}
	}

	outcome := <-done
	if outcome.err != nil {
		if errors.Is(outcome.err, models.ErrCancelled) {
			fmt.Println("Crawl cancelled.")
			return nil
		}
		return fmt.Errorf("crawl failed: %w", outcome.err)
	}

	printResult(outcome.result)
	return nil
}

func printResult(r *service.Result) {
	fmt.Println()
	fmt.Println(defaultTheme.completedStyle().Render("✓ Completed"))
	fmt.Println()
	fmt.Printf("  Source:          %s\n", r.SourceID)
	fmt.Printf("  Crawl type:      %s\n", r.CrawlType)
	fmt.Printf("  Pages processed: %d/%d\n", r.ProcessedPages, r.TotalPages)
	fmt.Printf("  Chunks stored:   %d\n", r.ChunksStored)
	if r.CodeExamples > 0 {
		fmt.Printf("  Code examples:   %d\n", r.CodeExamples)
	}
	fmt.Printf("  Words:           %d\n", r.WordCount)
}
