package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/raphaelgruber/crawlkit/internal/crawler"
	"github.com/raphaelgruber/crawlkit/internal/models"
	"github.com/raphaelgruber/crawlkit/internal/progress"
)

// Result carries the final counters of one successful orchestration.
type Result struct {
	SourceID       string `json:"source_id"`
	CrawlType      string `json:"crawl_type"`
	ChunksStored   int    `json:"chunks_stored"`
	CodeExamples   int    `json:"code_examples"`
	ProcessedPages int    `json:"processed_pages"`
	TotalPages     int    `json:"total_pages"`
	WordCount      int    `json:"word_count"`
}

// Orchestrator sequences the crawl pipeline for one request at a time:
// Initializing, Crawling, ProcessingDocuments, ExtractingCode,
// Finalizing. All run state is owned by the single Orchestrate call;
// the cancel token is the only shared mutable state.
type Orchestrator struct {
	crawler   Crawler
	docs      *DocumentProcessor
	code      *CodeExtractor
	status    *SourceStatusManager
	repo      SourceRepository
	resolver  ProviderResolver
	registry  *Registry
	heartbeat time.Duration
	logger    *slog.Logger
}

// NewOrchestrator wires the pipeline stages together. The registry is
// shared across orchestrations so external callers can cancel by task
// id.
func NewOrchestrator(
	crawl Crawler,
	store StorageService,
	resolver ProviderResolver,
	repo SourceRepository,
	registry *Registry,
	heartbeatInterval time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		crawler:   crawl,
		docs:      NewDocumentProcessor(store, logger),
		code:      NewCodeExtractor(store, resolver, logger),
		status:    NewSourceStatusManager(repo, logger),
		repo:      repo,
		resolver:  resolver,
		registry:  registry,
		heartbeat: heartbeatInterval,
		logger:    logger,
	}
}

// SourceIDForURL deterministically derives the source id and display
// name for a URL. The id is the normalized host plus a short hash of
// host+path so different paths on one host stay distinct sources while
// scheme, www prefix and trailing slashes do not; the display name is
// the host, path-qualified when the path is non-root.
func SourceIDForURL(rawURL string) (sourceID, displayName string) {
	canonical := crawler.Canonical(rawURL)

	host := ""
	path := ""
	if u, err := url.Parse(canonical); err == nil {
		host = strings.TrimPrefix(u.Host, "www.")
		path = strings.TrimSuffix(u.Path, "/")
	}
	if host == "" {
		host = "unknown"
	}

	h := fnv.New32a()
	h.Write([]byte(host + path))
	sourceID = fmt.Sprintf("%s-%08x", host, h.Sum32())

	displayName = host
	if path != "" {
		displayName = host + path
	}
	return sourceID, displayName
}

// Orchestrate runs the full pipeline for one request under taskID. The
// returned error is terminal: ErrNoContent, *StorageIntegrityError,
// models.ErrCancelled or a wrapped stage failure. Progress flows through
// the tracker for the whole run; the error is secondary signaling for
// the caller.
func (o *Orchestrator) Orchestrate(
	ctx context.Context,
	taskID string,
	req models.CrawlRequest,
	tracker *progress.Tracker,
) (*Result, error) {
	token := o.registry.Register(taskID)
	defer o.registry.Unregister(taskID)

	cancelled := func() bool {
		return token.Cancelled() || ctx.Err() != nil
	}
	heartbeat := progress.NewHeartbeat(tracker, o.heartbeat)

	// Initializing
	sourceID, displayName := SourceIDForURL(req.URL)
	o.logger.Info("crawl started",
		"task_id", taskID, "url", req.URL, "source_id", sourceID)
	tracker.Start(ctx, req.URL)
	tracker.UpdateSourceID(ctx, sourceID)
	tracker.UpdateMapped(ctx, progress.StageStarting, 100,
		fmt.Sprintf("initialized crawl of %s", displayName), nil)
	if cancelled() {
		return nil, o.fail(ctx, tracker, sourceID, models.ErrCancelled)
	}

	// Crawling
	tracker.UpdateMapped(ctx, progress.StageAnalyzing, 100, "analyzing URL", nil)
	pages, crawlType, err := o.crawler.CrawlByType(ctx, req, newRelay(ctx, tracker))
	if err != nil {
		return nil, o.fail(ctx, tracker, sourceID, fmt.Errorf("crawl stage: %w", err))
	}
	tracker.UpdateCrawlType(ctx, crawlType)
	heartbeat.SendIfNeeded(ctx)
	if cancelled() {
		return nil, o.fail(ctx, tracker, sourceID, models.ErrCancelled)
	}
	if len(models.SuccessfulPages(pages)) == 0 {
		return nil, o.fail(ctx, tracker, sourceID, ErrNoContent)
	}

	// ProcessingDocuments
	tracker.UpdateMapped(ctx, progress.StageProcessing, 100,
		fmt.Sprintf("processing %d pages", len(pages)),
		map[string]any{"total_pages": len(pages)})
	storageResult, err := o.docs.Process(ctx, tracker, req, sourceID, pages, cancelled)
	if err != nil {
		return nil, o.fail(ctx, tracker, sourceID, err)
	}
	tracker.UpdateSourceID(ctx, storageResult.SourceID)
	heartbeat.SendIfNeeded(ctx)
	if cancelled() {
		return nil, o.fail(ctx, tracker, sourceID, models.ErrCancelled)
	}

	// ExtractingCode
	codeExamples := o.code.Extract(ctx, tracker, req, storageResult, cancelled)
	heartbeat.SendIfNeeded(ctx)
	if cancelled() {
		return nil, o.fail(ctx, tracker, sourceID, models.ErrCancelled)
	}

	// Finalizing
	tracker.UpdateMapped(ctx, progress.StageFinalization, 50, "finalizing source record", nil)
	summary := o.summarizeSource(ctx, req, sourceID, pages)
	if err := o.repo.UpdateSourceInfo(ctx, sourceID, summary, storageResult.WordCount); err != nil {
		// The crawl itself succeeded; a summary-field write must not
		// undo that.
		o.logger.Warn("source info update failed", "source_id", sourceID, "error", err)
	}
	tracker.UpdateMapped(ctx, progress.StageCompleted, 100, "crawl completed", nil)
	tracker.Complete(ctx, progress.Summary{
		ChunksStored:      storageResult.ChunksStored,
		CodeExamplesFound: codeExamples,
		ProcessedPages:    storageResult.ProcessedPages,
		TotalPages:        storageResult.TotalPages,
		SourceID:          storageResult.SourceID,
	})
	if !o.status.UpdateToCompleted(ctx, sourceID) {
		o.logger.Warn("completed status not verified", "source_id", sourceID)
	}

	o.logger.Info("crawl completed",
		"task_id", taskID,
		"source_id", sourceID,
		"crawl_type", crawlType,
		"chunks_stored", storageResult.ChunksStored,
		"code_examples", codeExamples,
		"pages", storageResult.ProcessedPages)
	return &Result{
		SourceID:       storageResult.SourceID,
		CrawlType:      crawlType,
		ChunksStored:   storageResult.ChunksStored,
		CodeExamples:   codeExamples,
		ProcessedPages: storageResult.ProcessedPages,
		TotalPages:     storageResult.TotalPages,
		WordCount:      storageResult.WordCount,
	}, nil
}

// sourceSampleLimit bounds the content handed to the summary prompt.
const sourceSampleLimit = 4000

// summarizeSource generates the source description from sampled page
// content. Summaries are best-effort: a missing model or a generation
// failure yields an empty summary, never a failed crawl.
func (o *Orchestrator) summarizeSource(ctx context.Context, req models.CrawlRequest, sourceID string, pages []models.PageResult) string {
	summarizer := o.resolver.SourceSummarizer(ctx, req.Provider)
	if summarizer == nil {
		return ""
	}

	var sample strings.Builder
	for _, page := range models.SuccessfulPages(pages) {
		if sample.Len() >= sourceSampleLimit {
			break
		}
		sample.WriteString(page.Content)
		sample.WriteString("\n\n")
	}
	text := sample.String()
	if len(text) > sourceSampleLimit {
		text = text[:sourceSampleLimit]
	}

	summary, err := summarizer.SummarizeSource(ctx, req.URL, text)
	if err != nil {
		o.logger.Warn("source summary generation failed", "source_id", sourceID, "error", err)
		return ""
	}
	return summary
}

// fail is the single Failed transition: one terminal error update, one
// best-effort failed-status write, the error wrapped back to the caller.
func (o *Orchestrator) fail(ctx context.Context, tracker *progress.Tracker, sourceID string, err error) error {
	o.logger.Error("crawl failed", "source_id", sourceID, "error", err)
	tracker.Error(ctx, err.Error())
	o.status.UpdateToFailed(ctx, sourceID)
	return fmt.Errorf("orchestrate: %w", err)
}
