package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	updates []Update
}

func (s *recordingSink) Send(_ context.Context, _ string, u Update) error {
	s.updates = append(s.updates, u)
	return nil
}

func TestTrackerNeverRegresses(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	tr := NewTracker("task-1", sink, nil)

	tr.Start(ctx, "https://docs.test/")
	tr.UpdateMapped(ctx, StageCrawling, 80, "crawling", nil) // 25
	tr.UpdateMapped(ctx, StageCrawling, 10, "regression", nil)

	last := sink.updates[len(sink.updates)-1]
	// The stage-local value went backwards but the overall value holds.
	assert.Equal(t, 25, last.Progress)
}

func TestTrackerSourceIDIdempotent(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	tr := NewTracker("task-1", sink, nil)

	tr.Start(ctx, "https://docs.test/")
	n := len(sink.updates)

	tr.UpdateSourceID(ctx, "docs.test-abcd1234")
	assert.Len(t, sink.updates, n+1)

	// Same value again: no update, no state change.
	tr.UpdateSourceID(ctx, "docs.test-abcd1234")
	assert.Len(t, sink.updates, n+1)
	assert.Equal(t, "docs.test-abcd1234", tr.SourceID())

	// Empty value is silently skipped.
	tr.UpdateSourceID(ctx, "")
	assert.Len(t, sink.updates, n+1)
	assert.Equal(t, "docs.test-abcd1234", tr.SourceID())
}

func TestTrackerCrawlTypeDeduplicated(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	tr := NewTracker("task-1", sink, nil)

	tr.Start(ctx, "https://docs.test/")
	n := len(sink.updates)
	tr.UpdateCrawlType(ctx, "sitemap")
	tr.UpdateCrawlType(ctx, "sitemap")
	tr.UpdateCrawlType(ctx, "")
	assert.Len(t, sink.updates, n+1)
}

func TestTrackerHeartbeatRepeatsLastValue(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	tr := NewTracker("task-1", sink, nil)

	tr.Start(ctx, "https://docs.test/")
	tr.UpdateMapped(ctx, StageDocumentStorage, 50, "storing", nil) // 55
	tr.EmitHeartbeat(ctx)

	last := sink.updates[len(sink.updates)-1]
	assert.Equal(t, 55, last.Progress)
	assert.Equal(t, true, last.Meta["heartbeat"])

	// The next real update must not carry the heartbeat marker.
	tr.UpdateMapped(ctx, StageDocumentStorage, 60, "storing", nil)
	last = sink.updates[len(sink.updates)-1]
	_, ok := last.Meta["heartbeat"]
	assert.False(t, ok)
}

func TestTrackerTerminalStates(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	poll := NewPollTracker()
	tr := NewTracker("task-1", sink, poll)

	tr.Start(ctx, "https://docs.test/")
	tr.Complete(ctx, Summary{
		ChunksStored:      12,
		CodeExamplesFound: 2,
		ProcessedPages:    3,
		TotalPages:        3,
		SourceID:          "docs.test-abcd1234",
	})

	last := sink.updates[len(sink.updates)-1]
	assert.Equal(t, StageCompleted, last.Status)
	assert.Equal(t, 100, last.Progress)
	assert.Equal(t, 12, last.Meta["chunks_stored"])

	state := poll.State()
	assert.True(t, state.Done())
	assert.Equal(t, 100, state.Progress)
	require.NotNil(t, state.CompletedAt)

	// Heartbeats stop after a terminal update.
	n := len(sink.updates)
	tr.EmitHeartbeat(ctx)
	assert.Len(t, sink.updates, n)
}

func TestTrackerErrorKeepsProgress(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	poll := NewPollTracker()
	tr := NewTracker("task-1", sink, poll)

	tr.Start(ctx, "https://docs.test/")
	tr.UpdateMapped(ctx, StageCrawling, 100, "crawled", nil) // 30
	tr.Error(ctx, "boom")

	last := sink.updates[len(sink.updates)-1]
	assert.Equal(t, StageError, last.Status)
	assert.Equal(t, 30, last.Progress)
	assert.Equal(t, "boom", last.Meta["error"])

	state := poll.State()
	assert.True(t, state.Done())
	assert.Equal(t, "boom", state.Error)
}

func TestTrackerNilSinkFallsBackToLog(t *testing.T) {
	tr := NewTracker("task-1", nil, nil)
	// Must not panic without a sink or poll mirror.
	tr.Start(context.Background(), "https://docs.test/")
	tr.UpdateMapped(context.Background(), StageCrawling, 10, "crawling", nil)
}
