package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/crawlkit/internal/models"
	"github.com/raphaelgruber/crawlkit/internal/progress"
	"github.com/raphaelgruber/crawlkit/internal/service"
)

// scriptedRunner stands in for the orchestrator. The run function is
// invoked on the server's orchestration goroutine with the tracker the
// server built.
type scriptedRunner struct {
	registry *service.Registry
	run      func(ctx context.Context, taskID string, req models.CrawlRequest, tracker *progress.Tracker) (*service.Result, error)
}

func (r *scriptedRunner) Orchestrate(ctx context.Context, taskID string, req models.CrawlRequest, tracker *progress.Tracker) (*service.Result, error) {
	return r.run(ctx, taskID, req, tracker)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func startCrawl(t *testing.T, ts *httptest.Server, body string) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/crawl", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out struct {
		TaskID string `json:"task_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.TaskID)
	return out.TaskID
}

func pollUntilDone(t *testing.T, ts *httptest.Server, taskID string) progress.PollState {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/api/crawl/" + taskID)
		require.NoError(t, err)
		var state progress.PollState
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
		resp.Body.Close()
		if state.Done() {
			return state
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s did not finish", taskID)
	return progress.PollState{}
}

func TestStartAndPollCrawl(t *testing.T) {
	registry := service.NewRegistry()
	var gotReq models.CrawlRequest
	runner := &scriptedRunner{
		registry: registry,
		run: func(ctx context.Context, taskID string, req models.CrawlRequest, tracker *progress.Tracker) (*service.Result, error) {
			gotReq = req
			tracker.Start(ctx, req.URL)
			tracker.UpdateMapped(ctx, progress.StageCrawling, 50, "crawling", nil)
			tracker.Complete(ctx, progress.Summary{ChunksStored: 7, ProcessedPages: 2})
			return &service.Result{ChunksStored: 7}, nil
		},
	}

	ts := httptest.NewServer(New(runner, registry, nil, testLogger()).Handler())
	defer ts.Close()

	taskID := startCrawl(t, ts, `{"url":"https://docs.test/guide","max_depth":3,"tags":["go"]}`)
	state := pollUntilDone(t, ts, taskID)

	assert.Equal(t, progress.StageCompleted, state.Status)
	assert.Equal(t, 100, state.Progress)
	assert.Equal(t, "https://docs.test/guide", state.URL)
	assert.NotNil(t, state.CompletedAt)

	assert.Equal(t, 3, gotReq.MaxDepth)
	assert.Equal(t, []string{"go"}, gotReq.Tags)
	// Absent fields keep the request defaults.
	assert.True(t, gotReq.ExtractCodeExamples)
	assert.Equal(t, models.DefaultMaxConcurrent, gotReq.MaxConcurrent)
}

func TestStartCrawlValidation(t *testing.T) {
	registry := service.NewRegistry()
	runner := &scriptedRunner{registry: registry}
	ts := httptest.NewServer(New(runner, registry, nil, testLogger()).Handler())
	defer ts.Close()

	for name, body := range map[string]string{
		"missing url":  `{"max_depth":2}`,
		"invalid json": `{"url":`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/crawl", "application/json", strings.NewReader(body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestGetUnknownTask(t *testing.T) {
	registry := service.NewRegistry()
	ts := httptest.NewServer(New(&scriptedRunner{registry: registry}, registry, nil, testLogger()).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/crawl/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelCrawl(t *testing.T) {
	registry := service.NewRegistry()
	runner := &scriptedRunner{
		registry: registry,
		run: func(ctx context.Context, taskID string, req models.CrawlRequest, tracker *progress.Tracker) (*service.Result, error) {
			token := registry.Register(taskID)
			defer registry.Unregister(taskID)
			tracker.Start(ctx, req.URL)
			for !token.Cancelled() {
				time.Sleep(5 * time.Millisecond)
			}
			tracker.Error(ctx, "crawl cancelled by user")
			return nil, models.ErrCancelled
		},
	}

	ts := httptest.NewServer(New(runner, registry, nil, testLogger()).Handler())
	defer ts.Close()

	taskID := startCrawl(t, ts, `{"url":"https://docs.test"}`)

	// The runner registers its token on its own goroutine.
	require.Eventually(t, func() bool { return registry.Active() > 0 },
		2*time.Second, 5*time.Millisecond)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/crawl/"+taskID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	state := pollUntilDone(t, ts, taskID)
	assert.Equal(t, progress.StageError, state.Status)
	assert.Contains(t, state.Error, "cancelled")
}

func TestCancelUnknownTask(t *testing.T) {
	registry := service.NewRegistry()
	ts := httptest.NewServer(New(&scriptedRunner{registry: registry}, registry, nil, testLogger()).Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/crawl/nope", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketStream(t *testing.T) {
	registry := service.NewRegistry()
	subscribed := make(chan struct{})
	runner := &scriptedRunner{
		registry: registry,
		run: func(ctx context.Context, taskID string, req models.CrawlRequest, tracker *progress.Tracker) (*service.Result, error) {
			tracker.Start(ctx, req.URL)
			<-subscribed
			tracker.UpdateMapped(ctx, progress.StageCrawling, 40, "crawling pages", nil)
			tracker.UpdateMapped(ctx, progress.StageDocumentStorage, 50, "storing chunks", nil)
			tracker.Complete(ctx, progress.Summary{ChunksStored: 3})
			return &service.Result{ChunksStored: 3}, nil
		},
	}

	ts := httptest.NewServer(New(runner, registry, nil, testLogger()).Handler())
	defer ts.Close()

	taskID := startCrawl(t, ts, `{"url":"https://docs.test"}`)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/crawl/" + taskID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// First frame is the current snapshot.
	var snapshot progress.PollState
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, taskID, snapshot.TaskID)
	close(subscribed)

	sawCompleted := false
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var u progress.Update
		if err := conn.ReadJSON(&u); err != nil {
			break
		}
		if u.Status == progress.StageCompleted {
			sawCompleted = true
		}
	}
	assert.True(t, sawCompleted, "stream should end with a completed update")
}

func TestHealth(t *testing.T) {
	registry := service.NewRegistry()
	ts := httptest.NewServer(New(&scriptedRunner{registry: registry}, registry, nil, testLogger()).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out["status"])
}
