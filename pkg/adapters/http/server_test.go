package http

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nvencoder/pkg/adapters/memory"
	"github.com/aretw0/nvencoder/pkg/domain"
)

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHealth(t *testing.T) {
	w := get(t, NewHandler(Config{Version: "1.2.3"}), "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"1.2.3"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutesDisabledWithoutDependencies(t *testing.T) {
	h := NewHandler(Config{})
	for _, path := range []string{"/status", "/events", "/results", "/metrics"} {
		assert.Equal(t, http.StatusNotFound, get(t, h, path).Code, path)
	}
}

func TestStatus_FollowsBatch(t *testing.T) {
	status := NewStatus()
	hooks := status.Hooks()
	ctx := context.Background()
	base := domain.EventBase{BatchID: "b1"}

	hooks.OnFileStart(ctx, &domain.FileEvent{EventBase: base, Index: 1, Total: 2, Input: "/in/a.mkv"})
	hooks.OnProgress(ctx, &domain.FileEvent{EventBase: base, Progress: &domain.Progress{Percent: 30}})

	var snap Snapshot
	w := get(t, NewHandler(Config{Status: status}), "/status")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.True(t, snap.Running)
	assert.Equal(t, "b1", snap.BatchID)
	assert.Equal(t, "/in/a.mkv", snap.File)
	require.NotNil(t, snap.Progress)
	assert.Equal(t, 30, snap.Progress.Percent)

	hooks.OnFileFinish(ctx, &domain.FileEvent{EventBase: base, Result: &domain.FileResult{ID: "b1-001", Status: domain.StatusEncoded}})
	hooks.OnBatchFinish(ctx, &domain.BatchEvent{EventBase: base, Canceled: true})

	snap = status.Snapshot()
	assert.False(t, snap.Running)
	assert.True(t, snap.Canceled)
	assert.Nil(t, snap.Progress)
	require.Len(t, snap.Results, 1)

	hooks.OnFileStart(ctx, &domain.FileEvent{EventBase: domain.EventBase{BatchID: "b2"}, Index: 1, Total: 1})
	snap = status.Snapshot()
	assert.Empty(t, snap.Results, "a new batch starts clean")
	assert.False(t, snap.Canceled)
}

func TestResults(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.FileResult{ID: "b1-001", BatchID: "b1", Status: domain.StatusEncoded}))
	require.NoError(t, store.Save(ctx, domain.FileResult{ID: "b2-001", BatchID: "b2", Status: domain.StatusFailed}))
	h := NewHandler(Config{Store: store})

	var results []domain.FileResult
	w := get(t, h, "/results?batch=b2")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "b2-001", results[0].ID)

	w = get(t, h, "/results/b1-001")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"encoded"`)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/results/missing").Code)
}

func TestMetricsMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "nvencoder_files_total 0\n")
	})
	w := get(t, NewHandler(Config{Metrics: metrics}), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nvencoder_files_total")
}

func TestSubscribeEvents(t *testing.T) {
	status := NewStatus()
	h := NewHandler(Config{Status: status})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events?batch=b1", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool { return status.Streams().Count() == 1 }, time.Second, 5*time.Millisecond)

	hooks := status.Hooks()
	hooks.OnFileStart(context.Background(), &domain.FileEvent{EventBase: domain.EventBase{BatchID: "other"}, Input: "skip.mkv"})
	hooks.OnFileStart(context.Background(), &domain.FileEvent{EventBase: domain.EventBase{BatchID: "b1", Type: domain.EventFileStart}, Input: "a.mkv"})

	require.Eventually(t, func() bool { return drained(status, "b1") }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	assert.Contains(t, body, "event: ping")
	assert.Contains(t, body, `"input":"a.mkv"`)
	assert.NotContains(t, body, "skip.mkv")
	assert.Zero(t, status.Streams().Count())
}

// drained reports whether every buffered message of batchID was consumed.
func drained(s *Status, batchID string) bool {
	s.streams.mu.RLock()
	defer s.streams.mu.RUnlock()
	for ch := range s.streams.subscribers[batchID] {
		if len(ch) > 0 {
			return false
		}
	}
	return true
}

func TestStreamManager_AllBatches(t *testing.T) {
	sm := NewStreamManager()
	all, cancelAll := sm.Subscribe(AllBatches)
	one, cancelOne := sm.Subscribe("b1")
	defer cancelAll()

	sm.Broadcast("b1", "x")
	sm.Broadcast("b2", "y")
	assert.Equal(t, "x", <-all)
	assert.Equal(t, "y", <-all)
	assert.Equal(t, "x", <-one)

	cancelOne()
	cancelOne()
	_, open := <-one
	assert.False(t, open)
	assert.Equal(t, 1, sm.Count())
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Serve(ctx, ln, NewHandler(Config{})) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.True(t, strings.Contains(string(body), `"ok"`))

	cancel()
	assert.NoError(t, <-errCh)
}
