package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"crawl-frontier/internal/frontier"
	"crawl-frontier/internal/models"
)

func newTestServer(t *testing.T) (*server, *frontier.MemoryStore) {
	t.Helper()
	store := frontier.NewMemoryStore()
	return newServer(store, store, nil, zap.NewNop()), store
}

func TestHandleEnqueue(t *testing.T) {
	srv, store := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/enqueue?url=https://www.python.org/", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rec.Code)
	}
	var payload models.EnqueueResult
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !payload.Queued || payload.URL != "https://www.python.org/" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if n, _ := store.Len(context.Background()); n != 1 {
		t.Fatalf("expected 1 queued url, got %d", n)
	}
}

func TestHandleEnqueueAlreadyVisited(t *testing.T) {
	srv, store := newTestServer(t)
	_, _ = store.Mark(context.Background(), "https://www.python.org/")

	req := httptest.NewRequest(http.MethodPost, "/enqueue?url=https://www.python.org/", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var payload models.EnqueueResult
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Queued || payload.Reason == "" {
		t.Fatalf("expected not queued with reason, got %+v", payload)
	}
	if n, _ := store.Len(context.Background()); n != 0 {
		t.Fatalf("expected empty queue, got %d", n)
	}
}

func TestHandleEnqueueNormalizes(t *testing.T) {
	store := frontier.NewMemoryStore()
	srv := newServer(store, store, frontier.Canonicalize, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/enqueue?url=HTTPS://Example.COM:443/docs/", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rec.Code)
	}
	got, _, _ := store.Dequeue(context.Background())
	if got != "https://example.com/docs" {
		t.Fatalf("expected canonical url queued, got %q", got)
	}
}

func TestHandleEnqueueRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t)
	cases := []struct {
		name   string
		method string
		target string
		status int
	}{
		{"wrong method", http.MethodGet, "/enqueue?url=https://a.example/", http.StatusMethodNotAllowed},
		{"missing url", http.MethodPost, "/enqueue", http.StatusBadRequest},
		{"relative url", http.MethodPost, "/enqueue?url=/about", http.StatusBadRequest},
		{"non-http scheme", http.MethodPost, "/enqueue?url=ftp://a.example/", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.routes().ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestHandleStats(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()
	_ = store.Enqueue(ctx, "https://a.example/", "https://b.example/")
	_, _ = store.Mark(ctx, "https://c.example/")

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var stats models.FrontierStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats.Queued != 2 || stats.Visited != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestHandleVisited(t *testing.T) {
	srv, store := newTestServer(t)
	_, _ = store.Mark(context.Background(), "https://a.example/")

	for target, want := range map[string]bool{
		"/visited?url=https://a.example/": true,
		"/visited?url=https://b.example/": false,
	} {
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		var status models.VisitedStatus
		if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if status.Visited != want {
			t.Fatalf("%s: expected visited=%v, got %v", target, want, status.Visited)
		}
	}

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visited", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

type brokenStore struct{ *frontier.MemoryStore }

var errDown = &frontier.StoreError{Op: "ping", Key: "localhost:6379", Err: errors.New("connection refused")}

func (brokenStore) Enqueue(context.Context, ...string) error { return errDown }
func (brokenStore) Len(context.Context) (int64, error) { return 0, errDown }
func (brokenStore) Contains(context.Context, string) (bool, error) { return false, errDown }
func (brokenStore) Size(context.Context) (int64, error) { return 0, errDown }

func TestStoreErrorsReturnBadGateway(t *testing.T) {
	store := brokenStore{frontier.NewMemoryStore()}
	srv := newServer(store, store, nil, zap.NewNop())

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/enqueue?url=https://a.example/", nil),
		httptest.NewRequest(http.MethodGet, "/stats", nil),
		httptest.NewRequest(http.MethodGet, "/visited?url=https://a.example/", nil),
	} {
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("%s %s: expected status %d, got %d", req.Method, req.URL, http.StatusBadGateway, rec.Code)
		}
	}
}

func TestEnqueueAgainstRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	store := frontier.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "", "")
	t.Cleanup(func() { _ = store.Close() })
	srv := newServer(store, store, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/enqueue?url=https://www.wikipedia.org/", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rec.Code)
	}
	list, err := mr.List(frontier.DefaultQueueKey)
	if err != nil || len(list) != 1 || list[0] != "https://www.wikipedia.org/" {
		t.Fatalf("unexpected redis queue: %v (%v)", list, err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "crawl_frontier_") {
		t.Fatal("expected crawl_frontier metrics in output")
	}
}
