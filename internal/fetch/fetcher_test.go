package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"crawl-frontier/internal/metrics"
)

func TestFetchSuccess(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.Client(), "test-agent/1.0", 0)
	resp, err := f.Fetch(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if gotUA != "test-agent/1.0" {
		t.Fatalf("expected user agent test-agent/1.0, got %q", gotUA)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.ContentType, "text/html") {
		t.Fatalf("unexpected content type %q", resp.ContentType)
	}
	if string(resp.Body) != "<html><body>hello</body></html>" {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if resp.URL != server.URL+"/page" {
		t.Fatalf("expected final url %s, got %s", server.URL+"/page", resp.URL)
	}
}

func TestFetchCapsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.Client(), "", 100)
	resp, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(resp.Body) != 100 {
		t.Fatalf("expected body capped at 100 bytes, got %d", len(resp.Body))
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.Client(), "", 0)
	_, err := f.Fetch(context.Background(), server.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T (%v)", err, err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", fe.StatusCode)
	}
	if fe.Timeout() {
		t.Fatal("expected non-timeout error")
	}
}

func TestFetchCountsTooManyRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	before := testutil.ToFloat64(metrics.RateLimited)
	f := NewHTTPFetcher(server.Client(), "", 0)
	if _, err := f.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 429")
	}
	if got := testutil.ToFloat64(metrics.RateLimited) - before; got != 1 {
		t.Fatalf("expected 429 counter to grow by 1, got %v", got)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, _ := NewClient(ClientOptions{TotalTimeout: 50 * time.Millisecond}, nil)
	f := NewHTTPFetcher(client, "", 0)
	_, err := f.Fetch(context.Background(), server.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T (%v)", err, err)
	}
	if !fe.Timeout() {
		t.Fatalf("expected timeout, got %v", fe.Err)
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	f := NewHTTPFetcher(nil, "", 0)
	_, err := f.Fetch(context.Background(), addr)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T (%v)", err, err)
	}
	if fe.StatusCode != 0 {
		t.Fatalf("expected no status, got %d", fe.StatusCode)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	f := NewHTTPFetcher(nil, "", 0)
	if _, err := f.Fetch(context.Background(), "://bad"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}
