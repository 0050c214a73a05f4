package main

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"crawl-frontier/internal/seed"
)

// mockTransport records the last request and returns a configurable status.
type mockTransport struct {
	mu         sync.Mutex
	status     int
	lastURL    string
	lastMethod string
	reqCount   int
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.lastURL = req.URL.String()
	m.lastMethod = req.Method
	m.reqCount++
	m.mu.Unlock()
	return &http.Response{
		StatusCode: m.status,
		Body:       http.NoBody,
		Header:     make(http.Header),
	}, nil
}

func writeSeeds(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seeds.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSubmitSeed(t *testing.T) {
	transport := &mockTransport{status: http.StatusAccepted}
	client := &http.Client{Transport: transport}
	baseURL, _ := url.Parse("http://api.test")

	if !submitSeed(client, baseURL, 0, "https://www.python.org/", zap.NewNop()) {
		t.Fatal("expected seed to be accepted")
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if transport.lastMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", transport.lastMethod)
	}
	parsed, _ := url.Parse(transport.lastURL)
	wantQuery := url.Values{"url": {"https://www.python.org/"}}.Encode()
	if parsed.Path != "/enqueue" || parsed.RawQuery != wantQuery {
		t.Errorf("url = %s (path=%q query=%q), want path=/enqueue query=%q", transport.lastURL, parsed.Path, parsed.RawQuery, wantQuery)
	}
}

func TestSubmitSeed_notQueued(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusBadGateway} {
		transport := &mockTransport{status: status}
		client := &http.Client{Transport: transport}
		baseURL, _ := url.Parse("http://api.test")
		if submitSeed(client, baseURL, 0, "https://a.example/", zap.NewNop()) {
			t.Fatalf("status %d: expected seed not to count as accepted", status)
		}
	}
}

func TestRun(t *testing.T) {
	configPath := writeSeeds(t, `{"seeds":["https://a.example/","https://b.example/"," https://a.example/ ","https://c.example/"]}`)
	transport := &mockTransport{status: http.StatusAccepted}
	client := &http.Client{Transport: transport}

	accepted, err := run(configPath, "", "http://api.test", client, zap.NewNop())
	if err != nil {
		t.Fatalf("run() err = %v", err)
	}
	if accepted != 4 {
		t.Errorf("accepted = %d, want 4", accepted)
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if transport.reqCount != 4 {
		t.Errorf("request count = %d, want 4 (repeats are submitted as given)", transport.reqCount)
	}
}

func TestRun_seedListOverridesFile(t *testing.T) {
	transport := &mockTransport{status: http.StatusAccepted}
	client := &http.Client{Transport: transport}

	accepted, err := run("/nonexistent/config.json", " https://a.example/, ,https://b.example/ ", "http://api.test", client, zap.NewNop())
	if err != nil {
		t.Fatalf("run() err = %v", err)
	}
	if accepted != 2 {
		t.Errorf("accepted = %d, want 2", accepted)
	}
}

func TestRun_blankSeedList(t *testing.T) {
	if _, err := run("/nonexistent/config.json", " , ", "http://localhost:8080", nil, zap.NewNop()); !errors.Is(err, seed.ErrNoSeeds) {
		t.Fatalf("run() err = %v, want ErrNoSeeds", err)
	}
}

func TestRun_badConfigPath(t *testing.T) {
	if _, err := run("/nonexistent/config.json", "", "http://localhost:8080", nil, zap.NewNop()); err == nil {
		t.Fatal("run() expected error for missing config")
	}
}

func TestRun_emptySeeds(t *testing.T) {
	configPath := writeSeeds(t, `{"seeds":[]}`)
	if _, err := run(configPath, "", "http://localhost:8080", nil, zap.NewNop()); !errors.Is(err, seed.ErrNoSeeds) {
		t.Fatalf("run() err = %v, want ErrNoSeeds", err)
	}
}

func TestRun_invalidJSON(t *testing.T) {
	configPath := writeSeeds(t, `{not json`)
	if _, err := run(configPath, "", "http://localhost:8080", nil, zap.NewNop()); err == nil {
		t.Fatal("run() expected error for invalid json")
	}
}

func TestRun_invalidAPIBase(t *testing.T) {
	configPath := writeSeeds(t, `{"seeds":["https://a.example/"]}`)
	if _, err := run(configPath, "", "://invalid", nil, zap.NewNop()); err == nil {
		t.Fatal("run() expected error for invalid api base")
	}
}
