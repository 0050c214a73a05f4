package fetch

import (
	"net/http"
	"testing"
	"time"
)

func TestSelectProxyFromPool_EmptyPool(t *testing.T) {
	if got := SelectProxyFromPool("", "worker-0"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := SelectProxyFromPool("  ,  ", "worker-0"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestSelectProxyFromPool_SingleProxy(t *testing.T) {
	pool := "http://proxy:8080"
	for _, hostname := range []string{"worker-0", "worker-1", ""} {
		if got := SelectProxyFromPool(pool, hostname); got != pool {
			t.Fatalf("hostname %q: expected %q, got %q", hostname, pool, got)
		}
	}
}

func TestSelectProxyFromPool_Deterministic(t *testing.T) {
	pool := "http://p0:8080,http://p1:8080,http://p2:8080"
	got := SelectProxyFromPool(pool, "crawl-worker-0")
	valid := map[string]bool{"http://p0:8080": true, "http://p1:8080": true, "http://p2:8080": true}
	if !valid[got] {
		t.Fatalf("got %q not in pool", got)
	}
	if again := SelectProxyFromPool(pool, "crawl-worker-0"); again != got {
		t.Fatalf("deterministic: expected %q, got %q", got, again)
	}
}

func TestSelectProxyFromPool_Spread(t *testing.T) {
	pool := "http://a:80,http://b:80"
	seen := make(map[string]bool)
	for _, hostname := range []string{"worker-0", "worker-1", "worker-2", "worker-3", "pod-x", "pod-y"} {
		got := SelectProxyFromPool(pool, hostname)
		if got == "" {
			t.Fatalf("hostname %q: expected one of pool, got empty", hostname)
		}
		seen[got] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected at least 2 different proxies used across hostnames, got %v", seen)
	}
}

func TestSelectProxyFromPool_TrimSpace(t *testing.T) {
	got := SelectProxyFromPool(" http://one:8080 , http://two:8080 ", "worker-0")
	if got != "http://one:8080" && got != "http://two:8080" {
		t.Fatalf("expected trimmed URL from pool, got %q", got)
	}
}

func proxyFor(t *testing.T, client *http.Client) string {
	t.Helper()
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", client.Transport)
	}
	if transport.Proxy == nil {
		return ""
	}
	req, _ := http.NewRequest(http.MethodGet, "https://example.com/", nil)
	u, err := transport.Proxy(req)
	if err != nil {
		t.Fatalf("Proxy(req): %v", err)
	}
	if u == nil {
		return ""
	}
	return u.String()
}

func TestNewClient_NoProxy(t *testing.T) {
	client, proxy := NewClient(ClientOptions{TotalTimeout: 5 * time.Second, ConnectTimeout: 3 * time.Second}, nil)
	if proxy != "" || proxyFor(t, client) != "" {
		t.Fatalf("expected no proxy, got %q", proxy)
	}
	if client.Timeout != 5*time.Second {
		t.Fatalf("expected total timeout 5s, got %v", client.Timeout)
	}
	transport := client.Transport.(*http.Transport)
	if transport.ResponseHeaderTimeout != 5*time.Second {
		t.Fatalf("expected response timeout to default to total, got %v", transport.ResponseHeaderTimeout)
	}
}

func TestNewClient_ProxyURL(t *testing.T) {
	client, proxy := NewClient(ClientOptions{ProxyURL: "http://proxy.example:8080"}, nil)
	if proxy != "http://proxy.example:8080" {
		t.Fatalf("expected proxy returned, got %q", proxy)
	}
	if got := proxyFor(t, client); got != "http://proxy.example:8080" {
		t.Fatalf("expected proxy on transport, got %q", got)
	}
}

func TestNewClient_ProxyPool(t *testing.T) {
	client, _ := NewClient(ClientOptions{
		ProxyPool: "http://p0:8080,http://p1:8080,http://p2:8080",
		Hostname:  "crawl-worker-0",
	}, nil)
	valid := map[string]bool{"http://p0:8080": true, "http://p1:8080": true, "http://p2:8080": true}
	if got := proxyFor(t, client); !valid[got] {
		t.Fatalf("proxy %q not in pool", got)
	}
}

func TestNewClient_ProxyURLTakesPrecedence(t *testing.T) {
	client, _ := NewClient(ClientOptions{
		ProxyURL:  "http://single:9090",
		ProxyPool: "http://p0:80,http://p1:80",
		Hostname:  "worker-0",
	}, nil)
	if got := proxyFor(t, client); got != "http://single:9090" {
		t.Fatalf("expected ProxyURL to take precedence, got %q", got)
	}
}

func TestNewClient_InvalidProxyURL(t *testing.T) {
	client, proxy := NewClient(ClientOptions{ProxyURL: "://invalid"}, nil)
	if proxy != "" {
		t.Fatalf("expected invalid proxy to be dropped, got %q", proxy)
	}
	if got := proxyFor(t, client); got != "" {
		t.Fatalf("expected no proxy for invalid url, got %q", got)
	}
}
