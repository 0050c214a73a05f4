package fetch

import (
	"hash/fnv"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ClientOptions configures the crawler's HTTP client.
type ClientOptions struct {
	ConnectTimeout  time.Duration
	ResponseTimeout time.Duration // time to first response header
	TotalTimeout    time.Duration // connect + headers + body
	ProxyURL        string
	ProxyPool       string // comma-separated; used when ProxyURL is empty
	Hostname        string // picks the pool entry
}

// NewClient returns an http.Client with explicit connect and response-header timeouts so a hung
// origin releases the worker. If ProxyURL is set it is used; otherwise one entry of ProxyPool is
// picked by hashing Hostname so replicas spread across egress proxies.
// The second return value is the proxy actually in use ("" for none).
func NewClient(opts ClientOptions, logger *zap.Logger) (*http.Client, string) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TotalTimeout <= 0 {
		opts.TotalTimeout = 5 * time.Second
	}
	if opts.ConnectTimeout <= 0 || opts.ConnectTimeout > opts.TotalTimeout {
		opts.ConnectTimeout = opts.TotalTimeout
	}
	if opts.ResponseTimeout <= 0 || opts.ResponseTimeout > opts.TotalTimeout {
		opts.ResponseTimeout = opts.TotalTimeout
	}
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: opts.ConnectTimeout}).DialContext,
		ResponseHeaderTimeout: opts.ResponseTimeout,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}

	proxyURL := strings.TrimSpace(opts.ProxyURL)
	if proxyURL == "" && opts.ProxyPool != "" {
		proxyURL = SelectProxyFromPool(opts.ProxyPool, opts.Hostname)
		if proxyURL != "" {
			logger.Info("proxy selected from pool",
				zap.String("hostname", opts.Hostname),
				zap.String("proxy", proxyURL))
		}
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil || u.Host == "" {
			logger.Warn("ignoring invalid proxy url", zap.String("proxy", proxyURL), zap.Error(err))
			proxyURL = ""
		} else {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Transport: transport,
		Timeout:   opts.TotalTimeout,
	}, proxyURL
}

// SelectProxyFromPool returns one URL from pool (comma-separated) by hashing hostname.
// Empty pool yields "".
func SelectProxyFromPool(pool, hostname string) string {
	var valid []string
	for _, p := range strings.Split(pool, ",") {
		if p = strings.TrimSpace(p); p != "" {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return ""
	}
	if hostname == "" {
		hostname = "0"
	}
	h := fnv.New32a()
	h.Write([]byte(hostname))
	return valid[h.Sum32()%uint32(len(valid))]
}
