// Package politeness spaces out requests to the same host.
package politeness

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Gate blocks until a request to host may be issued and returns the granted time.
// Successive grants for one host are at least the configured interval apart;
// different hosts never wait on each other.
type Gate interface {
	Wait(ctx context.Context, host string) (time.Time, error)
}

// HostOf returns the lowercased host (with port, if any) of rawURL.
func HostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return strings.ToLower(u.Host), nil
}

// LocalGate keeps per-host politeness state inside one process.
type LocalGate struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time // last granted time per host
}

// NewLocalGate returns a gate enforcing interval between grants per host.
func NewLocalGate(interval time.Duration) *LocalGate {
	return &LocalGate{
		interval: interval,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

// Wait reserves the next free slot for host, then sleeps until it.
// A reservation is kept even if ctx is cancelled while sleeping.
func (g *LocalGate) Wait(ctx context.Context, host string) (time.Time, error) {
	g.mu.Lock()
	now := g.now()
	grant := now
	if last, ok := g.last[host]; ok {
		if next := last.Add(g.interval); next.After(grant) {
			grant = next
		}
	}
	g.last[host] = grant
	g.mu.Unlock()

	if err := sleepUntil(ctx, grant.Sub(now)); err != nil {
		return time.Time{}, err
	}
	return grant, nil
}

func sleepUntil(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
