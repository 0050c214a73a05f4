package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"crawl-frontier/internal/frontier"
)

func TestRedisCheckReportsSizes(t *testing.T) {
	mr := miniredis.RunT(t)
	_, _ = mr.Lpush(frontier.DefaultQueueKey, "https://a.example/")
	_, _ = mr.Lpush(frontier.DefaultQueueKey, "https://b.example/")
	_, _ = mr.SAdd(frontier.DefaultVisitedKey, "https://c.example/")

	summary, err := redisCheck(mr.Addr(), "", 0, "", "").probe(context.Background())
	if err != nil {
		t.Fatalf("redis check error: %v", err)
	}
	if !strings.Contains(summary, "queued=2") || !strings.Contains(summary, "visited=1") {
		t.Fatalf("unexpected summary: %s", summary)
	}
}

func TestRedisCheckUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := redisCheck(addr, "", 0, "", "").probe(context.Background())
	if !errors.Is(err, frontier.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestKafkaCheckUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := kafkaCheck("127.0.0.1:1").probe(ctx); err == nil {
		t.Fatal("expected error for unreachable broker")
	}
}

func TestRunChecksJoinsFailures(t *testing.T) {
	ran := 0
	checks := []check{
		{name: "ok", probe: func(context.Context) (string, error) { ran++; return "fine", nil }},
		{name: "first", probe: func(context.Context) (string, error) { ran++; return "", errors.New("boom") }},
		{name: "second", probe: func(context.Context) (string, error) { ran++; return "", errors.New("bang") }},
	}
	err := runChecks(context.Background(), checks, time.Second, zap.NewNop())
	if err == nil {
		t.Fatal("expected joined error, got nil")
	}
	if ran != 3 {
		t.Fatalf("expected every check to run, got %d", ran)
	}
	if !strings.Contains(err.Error(), "first: boom") || !strings.Contains(err.Error(), "second: bang") {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := runChecks(context.Background(), checks[:1], time.Second, zap.NewNop()); err != nil {
		t.Fatalf("expected nil for passing checks, got %v", err)
	}
}

func TestRunChecksAppliesTimeout(t *testing.T) {
	slow := check{name: "slow", probe: func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	err := runChecks(context.Background(), []check{slow}, 20*time.Millisecond, zap.NewNop())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
