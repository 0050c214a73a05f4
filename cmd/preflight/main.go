package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"crawl-frontier/common"
	"crawl-frontier/internal/frontier"
	"crawl-frontier/internal/logging"
)

// check probes one dependency and returns a one-line summary.
type check struct {
	name  string
	probe func(ctx context.Context) (string, error)
}

func main() {
	logger := logging.Must(common.GetEnv("LOG_LEVEL", "info"), common.GetEnv("LOG_FORMAT", "console"))
	defer func() { _ = logger.Sync() }()

	timeout := common.ParseDuration(common.GetEnv("PREFLIGHT_TIMEOUT", "5s"), 5*time.Second)
	checks := []check{redisCheck(
		common.GetEnv("REDIS_ADDR", "localhost:6379"),
		os.Getenv("REDIS_PASSWORD"),
		common.ParseInt(common.GetEnv("REDIS_DB", "0"), 0),
		common.GetEnv("QUEUE_KEY", frontier.DefaultQueueKey),
		common.GetEnv("VISITED_KEY", frontier.DefaultVisitedKey),
	)}
	if broker := os.Getenv("KAFKA_BROKER"); broker != "" {
		checks = append(checks, kafkaCheck(broker))
	}

	if err := runChecks(context.Background(), checks, timeout, logger); err != nil {
		logger.Error("preflight failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// runChecks runs every check with its own deadline and joins the failures.
func runChecks(ctx context.Context, checks []check, timeout time.Duration, logger *zap.Logger) error {
	var errs []error
	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		summary, err := c.probe(checkCtx)
		cancel()
		if err != nil {
			logger.Error("check failed", zap.String("check", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		logger.Info("check passed", zap.String("check", c.name), zap.String("summary", summary))
	}
	return errors.Join(errs...)
}

func redisCheck(addr, password string, db int, queueKey, visitedKey string) check {
	return check{name: "redis", probe: func(ctx context.Context) (string, error) {
		client, err := frontier.Dial(ctx, addr, password, db)
		if err != nil {
			return "", err
		}
		store := frontier.NewRedisStore(client, queueKey, visitedKey)
		defer store.Close()

		queued, err := store.Len(ctx)
		if err != nil {
			return "", err
		}
		visited, err := store.Size(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("connected to %s (queued=%d visited=%d)", addr, queued, visited), nil
	}}
}

func kafkaCheck(broker string) check {
	return check{name: "kafka", probe: func(ctx context.Context) (string, error) {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			return "", fmt.Errorf("connect to %s: %w", broker, err)
		}
		defer conn.Close()

		partitions, err := conn.ReadPartitions()
		if err != nil {
			return "", fmt.Errorf("read metadata: %w", err)
		}
		return fmt.Sprintf("connected to %s (%d partitions)", broker, len(partitions)), nil
	}}
}
