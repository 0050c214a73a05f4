package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"crawl-frontier/internal/config"
	"crawl-frontier/internal/crawler"
	"crawl-frontier/internal/extract"
	"crawl-frontier/internal/fetch"
	"crawl-frontier/internal/frontier"
	"crawl-frontier/internal/kafka"
	"crawl-frontier/internal/logging"
	"crawl-frontier/internal/metrics"
	"crawl-frontier/internal/politeness"
	"crawl-frontier/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Must(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("worker failed", zap.Error(err))
	}
}

// run connects to the shared store, seeds it if empty and drives the worker loops until ctx ends.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	client, err := frontier.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("connect frontier store: %w", err)
	}
	store := frontier.NewRedisStore(client, cfg.QueueKey, cfg.VisitedKey)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}()

	seeds, err := seedURLs(cfg)
	if err != nil {
		return err
	}
	if _, err := seed.Load(ctx, store, seeds, logger); err != nil {
		return err
	}

	publisher, closePublisher := buildPublisher(cfg, logger)
	defer func() {
		if err := closePublisher(); err != nil {
			logger.Warn("failed to close publisher", zap.Error(err))
		}
	}()

	go func() {
		if err := metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	logger.Info("worker starting",
		zap.String("redis", cfg.RedisAddr),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Duration("politeness_interval", cfg.PolitenessInterval),
		zap.String("politeness_scope", cfg.PolitenessScope),
		zap.Bool("claim_on_dequeue", cfg.ClaimOnDequeue),
		zap.Bool("normalize_urls", cfg.NormalizeURLs))

	buildWorker(cfg, store, client, publisher, logger).Run(ctx)
	return nil
}

func buildWorker(cfg *config.Config, store frontier.Store, client *redis.Client, publisher crawler.Publisher, logger *zap.Logger) *crawler.Worker {
	var gate politeness.Gate
	if cfg.PolitenessScope == config.ScopeShared && client != nil {
		gate = politeness.NewRedisGate(client, cfg.PolitenessKeyPrefix, cfg.PolitenessInterval)
	} else {
		gate = politeness.NewLocalGate(cfg.PolitenessInterval)
	}

	httpClient, proxy := fetch.NewClient(fetch.ClientOptions{
		ConnectTimeout: cfg.ConnectTimeout,
		TotalTimeout:   cfg.FetchTimeout,
		ProxyURL:       cfg.ProxyURL,
		ProxyPool:      cfg.ProxyPool,
		Hostname:       cfg.Hostname,
	}, logger)
	if proxy != "" {
		logger.Info("fetching through proxy", zap.String("proxy", proxy))
	}

	return crawler.New(crawler.Dependencies{
		Queue:     store,
		Registry:  store,
		Gate:      gate,
		Fetcher:   fetch.NewHTTPFetcher(httpClient, cfg.UserAgent, cfg.MaxBodyBytes),
		Extractor: extract.New(cfg.ResolveRelativeLinks),
		Publisher: publisher,
	}, crawler.Options{
		Concurrency:     cfg.Concurrency,
		EmptyBackoff:    cfg.EmptyBackoff,
		StoreRetryDelay: cfg.StoreRetryDelay,
		PublishTimeout:  cfg.PublishTimeout,
		PublishBuffer:   cfg.PublishBuffer,
		ClaimOnDequeue:  cfg.ClaimOnDequeue,
		PublishEdges:    cfg.PublishEdges,
		GlobalRPS:       cfg.GlobalRPS,
		Normalize:       frontier.NewNormalizer(cfg.NormalizeURLs),
	}, logger)
}

// buildPublisher returns the Kafka producer when a broker is configured, otherwise a log-only publisher.
func buildPublisher(cfg *config.Config, logger *zap.Logger) (crawler.Publisher, func() error) {
	if cfg.KafkaBroker == "" {
		logger.Info("no kafka broker configured, pages are only logged")
		return crawler.NewLogPublisher(logger), func() error { return nil }
	}
	topics := kafka.Topics{
		Pages:    cfg.KafkaPagesTopic,
		Edges:    cfg.KafkaEdgesTopic,
		Failures: cfg.KafkaFailuresTopic,
	}
	if !cfg.PublishEdges {
		topics.Edges = ""
	}
	producer := kafka.NewProducer(cfg.KafkaBroker, topics)
	return producer, producer.Close
}

func seedURLs(cfg *config.Config) ([]string, error) {
	if cfg.SeedFile == "" {
		return cfg.SeedURLs, nil
	}
	seeds, err := seed.ReadFile(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return seeds, nil
}
