package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"crawl-frontier/common"
	"crawl-frontier/internal/kafka"
	"crawl-frontier/internal/logging"
	"crawl-frontier/internal/metrics"
	"crawl-frontier/internal/models"
)

func main() {
	logger := logging.Must(common.GetEnv("LOG_LEVEL", "info"), common.GetEnv("LOG_FORMAT", "json"))
	defer func() { _ = logger.Sync() }()

	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	pagesTopic := common.GetEnv("KAFKA_PAGES_TOPIC", "crawl.pages")
	failuresTopic := common.GetEnv("KAFKA_FAILURES_TOPIC", "crawl.failures")
	pagesGroup := common.GetEnv("KAFKA_PAGES_GROUP", "crawl-page-writer")
	failuresGroup := common.GetEnv("KAFKA_FAILURES_GROUP", "crawl-failure-writer")
	metricsAddr := common.GetEnv("METRICS_ADDR", ":9092")

	mongoURI := common.GetEnv("MONGO_URI", "mongodb://localhost:27017")
	mongoDB := common.GetEnv("MONGO_DB", "crawl_frontier")
	pagesCollection := common.GetEnv("MONGO_PAGES_COLLECTION", "pages")
	failuresCollection := common.GetEnv("MONGO_FAILURES_COLLECTION", "failures")
	connectTimeout := common.ParseDuration(common.GetEnv("MONGO_CONNECT_TIMEOUT", "10s"), 10*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := connectMongo(ctx, mongoURI, connectTimeout)
	if err != nil {
		logger.Fatal("mongodb connect failed", zap.Error(err))
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("mongodb disconnect failed", zap.Error(err))
		}
	}()

	db := client.Database(mongoDB)
	pages := db.Collection(pagesCollection)
	if err := ensureIndexes(ctx, pages.Indexes()); err != nil {
		logger.Fatal("mongodb index setup failed", zap.Error(err))
	}
	store := newPageStore(pages, db.Collection(failuresCollection), logger)

	pagesReader := kafka.NewReader(broker, pagesTopic, pagesGroup)
	defer func() {
		if err := pagesReader.Close(); err != nil {
			logger.Warn("pages reader close failed", zap.Error(err))
		}
	}()
	failuresReader := kafka.NewReader(broker, failuresTopic, failuresGroup)
	defer func() {
		if err := failuresReader.Close(); err != nil {
			logger.Warn("failures reader close failed", zap.Error(err))
		}
	}()

	go func() {
		if err := metrics.Serve(ctx, metricsAddr, logger); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	logger.Info("page writer started",
		zap.String("broker", broker),
		zap.String("database", mongoDB),
		zap.String("pages_topic", pagesTopic),
		zap.String("failures_topic", failuresTopic))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		kafka.Consume(ctx, pagesReader, "mongo-pages", handlePage(store), logger)
	}()
	go func() {
		defer wg.Done()
		kafka.Consume(ctx, failuresReader, "mongo-failures", handleFailure(store), logger)
	}()
	wg.Wait()
}

func connectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	return client, nil
}

func handlePage(s *pageStore) kafka.Handler {
	return func(ctx context.Context, payload []byte) error {
		var page models.PageResult
		if err := json.Unmarshal(payload, &page); err != nil {
			return fmt.Errorf("decode page: %w", err)
		}
		return s.WritePage(ctx, page)
	}
}

func handleFailure(s *pageStore) kafka.Handler {
	return func(ctx context.Context, payload []byte) error {
		var failure models.CrawlFailure
		if err := json.Unmarshal(payload, &failure); err != nil {
			return fmt.Errorf("decode failure: %w", err)
		}
		return s.WriteFailure(ctx, failure)
	}
}
