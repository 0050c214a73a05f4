package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"crawl-frontier/common"
	"crawl-frontier/internal/graph"
	"crawl-frontier/internal/kafka"
	"crawl-frontier/internal/logging"
	"crawl-frontier/internal/metrics"
	"crawl-frontier/internal/models"
)

type pageWriter interface {
	WritePage(ctx context.Context, page models.PageResult) error
}

type edgeWriter interface {
	WriteEdge(ctx context.Context, edge models.Edge) error
}

func main() {
	logger := logging.Must(common.GetEnv("LOG_LEVEL", "info"), common.GetEnv("LOG_FORMAT", "json"))
	defer func() { _ = logger.Sync() }()

	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	pagesTopic := common.GetEnv("KAFKA_PAGES_TOPIC", "crawl.pages")
	edgesTopic := common.GetEnv("KAFKA_EDGES_TOPIC", "crawl.edges")
	pagesGroup := common.GetEnv("KAFKA_PAGES_GROUP", "crawl-graph-pages")
	edgesGroup := common.GetEnv("KAFKA_EDGES_GROUP", "crawl-graph-edges")
	metricsAddr := common.GetEnv("METRICS_ADDR", ":9091")

	neo4jURI := common.GetEnv("NEO4J_URI", "neo4j://localhost:7687")
	neo4jUser := common.GetEnv("NEO4J_USER", "neo4j")
	neo4jPassword := common.GetEnv("NEO4J_PASSWORD", "neo4j")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver, err := graph.Open(ctx, neo4jURI, neo4jUser, neo4jPassword)
	if err != nil {
		logger.Fatal("neo4j connect failed", zap.String("uri", neo4jURI), zap.Error(err))
	}
	defer func() {
		if err := driver.Close(context.Background()); err != nil {
			logger.Warn("neo4j close failed", zap.Error(err))
		}
	}()
	writer := graph.NewWriter(driver, logger)

	pagesReader := kafka.NewReader(broker, pagesTopic, pagesGroup)
	defer func() {
		if err := pagesReader.Close(); err != nil {
			logger.Warn("pages reader close failed", zap.Error(err))
		}
	}()
	edgesReader := kafka.NewReader(broker, edgesTopic, edgesGroup)
	defer func() {
		if err := edgesReader.Close(); err != nil {
			logger.Warn("edges reader close failed", zap.Error(err))
		}
	}()

	go func() {
		if err := metrics.Serve(ctx, metricsAddr, logger); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	logger.Info("graph writer started",
		zap.String("broker", broker),
		zap.String("pages_topic", pagesTopic),
		zap.String("edges_topic", edgesTopic))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		kafka.Consume(ctx, pagesReader, "graph-pages", handlePage(writer), logger)
	}()
	go func() {
		defer wg.Done()
		kafka.Consume(ctx, edgesReader, "graph-edges", handleEdge(writer), logger)
	}()
	wg.Wait()
}

// handlePage decodes a page payload and upserts the page node.
func handlePage(w pageWriter) kafka.Handler {
	return func(ctx context.Context, payload []byte) error {
		var page models.PageResult
		if err := json.Unmarshal(payload, &page); err != nil {
			return fmt.Errorf("decode page: %w", err)
		}
		return w.WritePage(ctx, page)
	}
}

// handleEdge decodes an edge payload and merges the LINKS_TO relationship.
func handleEdge(w edgeWriter) kafka.Handler {
	return func(ctx context.Context, payload []byte) error {
		var edge models.Edge
		if err := json.Unmarshal(payload, &edge); err != nil {
			return fmt.Errorf("decode edge: %w", err)
		}
		if edge.Relation != "" && edge.Relation != models.RelationLinksTo {
			return fmt.Errorf("unsupported relation %q", edge.Relation)
		}
		return w.WriteEdge(ctx, edge)
	}
}
