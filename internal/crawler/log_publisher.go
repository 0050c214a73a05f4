package crawler

import (
	"context"

	"go.uber.org/zap"

	"crawl-frontier/internal/extract"
	"crawl-frontier/internal/models"
)

// SnippetLength is how much page text LogPublisher prints.
const SnippetLength = 100

// LogPublisher stands in for the downstream sink when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With(zap.String("component", "log-publisher"))}
}

func (p *LogPublisher) WritePage(_ context.Context, page models.PageResult) error {
	p.logger.Debug("page",
		zap.String("url", page.URL),
		zap.String("title", page.Title),
		zap.String("snippet", extract.Snippet(page.Text, SnippetLength)),
		zap.Int("links", page.LinkCount))
	return nil
}

func (p *LogPublisher) WriteEdges(_ context.Context, from string, to []string) error {
	p.logger.Debug("edges", zap.String("from", from), zap.Int("count", len(to)))
	return nil
}

// WriteFailure is a no-op; the worker already logs failures.
func (p *LogPublisher) WriteFailure(context.Context, models.CrawlFailure) error {
	return nil
}
