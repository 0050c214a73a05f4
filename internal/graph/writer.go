package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"crawl-frontier/internal/models"
)

// Writer merges pages and LINKS_TO edges into the graph.
type Writer struct {
	driver DriverSessioner
	logger *zap.Logger
}

func NewWriter(driver DriverSessioner, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{driver: driver, logger: logger}
}

// WritePage upserts the page node with its crawl metadata. Empty URLs are ignored.
func (w *Writer) WritePage(ctx context.Context, page models.PageResult) error {
	if page.URL == "" {
		return nil
	}
	query, params := PageQuery(page)
	return w.run(ctx, query, params)
}

// WriteEdge merges both endpoints and the link between them. Incomplete edges are ignored.
func (w *Writer) WriteEdge(ctx context.Context, edge models.Edge) error {
	if edge.From == "" || edge.To == "" {
		return nil
	}
	query, params := EdgeQuery(edge)
	return w.run(ctx, query, params)
}

func (w *Writer) run(ctx context.Context, query string, params map[string]any) error {
	session := w.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer func() {
		if err := session.Close(ctx); err != nil {
			w.logger.Warn("neo4j session close failed", zap.Error(err))
		}
	}()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	return err
}

// EdgeQuery builds the MERGE for one hyperlink.
func EdgeQuery(edge models.Edge) (string, map[string]any) {
	query := "MERGE (from:Page {url: $from}) " +
		"MERGE (to:Page {url: $to}) " +
		"MERGE (from)-[r:LINKS_TO]->(to) " +
		"ON CREATE SET r.discovered_at = $discovered_at"
	return query, map[string]any{
		"from":          edge.From,
		"to":            edge.To,
		"discovered_at": edge.DiscoveredAt.UTC().Format(time.RFC3339),
	}
}

// PageQuery builds the MERGE for a crawled page. Missing optional fields keep existing values.
func PageQuery(page models.PageResult) (string, map[string]any) {
	query := "MERGE (p:Page {url: $url}) " +
		"SET p.crawled = true, " +
		"p.status_code = $status_code, " +
		"p.link_count = $link_count, " +
		"p.fetched_at = $fetched_at, " +
		"p.title = coalesce($title, p.title), " +
		"p.content_type = coalesce($content_type, p.content_type)"
	var title any
	if page.Title != "" {
		title = page.Title
	}
	var contentType any
	if page.ContentType != "" {
		contentType = page.ContentType
	}
	return query, map[string]any{
		"url":          page.URL,
		"status_code":  page.StatusCode,
		"link_count":   page.LinkCount,
		"fetched_at":   page.FetchedAt.UTC().Format(time.RFC3339),
		"title":        title,
		"content_type": contentType,
	}
}
