package main

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"crawl-frontier/internal/models"
)

// pageCollection is the subset of *mongo.Collection the page store needs.
type pageCollection interface {
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type failureCollection interface {
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

type indexCreator interface {
	CreateOne(ctx context.Context, model mongo.IndexModel, opts ...*options.CreateIndexesOptions) (string, error)
}

// pageDocument is the stored form of a crawled page, one per url.
type pageDocument struct {
	URL         string    `bson:"url"`
	FinalURL    string    `bson:"final_url,omitempty"`
	Title       string    `bson:"title,omitempty"`
	Text        string    `bson:"text"`
	StatusCode  int       `bson:"status_code"`
	ContentType string    `bson:"content_type,omitempty"`
	LinkCount   int       `bson:"link_count"`
	FetchedAt   time.Time `bson:"fetched_at"`
}

type failureDocument struct {
	URL        string    `bson:"url"`
	Stage      string    `bson:"stage"`
	StatusCode int       `bson:"status_code,omitempty"`
	Timeout    bool      `bson:"timeout"`
	Error      string    `bson:"error"`
	FailedAt   time.Time `bson:"failed_at"`
}

type pageStore struct {
	pages    pageCollection
	failures failureCollection
	logger   *zap.Logger
}

func newPageStore(pages pageCollection, failures failureCollection, logger *zap.Logger) *pageStore {
	return &pageStore{pages: pages, failures: failures, logger: logger}
}

// ensureIndexes makes url unique in the pages collection.
func ensureIndexes(ctx context.Context, indexes indexCreator) error {
	_, err := indexes.CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("url_unique"),
	})
	if err != nil {
		return fmt.Errorf("create url index: %w", err)
	}
	return nil
}

// WritePage upserts the page keyed by url; a re-crawl overwrites the previous text.
func (s *pageStore) WritePage(ctx context.Context, page models.PageResult) error {
	if page.URL == "" {
		return nil
	}
	doc := pageDocument{
		URL:         page.URL,
		FinalURL:    page.FinalURL,
		Title:       page.Title,
		Text:        page.Text,
		StatusCode:  page.StatusCode,
		ContentType: page.ContentType,
		LinkCount:   page.LinkCount,
		FetchedAt:   page.FetchedAt,
	}
	update := bson.M{
		"$set":         doc,
		"$setOnInsert": bson.M{"first_seen_at": page.FetchedAt},
	}
	res, err := s.pages.UpdateOne(ctx, bson.M{"url": page.URL}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert page %s: %w", page.URL, err)
	}
	s.logger.Debug("page stored", zap.String("url", page.URL), zap.Bool("inserted", res != nil && res.UpsertedCount > 0))
	return nil
}

// WriteFailure appends a failure record.
func (s *pageStore) WriteFailure(ctx context.Context, failure models.CrawlFailure) error {
	if s.failures == nil {
		return nil
	}
	_, err := s.failures.InsertOne(ctx, failureDocument{
		URL:        failure.URL,
		Stage:      failure.Stage,
		StatusCode: failure.StatusCode,
		Timeout:    failure.Timeout,
		Error:      failure.Error,
		FailedAt:   failure.FailedAt,
	})
	if err != nil {
		return fmt.Errorf("insert failure %s: %w", failure.URL, err)
	}
	return nil
}
