package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"crawl-frontier/internal/metrics"
	"crawl-frontier/internal/models"
)

// Topics names the downstream streams. An empty name disables that stream.
type Topics struct {
	Pages    string
	Edges    string
	Failures string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes crawl output: page text, link edges and failure records.
type Producer struct {
	pages    messageWriter
	edges    messageWriter
	failures messageWriter
}

// NewWriter returns an async kafka.Writer for topic on broker. WriteMessages
// only queues; delivery errors are counted under stream once the batch completes.
func NewWriter(broker, topic, stream string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: false,
		Async:                  true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				metrics.PublishErrors.WithLabelValues(stream).Add(float64(len(msgs)))
			}
		},
	}
}

// NewProducer creates writers for every non-empty topic.
func NewProducer(broker string, topics Topics) *Producer {
	p := &Producer{}
	if topics.Pages != "" {
		p.pages = NewWriter(broker, topics.Pages, "pages")
	}
	if topics.Edges != "" {
		p.edges = NewWriter(broker, topics.Edges, "edges")
	}
	if topics.Failures != "" {
		p.failures = NewWriter(broker, topics.Failures, "failures")
	}
	return p
}

// NewProducerWithWriters builds a producer using custom writers (tests). nil disables a stream.
func NewProducerWithWriters(pages, edges, failures messageWriter) *Producer {
	return &Producer{pages: pages, edges: edges, failures: failures}
}

// Close shuts down the underlying writers.
func (p *Producer) Close() error {
	var errs []error
	for _, w := range []messageWriter{p.pages, p.edges, p.failures} {
		if w != nil {
			if err := w.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WritePage publishes a crawled page keyed by its URL.
func (p *Producer) WritePage(ctx context.Context, page models.PageResult) error {
	if p.pages == nil {
		return nil
	}
	payload, err := models.NewPageResultPayload(page)
	if err != nil {
		return err
	}
	return p.pages.WriteMessages(ctx, kafka.Message{
		Key:   []byte(page.URL),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

// WriteEdges publishes one LINKS_TO edge per target in a single batch.
func (p *Producer) WriteEdges(ctx context.Context, from string, to []string) error {
	if p.edges == nil || len(to) == 0 {
		return nil
	}
	now := time.Now().UTC()
	msgs := make([]kafka.Message, 0, len(to))
	for _, target := range to {
		payload, err := json.Marshal(models.Edge{
			From:         from,
			To:           target,
			Relation:     models.RelationLinksTo,
			DiscoveredAt: now,
		})
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Key: []byte(from), Value: payload, Time: now})
	}
	return p.edges.WriteMessages(ctx, msgs...)
}

// WriteFailure publishes a failure record keyed by URL.
func (p *Producer) WriteFailure(ctx context.Context, failure models.CrawlFailure) error {
	if p.failures == nil {
		return nil
	}
	payload, err := json.Marshal(failure)
	if err != nil {
		return err
	}
	return p.failures.WriteMessages(ctx, kafka.Message{
		Key:   []byte(failure.URL),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}
