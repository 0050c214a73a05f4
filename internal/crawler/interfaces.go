package crawler

//go:generate mockgen -destination=../../mocks/mock_message_reader.go -package=mocks crawl-frontier/internal/crawler MessageReader
//go:generate mockgen -destination=../../mocks/mock_message_writer.go -package=mocks crawl-frontier/internal/crawler MessageWriter
//go:generate mockgen -destination=../../mocks/mock_publisher.go -package=mocks crawl-frontier/internal/crawler Publisher

import (
	"context"

	"github.com/segmentio/kafka-go"

	"crawl-frontier/internal/extract"
	"crawl-frontier/internal/fetch"
	"crawl-frontier/internal/models"
)

// MessageReader abstracts kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageWriter abstracts kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Fetcher retrieves a URL. Failures are *fetch.FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Response, error)
}

// Extractor turns fetched bytes into text and links. Failures are *extract.ParseError.
type Extractor interface {
	Extract(baseURL string, body []byte, contentType string) (extract.Page, error)
}

// Publisher is the one-way sink for crawl output. Implemented by kafka.Producer and LogPublisher.
type Publisher interface {
	WritePage(ctx context.Context, page models.PageResult) error
	WriteEdges(ctx context.Context, from string, to []string) error
	WriteFailure(ctx context.Context, failure models.CrawlFailure) error
}
