package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"crawl-frontier/internal/metrics"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one message payload.
type Handler func(ctx context.Context, payload []byte) error

// fetchRetryDelay spaces out reads after a broker error.
var fetchRetryDelay = 500 * time.Millisecond

// NewReader returns a consumer-group reader for topic.
func NewReader(broker, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: group,
	})
}

// Consume reads messages until ctx is cancelled and commits each one handle accepts.
// A rejected message is logged and left uncommitted. name labels the writer metrics.
func Consume(ctx context.Context, reader messageReader, name string, handle Handler, logger *zap.Logger) {
	logger = logger.With(zap.String("component", name))
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("fetch message failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		metrics.WriterMessages.WithLabelValues(name, "received").Inc()
		if err := handle(ctx, msg.Value); err != nil {
			metrics.WriterMessages.WithLabelValues(name, "failed").Inc()
			logger.Error("write failed",
				zap.String("key", string(msg.Key)),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}
		metrics.WriterMessages.WithLabelValues(name, "written").Inc()

		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Warn("commit failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}
