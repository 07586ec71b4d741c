// Package consumer reads ingest events from Kafka, tokenizes the document
// text, and writes it into the partitioned index via the engine.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shardex/shardex/internal/engine"
	"github.com/shardex/shardex/internal/ingestion"
	"github.com/shardex/shardex/internal/tokenizer"
	apperrors "github.com/shardex/shardex/pkg/errors"
	"github.com/shardex/shardex/pkg/kafka"
	"github.com/shardex/shardex/pkg/metrics"
)

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that tokenizes each ingest
// event and indexes it. Malformed events and duplicate documents are logged
// and committed rather than retried, since redelivery cannot fix either.
func HandleMessage(eng *engine.Engine, tok *tokenizer.Tokenizer, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		words := tok.Tokenize(event.Text)
		logger.Debug("processing ingest event",
			"doc_id", event.DocID,
			"words", len(words),
		)

		start := time.Now()
		err = eng.Index(ctx, engine.Document{
			ID:        event.DocID,
			SourceRef: event.SourceRef,
			Words:     words,
		})
		if err != nil {
			if errors.Is(err, apperrors.ErrDuplicateDocument) {
				logger.Warn("skipping already-indexed document", "doc_id", event.DocID)
				return nil
			}
			return fmt.Errorf("indexing document %d: %w", event.DocID, err)
		}

		if m != nil {
			m.DocsIndexedTotal.Inc()
			m.IndexLatency.Observe(time.Since(start).Seconds())
		}
		logger.Info("document indexed",
			"doc_id", event.DocID,
			"word_count", len(words),
		)
		return nil
	}
}
