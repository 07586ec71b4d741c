// Package publisher hands accepted documents to Kafka for asynchronous
// indexing. Publishing is retried with backoff so transient broker outages
// do not drop documents.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shardex/shardex/internal/ingestion"
	"github.com/shardex/shardex/pkg/kafka"
	"github.com/shardex/shardex/pkg/resilience"
)

// Publisher produces ingest events for the indexer.
type Publisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// New creates a Publisher with the given Kafka producer.
func New(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Ingest publishes an IngestEvent keyed by doc_id so that events for the
// same document land on the same Kafka partition in order.
func (p *Publisher) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	event := kafka.Event{
		Key: strconv.FormatInt(req.DocID, 10),
		Value: ingestion.IngestEvent{
			DocID:      req.DocID,
			SourceRef:  req.SourceRef,
			Text:       req.Text,
			IngestedAt: time.Now().UTC(),
		},
	}

	err := resilience.Retry(ctx, "kafka-publish", resilience.RetryConfig{}, func() error {
		return p.producer.Publish(ctx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("publishing ingest event for doc %d: %w", req.DocID, err)
	}

	p.logger.Info("document accepted",
		"doc_id", req.DocID,
		"source_ref", req.SourceRef,
		"text_size", len(req.Text),
	)
	return &ingestion.IngestResponse{
		DocID:  req.DocID,
		Status: "PENDING",
	}, nil
}
