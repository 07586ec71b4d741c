// Package ingestion defines the request/response types and Kafka event
// schemas used by the document ingestion pipeline.
package ingestion

import "time"

// IngestRequest is the JSON body accepted by the ingestion HTTP endpoint.
// DocID is caller-assigned and must be unique across the index.
type IngestRequest struct {
	DocID     int64  `json:"doc_id"`
	SourceRef string `json:"source_ref"`
	Text      string `json:"text"`
}

// IngestResponse is returned to the caller after a document is accepted.
type IngestResponse struct {
	DocID  int64  `json:"doc_id"`
	Status string `json:"status"`
}

// IngestEvent is the Kafka message payload handed to the indexer.
type IngestEvent struct {
	DocID      int64     `json:"doc_id"`
	SourceRef  string    `json:"source_ref"`
	Text       string    `json:"text"`
	IngestedAt time.Time `json:"ingested_at"`
}
