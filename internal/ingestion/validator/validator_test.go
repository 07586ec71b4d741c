package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/shardex/shardex/internal/ingestion"
)

func TestValidRequest(t *testing.T) {
	req := &ingestion.IngestRequest{
		DocID:     1,
		SourceRef: "corpus/one.txt",
		Text:      "some document text",
	}
	if err := ValidateIngestRequest(req); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestEmptyTextAllowed(t *testing.T) {
	req := &ingestion.IngestRequest{DocID: 2}
	if err := ValidateIngestRequest(req); err != nil {
		t.Fatalf("empty text rejected: %v", err)
	}
}

func TestInvalidDocID(t *testing.T) {
	for _, id := range []int64{0, -1} {
		req := &ingestion.IngestRequest{DocID: id, Text: "x"}
		err := ValidateIngestRequest(req)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("doc_id %d accepted, want ValidationError", id)
		}
		if _, ok := verr.Fields["doc_id"]; !ok {
			t.Errorf("doc_id %d: missing field error, got %v", id, verr.Fields)
		}
	}
}

func TestOversizedFields(t *testing.T) {
	req := &ingestion.IngestRequest{
		DocID:     1,
		SourceRef: strings.Repeat("s", maxSourceRefLength+1),
		Text:      strings.Repeat("t", maxTextLength+1),
	}
	err := ValidateIngestRequest(req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatal("oversized request accepted")
	}
	for _, field := range []string{"source_ref", "text"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("missing %s in %v", field, verr.Fields)
		}
	}
}
