// Package validator provides input validation for ingestion requests. It
// enforces document ID and size constraints and returns per-field error
// details.
package validator

import (
	"fmt"
	"strings"

	"github.com/shardex/shardex/internal/ingestion"
)

const (
	maxSourceRefLength = 1024
	maxTextLength      = 1048576
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// ValidateIngestRequest checks that the document ID is positive and the
// text and source reference meet the size constraints. An empty text is
// allowed; such documents are indexed with zero words.
func ValidateIngestRequest(req *ingestion.IngestRequest) error {
	errs := make(map[string]string)

	if req.DocID < 1 {
		errs["doc_id"] = "doc_id must be a positive integer"
	}
	if len(req.Text) > maxTextLength {
		errs["text"] = fmt.Sprintf("text must be at most %d bytes", maxTextLength)
	}
	if len(req.SourceRef) > maxSourceRefLength {
		errs["source_ref"] = fmt.Sprintf("source_ref must be at most %d characters", maxSourceRefLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
