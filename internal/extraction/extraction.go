// Package extraction turns document chunks into structured line items by
// calling an external model endpoint. The call is a black box to the rest
// of the pipeline: items or an error, nothing else escapes.
package extraction

import (
	"context"

	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/models"
)

// Extractor extracts line items from one chunk. An error marks the chunk
// failed; it never aborts the document.
type Extractor interface {
	ExtractChunk(ctx context.Context, chunk models.Chunk) ([]models.ExtractedLineItem, error)
}

// New returns the configured extractor: the deterministic mock when UseMock
// is set, otherwise the HTTP client.
func New(cfg *config.ExtractionConfig, opts ...ClientOption) Extractor {
	if cfg.UseMock {
		return NewMock()
	}
	return NewHTTPClient(cfg, opts...)
}
