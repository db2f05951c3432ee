// Package chunk splits documents into bounded page-range chunks for
// independent extraction and merges the per-chunk results back into a
// single deduplicated item list.
package chunk

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/models"
)

// Page is one document page with its original page number. Selected pages
// are not necessarily contiguous, so the number travels with the text.
type Page struct {
	Number int
	Text   string
}

// SplitResult carries the chunks plus any pages dropped by the chunk cap.
type SplitResult struct {
	Chunks         []models.Chunk
	TruncatedPages []int
}

// Splitter cuts a page sequence into overlapping fixed-size chunks.
type Splitter struct {
	cfg    *config.ChunkConfig
	logger *zap.Logger // optional; when set, logs truncation
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithLogger sets a logger for truncation warnings.
func WithLogger(l *zap.Logger) SplitterOption {
	return func(s *Splitter) { s.logger = l }
}

// NewSplitter creates a splitter.
func NewSplitter(cfg *config.ChunkConfig, opts ...SplitterOption) *Splitter {
	s := &Splitter{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split cuts the pages into windows of PagesPerChunk pages where consecutive
// windows share OverlapPages pages. pageCount is the total page count of the
// source document, used for reporting only. When the window count would
// exceed MaxChunks, splitting stops and the uncovered pages are returned in
// TruncatedPages.
func (s *Splitter) Split(pages []Page, pageCount int) SplitResult {
	if len(pages) == 0 {
		return SplitResult{}
	}

	step := s.cfg.PagesPerChunk - s.cfg.OverlapPages
	if step <= 0 {
		step = 1
	}

	var chunks []models.Chunk
	covered := 0
	truncated := false
	for i := 0; i < len(pages); i += step {
		if len(chunks) == s.cfg.MaxChunks {
			truncated = true
			break
		}
		end := i + s.cfg.PagesPerChunk
		if end > len(pages) {
			end = len(pages)
		}
		window := pages[i:end]
		chunks = append(chunks, models.Chunk{
			StartPage: window[0].Number,
			EndPage:   window[len(window)-1].Number,
			Text:      renderPages(window),
		})
		covered = end
		if end >= len(pages) {
			break
		}
	}

	for i := range chunks {
		chunks[i].ChunkIndex = i
		chunks[i].TotalChunks = len(chunks)
		chunks[i].IsFirstChunk = i == 0
		chunks[i].IsLastChunk = i == len(chunks)-1
	}

	result := SplitResult{Chunks: chunks}
	if truncated {
		for _, p := range pages[covered:] {
			result.TruncatedPages = append(result.TruncatedPages, p.Number)
		}
		if s.logger != nil {
			s.logger.Warn("chunk cap reached, dropping pages",
				zap.Int("max_chunks", s.cfg.MaxChunks),
				zap.Int("document_pages", pageCount),
				zap.Int("dropped_pages", len(result.TruncatedPages)))
		}
	}
	return result
}

// renderPages joins page texts under page-number markers so the extractor
// can attribute items to their source page.
func renderPages(pages []Page) string {
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "=== PAGE %d ===\n", p.Number)
		b.WriteString(p.Text)
	}
	return b.String()
}
