// Package models defines core data structures for documents, line items,
// materials, and match results.
package models

import "time"

// Document statuses, in lifecycle order.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Document represents one ingested trading document (RFQ, MTO) and the
// summary of its processing run.
type Document struct {
	ID                string    `json:"id" db:"id"`
	Filename          string    `json:"filename" db:"filename"`
	PageCount         int       `json:"page_count" db:"page_count"`
	SelectedPages     int       `json:"selected_pages" db:"selected_pages"`
	ChunkCount        int       `json:"chunk_count" db:"chunk_count"`
	FailedChunks      int       `json:"failed_chunks" db:"failed_chunks"`
	ItemCount         int       `json:"item_count" db:"item_count"`
	DeduplicatedCount int       `json:"deduplicated_count" db:"deduplicated_count"`
	Status            string    `json:"status" db:"status"`
	Error             string    `json:"error,omitempty" db:"error"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// PageScore is the relevance score of a single page with the signals that
// produced it. Ephemeral, consumed immediately to build a page selection.
type PageScore struct {
	PageNumber int                `json:"page_number"`
	Score      float64            `json:"score"`
	Reasons    []string           `json:"reasons"`
	Signals    map[string]float64 `json:"signals"`
}

// PageSelection is the subset of pages handed to downstream extraction.
type PageSelection struct {
	SelectedPages    []int       `json:"selected_pages"`
	Scores           []PageScore `json:"scores"`
	CompressionRatio float64     `json:"compression_ratio"`
}

// Chunk is a bounded page-range slice of a document sent to extraction
// independently. Consecutive chunks share exactly the configured overlap.
type Chunk struct {
	ChunkIndex   int    `json:"chunk_index"`
	TotalChunks  int    `json:"total_chunks"`
	StartPage    int    `json:"start_page"`
	EndPage      int    `json:"end_page"`
	Text         string `json:"text"`
	IsFirstChunk bool   `json:"is_first_chunk"`
	IsLastChunk  bool   `json:"is_last_chunk"`
}

// ChunkResult is the outcome of extracting one chunk: either items or an error.
type ChunkResult struct {
	ChunkIndex int                 `json:"chunk_index"`
	Items      []ExtractedLineItem `json:"items"`
	Warnings   []string            `json:"warnings,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Failed reports whether the chunk's extraction call errored.
func (r *ChunkResult) Failed() bool {
	return r.Error != ""
}

// FailedChunk records one chunk whose external extraction call failed.
// Surfaced in merge metadata, never silently absorbed.
type FailedChunk struct {
	ChunkIndex int    `json:"chunk_index"`
	StartPage  int    `json:"start_page"`
	EndPage    int    `json:"end_page"`
	Error      string `json:"error"`
}
