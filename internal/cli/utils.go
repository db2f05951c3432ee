// Package cli provides CLI output utilities for takeoff.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/norsteel/takeoff/internal/header"
	"github.com/norsteel/takeoff/internal/models"
	"github.com/norsteel/takeoff/internal/pipeline"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteSummary writes an ingest summary to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSummary(w io.Writer, summary *pipeline.Summary, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	default:
		writeSummaryText(w, summary)
		return nil
	}
}

func writeSummaryText(w io.Writer, summary *pipeline.Summary) {
	doc := summary.Document
	fmt.Fprintf(w, "\nDocument %s (%s): %s\n", doc.ID, doc.Filename, doc.Status)
	fmt.Fprintf(w, "Pages: %d total, %d selected (compression %.2f)\n",
		doc.PageCount, doc.SelectedPages, summary.Selection.CompressionRatio)
	fmt.Fprintf(w, "Chunks: %d, failed: %d, deduplicated items: %d\n",
		doc.ChunkCount, doc.FailedChunks, doc.DeduplicatedCount)
	if len(summary.TruncatedPages) > 0 {
		fmt.Fprintf(w, "Truncated pages: %v\n", summary.TruncatedPages)
	}
	for _, fc := range summary.FailedChunks {
		fmt.Fprintf(w, "  chunk %d (pages %d-%d) failed: %s\n",
			fc.ChunkIndex, fc.StartPage, fc.EndPage, fc.Error)
	}
	fmt.Fprintf(w, "\nLine items (%d):\n", len(summary.Items))
	for _, mi := range summary.Items {
		writeOneItem(w, &mi)
	}
}

func writeOneItem(w io.Writer, mi *models.MatchedItem) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	line := models.StrVal(mi.Item.LineNumber)
	if line == "" {
		line = "-"
	}
	fmt.Fprintf(w, "[%s] %s\n", line, Truncate(mi.Item.Description, 80))
	if mi.Item.Quantity != nil {
		fmt.Fprintf(w, "Qty: %.2f %s\n", *mi.Item.Quantity, models.StrVal(mi.Item.Unit))
	}
	if len(mi.Item.Warnings) > 0 {
		fmt.Fprintf(w, "Warnings: %s\n", strings.Join(mi.Item.Warnings, "; "))
	}
	writeOutcomeText(w, &mi.Outcome)
}

// WriteOutcome writes a single match outcome to w in the given format.
func WriteOutcome(w io.Writer, outcome *models.MatchOutcome, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	default:
		writeOutcomeText(w, outcome)
		return nil
	}
}

func writeOutcomeText(w io.Writer, outcome *models.MatchOutcome) {
	fmt.Fprintf(w, "Match: %s", outcome.Decision)
	if outcome.Selected != nil {
		fmt.Fprintf(w, " -> %s (score %.1f, %s)",
			outcome.Selected.MaterialCode, outcome.Selected.Score, outcome.Selected.Reason)
	}
	fmt.Fprintln(w)
	for _, c := range outcome.Candidates {
		fmt.Fprintf(w, "  candidate %s: %.1f (%s)\n", c.MaterialCode, c.Score, c.Reason)
	}
}

// WriteSelection writes a page selection with per-page score breakdowns.
func WriteSelection(w io.Writer, selection *models.PageSelection, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(selection)
	default:
		fmt.Fprintf(w, "\nSelected pages: %v (compression %.2f)\n\n",
			selection.SelectedPages, selection.CompressionRatio)
		for _, ps := range selection.Scores {
			fmt.Fprintf(w, "Page %d: %.1f\n", ps.PageNumber, ps.Score)
			for _, reason := range ps.Reasons {
				fmt.Fprintf(w, "  %s\n", reason)
			}
		}
		return nil
	}
}

// WriteReconstruction writes a header-row reconstruction with per-role
// column bindings and diagnostics.
func WriteReconstruction(w io.Writer, rec *header.Reconstruction, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	default:
		fmt.Fprintf(w, "Confidence: %.2f (resolved: %v)\n", rec.Confidence, rec.Resolved())
		for _, role := range []header.Role{header.RoleItem, header.RoleDescription, header.RoleQuantity, header.RoleUnit} {
			m, ok := rec.ColumnMap[role]
			if !ok {
				fmt.Fprintf(w, "  %-12s -\n", role)
				continue
			}
			fmt.Fprintf(w, "  %-12s column %d %q via %s (%.2f)\n",
				role, m.Column, m.Cell, m.Strategy, m.Score)
		}
		for _, d := range rec.Diagnostics {
			fmt.Fprintf(w, "  # %s\n", d)
		}
		return nil
	}
}

// WriteDocuments writes a document listing, one line per document in text mode.
func WriteDocuments(w io.Writer, docs []models.Document, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	default:
		fmt.Fprintf(w, "%-36s  %-10s  %5s  %5s  %s\n", "ID", "STATUS", "PAGES", "ITEMS", "FILENAME")
		for _, d := range docs {
			fmt.Fprintf(w, "%-36s  %-10s  %5d  %5d  %s\n",
				d.ID, d.Status, d.PageCount, d.ItemCount, d.Filename)
		}
		return nil
	}
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
