// Package export writes ingestion results to XLSX workbooks: one sheet of
// merged line items, one sheet of match decisions.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/models"
)

const (
	itemsSheet   = "Line Items"
	matchesSheet = "Matches"
)

var itemHeaders = []string{
	"Line No", "Description", "Qty", "Unit", "Size 1", "Size 2", "Schedule",
	"Standard", "Grade", "Total Length (m)", "Notes", "Warnings", "Source Chunks",
}

var matchHeaders = []string{
	"Line No", "Description", "Decision", "Material Code", "Score", "Reason", "Other Candidates",
}

// Exporter writes result workbooks to the configured output directory.
type Exporter struct {
	cfg *config.ExportConfig
}

// NewExporter creates an exporter.
func NewExporter(cfg *config.ExportConfig) *Exporter {
	return &Exporter{cfg: cfg}
}

// Workbook builds the result workbook for one document. The caller owns the
// returned file and must Close it.
func (e *Exporter) Workbook(doc *models.Document, items []models.MatchedItem) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", itemsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(matchesSheet); err != nil {
		return nil, fmt.Errorf("create matches sheet: %w", err)
	}

	if err := writeRow(f, itemsSheet, 1, headerCells(itemHeaders)); err != nil {
		return nil, err
	}
	if err := writeRow(f, matchesSheet, 1, headerCells(matchHeaders)); err != nil {
		return nil, err
	}

	for i := range items {
		row := i + 2
		if err := writeRow(f, itemsSheet, row, itemCells(&items[i].Item)); err != nil {
			return nil, err
		}
		if err := writeRow(f, matchesSheet, row, matchCells(&items[i])); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Save writes the workbook for doc into the output directory and returns the
// written path.
func (e *Exporter) Save(doc *models.Document, items []models.MatchedItem) (string, error) {
	f, err := e.Workbook(doc, items)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := os.MkdirAll(e.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(e.cfg.OutputDir, doc.ID+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func headerCells(headers []string) []any {
	cells := make([]any, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	return cells
}

func itemCells(item *models.MergedLineItem) []any {
	chunks := make([]string, len(item.SourceChunks))
	for i, c := range item.SourceChunks {
		chunks[i] = fmt.Sprintf("%d", c)
	}
	return []any{
		models.StrVal(item.LineNumber),
		item.Description,
		optionalFloat(item.Quantity),
		models.StrVal(item.Unit),
		models.StrVal(item.Size1),
		models.StrVal(item.Size2),
		models.StrVal(item.Schedule),
		models.StrVal(item.Standard),
		models.StrVal(item.Grade),
		optionalFloat(item.TotalLengthM),
		models.StrVal(item.Notes),
		strings.Join(item.Warnings, "; "),
		strings.Join(chunks, ","),
	}
}

func matchCells(mi *models.MatchedItem) []any {
	var code string
	var score any
	var reason string
	if mi.Outcome.Selected != nil {
		code = mi.Outcome.Selected.MaterialCode
		score = mi.Outcome.Selected.Score
		reason = mi.Outcome.Selected.Reason
	} else if len(mi.Outcome.Candidates) > 0 {
		top := mi.Outcome.Candidates[0]
		code = top.MaterialCode
		score = top.Score
		reason = top.Reason
	}

	var others []string
	for i, c := range mi.Outcome.Candidates {
		if i == 0 {
			continue
		}
		others = append(others, fmt.Sprintf("%s (%.0f)", c.MaterialCode, c.Score))
	}
	return []any{
		models.StrVal(mi.Item.LineNumber),
		mi.Item.Description,
		mi.Outcome.Decision,
		code,
		score,
		reason,
		strings.Join(others, ", "),
	}
}

// optionalFloat keeps absent values as blank cells instead of zeros.
func optionalFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func writeRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d on %s: %w", row, sheet, err)
	}
	return nil
}
