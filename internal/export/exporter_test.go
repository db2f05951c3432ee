package export

import (
	"os"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/models"
)

func TestExporterSave(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(&config.ExportConfig{OutputDir: dir})

	doc := &models.Document{ID: "doc1", Filename: "mto.pdf", Status: models.StatusCompleted}
	items := []models.MatchedItem{
		{
			Item: models.MergedLineItem{
				ExtractedLineItem: models.ExtractedLineItem{
					LineNumber:   models.StrPtr("10"),
					Description:  `PIPE 6" SCH40 ASTM A106 GR.B`,
					Quantity:     models.FloatPtr(36),
					Unit:         models.StrPtr("PCS"),
					TotalLengthM: models.FloatPtr(428.91),
				},
				InferredType: models.CategoryPipe,
				SourceChunks: []int{0, 1},
				Warnings:     []string{"quantity looked like a length"},
			},
			Outcome: models.MatchOutcome{
				Decision: models.DecisionAuto,
				Selected: &models.MatchCandidate{MaterialID: "m1", MaterialCode: "P-6-40", Score: 95, Reason: "exact NPS 6"},
				Candidates: []models.MatchCandidate{
					{MaterialID: "m1", MaterialCode: "P-6-40", Score: 95, Reason: "exact NPS 6"},
					{MaterialID: "m2", MaterialCode: "P-6-80", Score: 60, Reason: "NPS only"},
				},
			},
		},
		{
			Item: models.MergedLineItem{
				ExtractedLineItem: models.ExtractedLineItem{Description: "GASKET SPIRAL WOUND 150#"},
			},
			Outcome: models.MatchOutcome{Decision: models.DecisionNone},
		},
	}

	path, err := e.Save(doc, items)
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("workbook not written: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(itemsSheet)
	if err != nil {
		t.Fatalf("read %s: %v", itemsSheet, err)
	}
	if len(rows) != 3 {
		t.Fatalf("items sheet has %d rows, want 3 (header + 2 items)", len(rows))
	}
	if rows[0][0] != "Line No" || rows[0][1] != "Description" {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[1][1] != `PIPE 6" SCH40 ASTM A106 GR.B` {
		t.Errorf("item description = %q", rows[1][1])
	}

	matches, err := f.GetRows(matchesSheet)
	if err != nil {
		t.Fatalf("read %s: %v", matchesSheet, err)
	}
	if len(matches) != 3 {
		t.Fatalf("matches sheet has %d rows, want 3", len(matches))
	}
	if matches[1][2] != models.DecisionAuto {
		t.Errorf("decision = %q, want %q", matches[1][2], models.DecisionAuto)
	}
	if matches[1][3] != "P-6-40" {
		t.Errorf("material code = %q, want P-6-40", matches[1][3])
	}
	if matches[2][2] != models.DecisionNone {
		t.Errorf("no-match decision = %q, want %q", matches[2][2], models.DecisionNone)
	}
}
