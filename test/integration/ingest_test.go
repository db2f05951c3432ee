// Package integration wires the full ingest stack (real catalog, real result
// store, mock extraction) against an XLSX take-off workbook.
package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/norsteel/takeoff/internal/catalog"
	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/document"
	"github.com/norsteel/takeoff/internal/export"
	"github.com/norsteel/takeoff/internal/extraction"
	"github.com/norsteel/takeoff/internal/models"
	"github.com/norsteel/takeoff/internal/pipeline"
	"github.com/norsteel/takeoff/internal/store"
)

// takeoffWorkbook builds an XLSX with an admin sheet and a take-off sheet.
func takeoffWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Cover"); err != nil {
		t.Fatal(err)
	}
	coverRows := [][]interface{}{
		{"TABLE OF CONTENTS"},
		{"1. Scope"},
		{"2. Material Take Off"},
	}
	for i, row := range coverRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Cover", cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := f.NewSheet("MTO"); err != nil {
		t.Fatal(err)
	}
	mtoRows := [][]interface{}{
		{"MATERIAL TAKE OFF", "", "SHEET 2"},
		{"10", `| PIPE 6" SCH40 ASTM A106 GR.B SEAMLESS`, "| 25", "| M"},
		{"20", `| PIPE 2" SCH80 ASTM A106 GR.B SEAMLESS`, "| 12", "| M"},
		{"10", `| PIPE 6" SCH40 ASTM A106 GR.B SEAMLESS`, "| 25", "| M"},
	}
	for i, row := range mtoRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("MTO", cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestIntegration_IngestAndExport(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Extraction.UseMock = true
	cfg.Storage.DatabasePath = filepath.Join(dir, "results.db")
	cfg.Catalog.DatabasePath = filepath.Join(dir, "catalog.db")
	cfg.Catalog.BleveIndexPath = filepath.Join(dir, "catalog.bleve")
	cfg.Export.OutputDir = filepath.Join(dir, "exports")

	cat, err := catalog.NewSQLiteStore(&cfg.Catalog)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()

	st, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	ctx := context.Background()
	mats := []models.Material{
		{
			ID: "m1", Code: "P-6-40", Category: models.CategoryPipe,
			Description:  `PIPE 6" SCH40 ASTM A106 GR.B SEAMLESS`,
			NPSInch:      models.FloatPtr(6),
			Schedule:     models.StrPtr("40"),
			SpecStandard: models.StrPtr("A106"),
			Grade:        models.StrPtr("GR.B"),
			Form:         models.StrPtr("seamless"),
		},
		{
			ID: "m2", Code: "P-2-80", Category: models.CategoryPipe,
			Description:  `PIPE 2" SCH80 ASTM A106 GR.B SEAMLESS`,
			NPSInch:      models.FloatPtr(2),
			Schedule:     models.StrPtr("80"),
			SpecStandard: models.StrPtr("A106"),
			Grade:        models.StrPtr("GR.B"),
			Form:         models.StrPtr("seamless"),
		},
	}
	if err := cat.BatchUpsertMaterials(ctx, mats); err != nil {
		t.Fatal(err)
	}

	p := pipeline.New(cfg, pipeline.Deps{
		Source:    document.NewFileSource(),
		Extractor: extraction.New(&cfg.Extraction),
		Catalog:   cat,
		Store:     st,
	})

	summary, err := p.Ingest(ctx, "enquiry.xlsx", takeoffWorkbook(t))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Document.Status != models.StatusCompleted {
		t.Fatalf("status = %q, want completed (error: %s)", summary.Document.Status, summary.Document.Error)
	}
	// Line 10 appears twice in the workbook; the merge deduplicates it.
	if len(summary.Items) != 2 {
		t.Fatalf("got %d items, want 2 after dedup: %+v", len(summary.Items), summary.Items)
	}
	if summary.Document.DeduplicatedCount != 1 {
		t.Errorf("deduplicated count = %d, want 1", summary.Document.DeduplicatedCount)
	}
	for _, mi := range summary.Items {
		if mi.Outcome.Decision != models.DecisionAuto {
			t.Errorf("item %q decision = %q, want auto", mi.Item.Description, mi.Outcome.Decision)
		}
		if !strings.HasPrefix(mi.Outcome.Selected.MaterialCode, "P-") {
			t.Errorf("selected code = %q", mi.Outcome.Selected.MaterialCode)
		}
	}

	// Results must round-trip through the store.
	items, err := st.GetItems(ctx, summary.Document.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("persisted %d items, want 2", len(items))
	}

	// And export to a workbook readable by excelize.
	path, err := export.NewExporter(&cfg.Export).Save(&summary.Document, items)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen export: %v", err)
	}
	defer out.Close()
	rows, err := out.GetRows("Line Items")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("export has %d rows, want 3 (header + 2 items)", len(rows))
	}
}
