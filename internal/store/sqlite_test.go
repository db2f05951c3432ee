package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/norsteel/takeoff/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_DocumentCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := &models.Document{
		ID:       "doc1",
		Filename: "takeoff.pdf",
		Status:   models.StatusProcessing,
	}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if doc.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := s.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Filename != "takeoff.pdf" || got.Status != models.StatusProcessing {
		t.Errorf("got %+v", got)
	}

	doc.Status = models.StatusCompleted
	doc.PageCount = 12
	doc.ItemCount = 34
	doc.FailedChunks = 1
	if err := s.UpdateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetDocument(ctx, "doc1")
	if got.Status != models.StatusCompleted || got.PageCount != 12 || got.ItemCount != 34 || got.FailedChunks != 1 {
		t.Errorf("update not persisted: %+v", got)
	}

	list, err := s.ListDocuments(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 document, got %d", len(list))
	}

	n, err := s.CountDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("CountDocuments = %d, want 1", n)
	}
}

func TestSQLiteStore_GetDocumentNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetDocument(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing document")
	}
}

func TestSQLiteStore_UpdateDocumentNotFound(t *testing.T) {
	s := newTestStore(t)
	doc := &models.Document{ID: "missing", Status: models.StatusCompleted}
	if err := s.UpdateDocument(context.Background(), doc); err == nil {
		t.Fatal("expected error for missing document")
	}
}

func TestSQLiteStore_ItemsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := &models.Document{ID: "doc1", Filename: "mto.xlsx", Status: models.StatusCompleted}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	items := []models.MatchedItem{
		{
			Item: models.MergedLineItem{
				ExtractedLineItem: models.ExtractedLineItem{
					LineNumber:  models.StrPtr("10"),
					Description: `PIPE 6" SCH40 ASTM A106 GR.B`,
					Quantity:    models.FloatPtr(25),
					Unit:        models.StrPtr("M"),
				},
				InferredType: models.CategoryPipe,
				SourceChunks: []int{0, 1},
				Warnings:     []string{"quantity 428.91 moved to total_length_m"},
			},
			Outcome: models.MatchOutcome{
				Decision: models.DecisionAuto,
				Selected: &models.MatchCandidate{MaterialID: "m1", MaterialCode: "P-6-40", Score: 95, Reason: "exact NPS"},
				Candidates: []models.MatchCandidate{
					{MaterialID: "m1", MaterialCode: "P-6-40", Score: 95, Reason: "exact NPS"},
				},
			},
		},
		{
			Item: models.MergedLineItem{
				ExtractedLineItem: models.ExtractedLineItem{Description: "GASKET SPIRAL WOUND"},
			},
			Outcome: models.MatchOutcome{Decision: models.DecisionNone},
		},
	}

	if err := s.ReplaceItems(ctx, "doc1", items); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetItems(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2", len(got))
	}
	first := got[0]
	if first.Item.Description != `PIPE 6" SCH40 ASTM A106 GR.B` {
		t.Errorf("description = %q", first.Item.Description)
	}
	if models.FloatVal(first.Item.Quantity) != 25 {
		t.Errorf("quantity = %v, want 25", first.Item.Quantity)
	}
	if len(first.Item.Warnings) != 1 {
		t.Errorf("warnings not preserved: %v", first.Item.Warnings)
	}
	if first.Outcome.Decision != models.DecisionAuto || first.Outcome.Selected == nil {
		t.Errorf("outcome not preserved: %+v", first.Outcome)
	}
	if got[1].Outcome.Decision != models.DecisionNone {
		t.Errorf("second outcome = %+v", got[1].Outcome)
	}

	// Replacing again must not duplicate.
	if err := s.ReplaceItems(ctx, "doc1", items[:1]); err != nil {
		t.Fatal(err)
	}
	n, err := s.CountItems(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("CountItems = %d after replace, want 1", n)
	}
}
