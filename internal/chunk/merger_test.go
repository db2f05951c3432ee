package chunk

import (
	"reflect"
	"strings"
	"testing"

	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/models"
)

func testMerger() *Merger {
	cfg := config.DefaultConfig()
	return NewMerger(&cfg.Chunk)
}

func pipeItem(line, size, sched string, qty float64) models.ExtractedLineItem {
	return models.ExtractedLineItem{
		LineNumber:  models.StrPtr(line),
		Description: "PIPE SMLS ASTM A106 GR.B",
		Quantity:    models.FloatPtr(qty),
		Size1:       models.StrPtr(size),
		Schedule:    models.StrPtr(sched),
	}
}

func resultWith(chunkIndex int, items ...models.ExtractedLineItem) models.ChunkResult {
	return models.ChunkResult{ChunkIndex: chunkIndex, Items: items}
}

func TestMergeAdjacentDuplicates(t *testing.T) {
	m := testMerger()

	results := []models.ChunkResult{
		resultWith(0, pipeItem("10", `6"`, "40", 25)),
		resultWith(1, pipeItem("10", `6"`, "40", 25)),
	}

	got := m.Merge(results, nil)
	if len(got.LineItems) != 1 {
		t.Fatalf("got %d items, want 1 after dedup", len(got.LineItems))
	}
	item := got.LineItems[0]
	if !reflect.DeepEqual(item.SourceChunks, []int{0, 1}) {
		t.Errorf("source chunks = %v, want [0 1]", item.SourceChunks)
	}
	if item.InferredType != models.CategoryPipe {
		t.Errorf("inferred type = %q, want pipe", item.InferredType)
	}
	if got.DeduplicatedCount != 1 {
		t.Errorf("deduplicated = %d, want 1", got.DeduplicatedCount)
	}
}

func TestMergeDistantRepeatsStayDistinct(t *testing.T) {
	m := testMerger()

	results := []models.ChunkResult{
		resultWith(0, pipeItem("10", `6"`, "40", 25)),
		resultWith(5, pipeItem("10", `6"`, "40", 25)),
	}

	got := m.Merge(results, nil)
	if len(got.LineItems) != 2 {
		t.Fatalf("got %d items, want 2: chunks 0 and 5 are not adjacent", len(got.LineItems))
	}
	if got.DeduplicatedCount != 0 {
		t.Errorf("deduplicated = %d, want 0", got.DeduplicatedCount)
	}
	if !reflect.DeepEqual(got.LineItems[0].SourceChunks, []int{0}) ||
		!reflect.DeepEqual(got.LineItems[1].SourceChunks, []int{5}) {
		t.Errorf("source chunks = %v / %v, want [0] / [5]",
			got.LineItems[0].SourceChunks, got.LineItems[1].SourceChunks)
	}
}

func TestMergeFillsMissingFields(t *testing.T) {
	m := testMerger()

	first := pipeItem("20", `2"`, "80", 10)
	first.Notes = models.StrPtr("heat 123")

	second := pipeItem("20", `2"`, "80", 10)
	second.Unit = models.StrPtr("EA")
	second.Grade = models.StrPtr("B")
	second.Notes = models.StrPtr("mill cert")

	got := m.Merge([]models.ChunkResult{resultWith(0, first), resultWith(1, second)}, nil)
	if len(got.LineItems) != 1 {
		t.Fatalf("got %d items, want 1", len(got.LineItems))
	}
	item := got.LineItems[0]
	if models.StrVal(item.Unit) != "EA" {
		t.Errorf("unit = %q, want filled from second chunk", models.StrVal(item.Unit))
	}
	if models.StrVal(item.Grade) != "B" {
		t.Errorf("grade = %q, want B", models.StrVal(item.Grade))
	}
	if models.StrVal(item.Notes) != "heat 123; mill cert" {
		t.Errorf("notes = %q, want concatenated", models.StrVal(item.Notes))
	}
	if len(item.Warnings) != 0 {
		t.Errorf("warnings = %v, want none for an agreeing merge", item.Warnings)
	}
}

func TestMergeQuantityDisagreement(t *testing.T) {
	m := testMerger()

	t.Run("length first", func(t *testing.T) {
		first := pipeItem("30", `4"`, "40", 150.75)
		second := pipeItem("30", `4"`, "40", 25)

		got := m.Merge([]models.ChunkResult{resultWith(0, first), resultWith(1, second)}, nil)
		if len(got.LineItems) != 1 {
			t.Fatalf("got %d items, want 1", len(got.LineItems))
		}
		item := got.LineItems[0]
		if models.FloatVal(item.Quantity) != 25 {
			t.Errorf("quantity = %g, want count 25", models.FloatVal(item.Quantity))
		}
		if models.FloatVal(item.TotalLengthM) != 150.75 {
			t.Errorf("total length = %g, want 150.75", models.FloatVal(item.TotalLengthM))
		}
		if len(item.Warnings) == 0 {
			t.Error("correction must record a warning")
		}
	})

	t.Run("length second", func(t *testing.T) {
		first := pipeItem("30", `4"`, "40", 25)
		second := pipeItem("30", `4"`, "40", 150.75)

		got := m.Merge([]models.ChunkResult{resultWith(0, first), resultWith(1, second)}, nil)
		item := got.LineItems[0]
		if models.FloatVal(item.Quantity) != 25 {
			t.Errorf("quantity = %g, want count 25", models.FloatVal(item.Quantity))
		}
		if models.FloatVal(item.TotalLengthM) != 150.75 {
			t.Errorf("total length = %g, want 150.75", models.FloatVal(item.TotalLengthM))
		}
	})

	t.Run("both counts", func(t *testing.T) {
		first := pipeItem("30", `4"`, "40", 25)
		second := pipeItem("30", `4"`, "40", 26)

		got := m.Merge([]models.ChunkResult{resultWith(0, first), resultWith(1, second)}, nil)
		item := got.LineItems[0]
		if models.FloatVal(item.Quantity) != 25 {
			t.Errorf("quantity = %g, want first value kept", models.FloatVal(item.Quantity))
		}
		if len(item.Warnings) == 0 {
			t.Error("disagreement must record a warning")
		}
	})
}

func TestMergeRescuesPieceCountFromNotes(t *testing.T) {
	m := testMerger()

	item := models.ExtractedLineItem{
		Description: `PIPE 6" SCH40 ASTM A106 GR.B`,
		Quantity:    models.FloatPtr(428.91),
		Unit:        models.StrPtr("M"),
		Notes:       models.StrPtr("36 pcs"),
	}

	got := m.Merge([]models.ChunkResult{resultWith(0, item)}, nil)
	if len(got.LineItems) != 1 {
		t.Fatalf("got %d items, want 1", len(got.LineItems))
	}
	fixed := got.LineItems[0]
	if models.FloatVal(fixed.Quantity) != 36 {
		t.Errorf("quantity = %g, want piece count 36", models.FloatVal(fixed.Quantity))
	}
	if models.FloatVal(fixed.TotalLengthM) != 428.91 {
		t.Errorf("total length = %g, want original 428.91", models.FloatVal(fixed.TotalLengthM))
	}
	if len(fixed.Warnings) == 0 {
		t.Error("rescue must record the original value in a warning")
	}
}

func TestMergeSuspiciousQuantityWithoutRescue(t *testing.T) {
	m := testMerger()

	item := pipeItem("40", `3"`, "40", 12000)
	got := m.Merge([]models.ChunkResult{resultWith(0, item)}, nil)

	fixed := got.LineItems[0]
	if models.FloatVal(fixed.Quantity) != 12000 {
		t.Errorf("quantity = %g, want original kept when nothing can correct it", models.FloatVal(fixed.Quantity))
	}
	if len(fixed.Warnings) != 1 || !strings.Contains(fixed.Warnings[0], "looks like a length") {
		t.Errorf("warnings = %v, want a single suspicion warning", fixed.Warnings)
	}
}

func TestMergeSingleChunkPassthrough(t *testing.T) {
	m := testMerger()

	items := []models.ExtractedLineItem{
		pipeItem("10", `6"`, "40", 25),
		pipeItem("20", `2"`, "80", 4),
	}

	got := m.Merge([]models.ChunkResult{resultWith(0, items...)}, nil)
	if len(got.LineItems) != len(items) {
		t.Fatalf("got %d items, want %d", len(got.LineItems), len(items))
	}
	for i, item := range got.LineItems {
		if !reflect.DeepEqual(item.ExtractedLineItem, items[i]) {
			t.Errorf("item %d changed during single-chunk merge:\ngot  %+v\nwant %+v", i, item.ExtractedLineItem, items[i])
		}
		if len(item.Warnings) != 0 {
			t.Errorf("item %d warnings = %v, want none", i, item.Warnings)
		}
	}
	if got.DeduplicatedCount != 0 {
		t.Errorf("deduplicated = %d, want 0", got.DeduplicatedCount)
	}
}

func TestMergeRecordsFailedChunks(t *testing.T) {
	m := testMerger()

	chunks := []models.Chunk{
		{ChunkIndex: 0, StartPage: 1, EndPage: 4},
		{ChunkIndex: 1, StartPage: 4, EndPage: 7},
	}
	results := []models.ChunkResult{
		resultWith(0, pipeItem("10", `6"`, "40", 25)),
		{ChunkIndex: 1, Error: "extraction timeout"},
	}

	got := m.Merge(results, chunks)
	if len(got.LineItems) != 1 {
		t.Errorf("got %d items, want 1 from the surviving chunk", len(got.LineItems))
	}
	if len(got.FailedChunks) != 1 {
		t.Fatalf("failed chunks = %d, want 1", len(got.FailedChunks))
	}
	fc := got.FailedChunks[0]
	if fc.ChunkIndex != 1 || fc.StartPage != 4 || fc.EndPage != 7 {
		t.Errorf("failed chunk = %+v, want index 1 pages 4-7", fc)
	}
	if fc.Error != "extraction timeout" {
		t.Errorf("error = %q", fc.Error)
	}
}

func TestMergeHashKeyWhenNoDimension(t *testing.T) {
	m := testMerger()

	a := models.ExtractedLineItem{Description: "GASKET SPIRAL WOUND 150LB", Quantity: models.FloatPtr(8)}
	b := models.ExtractedLineItem{Description: "gasket  spiral wound 150lb", Quantity: models.FloatPtr(8)}
	c := models.ExtractedLineItem{Description: "GASKET RING JOINT", Quantity: models.FloatPtr(2)}

	got := m.Merge([]models.ChunkResult{resultWith(0, a, c), resultWith(1, b)}, nil)
	if len(got.LineItems) != 2 {
		t.Fatalf("got %d items, want 2: case and spacing must not split keys", len(got.LineItems))
	}
	if got.DeduplicatedCount != 1 {
		t.Errorf("deduplicated = %d, want 1", got.DeduplicatedCount)
	}
}

func TestSplitRuns(t *testing.T) {
	obs := []observation{
		{chunk: 0}, {chunk: 1}, {chunk: 2}, {chunk: 5}, {chunk: 6}, {chunk: 9},
	}
	runs := splitRuns(obs)
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	wantLens := []int{3, 2, 1}
	for i, run := range runs {
		if len(run) != wantLens[i] {
			t.Errorf("run %d has %d observations, want %d", i, len(run), wantLens[i])
		}
	}
}

func TestNormalizeDimension(t *testing.T) {
	tests := []struct {
		name string
		item models.ExtractedLineItem
		want string
	}{
		{"size and schedule", models.ExtractedLineItem{Size1: models.StrPtr(`6"`), Schedule: models.StrPtr("SCH 40")}, "6XSCH40"},
		{"pair", models.ExtractedLineItem{Size1: models.StrPtr("25.4"), Size2: models.StrPtr("2.11")}, "254X211"},
		{"nothing", models.ExtractedLineItem{Description: "GASKET"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeDimension(&tt.item); got != tt.want {
				t.Errorf("normalizeDimension = %q, want %q", got, tt.want)
			}
		})
	}
}
