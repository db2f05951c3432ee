package extraction

import (
	"context"
	"testing"

	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/models"
)

func TestMockExtractChunk(t *testing.T) {
	text := `=== PAGE 3 ===
MTO sheet header prose

10 | PIPE 6" SCH40 ASTM A106 GR.B | 25 | M | 6" | 40
20 | GASKET SPIRAL WOUND 150LB | 8 | EA

=== PAGE 4 ===
not a table row
30 | | 1 | EA`

	mock := NewMock()
	items, err := mock.ExtractChunk(context.Background(), models.Chunk{Text: text})
	if err != nil {
		t.Fatalf("ExtractChunk: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	pipe := items[0]
	if models.StrVal(pipe.LineNumber) != "10" {
		t.Errorf("line number = %q", models.StrVal(pipe.LineNumber))
	}
	if pipe.Description != `PIPE 6" SCH40 ASTM A106 GR.B` {
		t.Errorf("description = %q", pipe.Description)
	}
	if models.FloatVal(pipe.Quantity) != 25 || models.StrVal(pipe.Unit) != "M" {
		t.Errorf("quantity/unit = %g/%q", models.FloatVal(pipe.Quantity), models.StrVal(pipe.Unit))
	}
	if models.StrVal(pipe.Size1) != `6"` || models.StrVal(pipe.Schedule) != "40" {
		t.Errorf("size/schedule = %q/%q", models.StrVal(pipe.Size1), models.StrVal(pipe.Schedule))
	}

	gasket := items[1]
	if gasket.Description != "GASKET SPIRAL WOUND 150LB" || models.FloatVal(gasket.Quantity) != 8 {
		t.Errorf("gasket = %+v", gasket)
	}
	if gasket.Size1 != nil || gasket.Schedule != nil {
		t.Errorf("gasket size fields = %v/%v, want nil", gasket.Size1, gasket.Schedule)
	}
}

func TestMockExtractChunkEmpty(t *testing.T) {
	items, err := NewMock().ExtractChunk(context.Background(), models.Chunk{Text: "prose only\nno rows here"})
	if err != nil {
		t.Fatalf("ExtractChunk: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}

func TestNewSelectsMock(t *testing.T) {
	if _, ok := New(&config.ExtractionConfig{UseMock: true}).(*Mock); !ok {
		t.Error("UseMock must select the mock extractor")
	}
	if _, ok := New(&config.ExtractionConfig{}).(*HTTPClient); !ok {
		t.Error("default must select the HTTP client")
	}
}
