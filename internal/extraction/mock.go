package extraction

import (
	"context"
	"strconv"
	"strings"

	"github.com/norsteel/takeoff/internal/models"
)

// Mock is a deterministic offline extractor for tests and dry runs. It reads
// pipe-separated table rows from the chunk text:
//
//	10 | PIPE 6" SCH40 ASTM A106 GR.B | 25 | M
//
// with optional size1 and schedule columns after the unit. Page markers and
// anything else that is not a row are ignored.
type Mock struct{}

// NewMock creates the offline extractor.
func NewMock() *Mock {
	return &Mock{}
}

// ExtractChunk parses table rows from the chunk text. It never fails.
func (m *Mock) ExtractChunk(_ context.Context, chunk models.Chunk) ([]models.ExtractedLineItem, error) {
	var items []models.ExtractedLineItem
	for _, line := range strings.Split(chunk.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "=== PAGE") {
			continue
		}
		cols := strings.Split(line, "|")
		if len(cols) < 2 {
			continue
		}
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		if cols[1] == "" {
			continue
		}

		item := models.ExtractedLineItem{Description: cols[1]}
		if cols[0] != "" {
			item.LineNumber = models.StrPtr(cols[0])
		}
		if len(cols) > 2 && cols[2] != "" {
			if q, err := strconv.ParseFloat(cols[2], 64); err == nil {
				item.Quantity = models.FloatPtr(q)
			}
		}
		if len(cols) > 3 && cols[3] != "" {
			item.Unit = models.StrPtr(cols[3])
		}
		if len(cols) > 4 && cols[4] != "" {
			item.Size1 = models.StrPtr(cols[4])
		}
		if len(cols) > 5 && cols[5] != "" {
			item.Schedule = models.StrPtr(cols[5])
		}
		items = append(items, item)
	}
	return items, nil
}
