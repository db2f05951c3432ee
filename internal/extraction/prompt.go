package extraction

import (
	"fmt"
	"strings"

	"github.com/norsteel/takeoff/internal/models"
)

// ItemExtractionPrompt instructs the model to pull trading line items out of
// a document section. The field names mirror the wire schema exactly.
const ItemExtractionPrompt = `Extract every material line item from the following trading document section (RFQ, MTO, or take-off list). Return a JSON array of item objects. Each object has these fields:

- "line_number": the item/position number as printed (string or null)
- "description": full material description as printed (string, required)
- "quantity": ordered quantity as a number (number or null)
- "unit": unit of measure as printed, e.g. "EA", "M", "KG" (string or null)
- "size1": primary size designation, e.g. "6\"", "DN150", "200" (string or null)
- "size2": secondary size for reducers, pairs, e.g. "4\"" (string or null)
- "schedule": pipe schedule or wall class, e.g. "40", "XS" (string or null)
- "standard": material standard, e.g. "ASTM A106", "EN 10025" (string or null)
- "grade": material grade, e.g. "B", "X52", "S355JR" (string or null)
- "notes": remarks printed against the item (string or null)
- "total_length_m": total length in metres when printed separately from quantity (number or null)

Rules:
- Extract EVERY line item in the section. Missing an item is worse than an imperfect field.
- Copy values as printed. Never invent, convert, or infer a value that is not there.
- Use null for anything the document does not state. Do not guess units.
- Quantity is the count or amount ordered, NOT a line total price.
- Page markers like "=== PAGE 7 ===" delimit pages; items can span a page break.
- Ignore headers, footers, revision tables, and commercial terms.
- Return an empty array [] if the section has no line items.

Respond with ONLY the JSON array, no other text.`

// BuildChunkPrompt assembles the full prompt for one chunk, including its
// position so the model knows edges may be cut mid-table.
func BuildChunkPrompt(chunk models.Chunk) string {
	var sb strings.Builder
	sb.WriteString(ItemExtractionPrompt)
	sb.WriteString("\n\n---\n")
	fmt.Fprintf(&sb, "Section %d of %d, pages %d-%d.\n", chunk.ChunkIndex+1, chunk.TotalChunks, chunk.StartPage, chunk.EndPage)
	if !chunk.IsFirstChunk {
		sb.WriteString("The first page repeats the end of the previous section.\n")
	}
	if !chunk.IsLastChunk {
		sb.WriteString("The last page repeats at the start of the next section.\n")
	}
	sb.WriteString("---\n")
	sb.WriteString(chunk.Text)
	return sb.String()
}
