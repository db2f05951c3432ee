package models

// ExtractedLineItem is one line item as returned by the external extractor
// for a single chunk. Every field except Description is optional; absence is
// explicit (nil pointer), never an empty-string guess.
type ExtractedLineItem struct {
	LineNumber   *string  `json:"line_number,omitempty"`
	Description  string   `json:"description"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Unit         *string  `json:"unit,omitempty"`
	Size1        *string  `json:"size1,omitempty"`
	Size2        *string  `json:"size2,omitempty"`
	Schedule     *string  `json:"schedule,omitempty"`
	Standard     *string  `json:"standard,omitempty"`
	Grade        *string  `json:"grade,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
	TotalLengthM *float64 `json:"total_length_m,omitempty"`
}

// MergedLineItem is the deduplicated union of extracted items across chunks
// for one document. Created during merge, mutated by the quantity validator,
// then handed immutably to matching.
type MergedLineItem struct {
	ExtractedLineItem

	// InferredType is the item category guessed from the description
	// (pipe, beam, tubular, plate, flange, fitting, ...). Empty when nothing matched.
	InferredType string `json:"inferred_type,omitempty"`
	// SourceChunks lists the chunk indices that contributed observations.
	SourceChunks []int `json:"source_chunks"`
	// Warnings records data-quality issues found during merge and quantity
	// validation, each preserving the original value it replaced.
	Warnings []string `json:"warnings,omitempty"`
}

// StrPtr returns a pointer to s. Convenience for building optional fields.
func StrPtr(s string) *string { return &s }

// FloatPtr returns a pointer to f. Convenience for building optional fields.
func FloatPtr(f float64) *float64 { return &f }

// StrVal returns the value of p or "" when nil.
func StrVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// FloatVal returns the value of p or 0 when nil.
func FloatVal(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
