package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/match"
	"github.com/norsteel/takeoff/internal/models"
)

// MergeResult is the deduplicated union of all chunk results.
type MergeResult struct {
	LineItems         []models.MergedLineItem
	FailedChunks      []models.FailedChunk
	DeduplicatedCount int
}

// Merger combines per-chunk extraction results. Items that describe the same
// physical line are deduplicated only when they came from adjacent chunks;
// the same key reappearing far apart is treated as a genuine repeat.
type Merger struct {
	cfg *config.ChunkConfig
}

// NewMerger creates a merger.
func NewMerger(cfg *config.ChunkConfig) *Merger {
	return &Merger{cfg: cfg}
}

// observation is one extracted item tagged with its source chunk.
type observation struct {
	chunk int
	item  models.ExtractedLineItem
}

// Merge combines chunk results into a single item list. Failed chunks are
// recorded with their page ranges, never dropped silently. Items sharing a
// dedup key merge when their chunk indices differ by at most one; merged
// fields prefer the first non-empty observation. Quantity validation runs on
// every merged item, so a single-chunk document passes through unchanged
// apart from corrections it genuinely needs.
func (m *Merger) Merge(results []models.ChunkResult, chunks []models.Chunk) MergeResult {
	byIndex := make(map[int]models.Chunk, len(chunks))
	for _, c := range chunks {
		byIndex[c.ChunkIndex] = c
	}

	sorted := make([]models.ChunkResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ChunkIndex < sorted[j].ChunkIndex })

	var out MergeResult
	groups := make(map[string]int)
	var keyed [][]observation
	var order []string

	for _, r := range sorted {
		if r.Failed() {
			fc := models.FailedChunk{ChunkIndex: r.ChunkIndex, Error: r.Error}
			if c, ok := byIndex[r.ChunkIndex]; ok {
				fc.StartPage = c.StartPage
				fc.EndPage = c.EndPage
			}
			out.FailedChunks = append(out.FailedChunks, fc)
			continue
		}
		for _, item := range r.Items {
			key := m.dedupKey(&item)
			idx, ok := groups[key]
			if !ok {
				idx = len(keyed)
				groups[key] = idx
				keyed = append(keyed, nil)
				order = append(order, key)
			}
			keyed[idx] = append(keyed[idx], observation{chunk: r.ChunkIndex, item: item})
		}
	}

	for _, key := range order {
		for _, run := range splitRuns(keyed[groups[key]]) {
			merged := m.mergeRun(run)
			m.fixQuantity(&merged)
			out.LineItems = append(out.LineItems, merged)
			out.DeduplicatedCount += len(run) - 1
		}
	}
	return out
}

// splitRuns cuts a chunk-ordered observation list wherever consecutive
// chunk indices differ by more than one.
func splitRuns(obs []observation) [][]observation {
	var runs [][]observation
	start := 0
	for i := 1; i < len(obs); i++ {
		if obs[i].chunk-obs[i-1].chunk > 1 {
			runs = append(runs, obs[start:i])
			start = i
		}
	}
	return append(runs, obs[start:])
}

// mergeRun folds adjacent observations of the same item into one merged
// line item. The first observation seeds every field; later ones fill gaps.
func (m *Merger) mergeRun(run []observation) models.MergedLineItem {
	merged := models.MergedLineItem{
		ExtractedLineItem: run[0].item,
		InferredType:      match.InferCategory(&run[0].item),
		SourceChunks:      []int{run[0].chunk},
	}
	for _, o := range run[1:] {
		m.absorb(&merged, o)
		merged.SourceChunks = append(merged.SourceChunks, o.chunk)
	}
	return merged
}

// absorb merges one later observation into the accumulated item. Pointers
// from the source are only copied, never written through.
func (m *Merger) absorb(dst *models.MergedLineItem, o observation) {
	src := o.item

	if dst.Description == "" {
		dst.Description = src.Description
	}
	fillStr(&dst.LineNumber, src.LineNumber)
	fillStr(&dst.Unit, src.Unit)
	fillStr(&dst.Size1, src.Size1)
	fillStr(&dst.Size2, src.Size2)
	fillStr(&dst.Schedule, src.Schedule)
	fillStr(&dst.Standard, src.Standard)
	fillStr(&dst.Grade, src.Grade)
	fillFloat(&dst.TotalLengthM, src.TotalLengthM)

	if src.Notes != nil {
		switch {
		case dst.Notes == nil:
			dst.Notes = src.Notes
		case *dst.Notes != *src.Notes:
			dst.Notes = models.StrPtr(*dst.Notes + "; " + *src.Notes)
		}
	}

	if src.Quantity == nil {
		return
	}
	if dst.Quantity == nil {
		dst.Quantity = src.Quantity
		return
	}
	have, got := *dst.Quantity, *src.Quantity
	if have == got {
		return
	}

	// Disagreeing duplicates: when exactly one value looks like a length,
	// the count becomes the quantity and the length is kept separately.
	switch {
	case m.looksLikeLength(have) && !m.looksLikeLength(got):
		dst.Quantity = models.FloatPtr(got)
		if dst.TotalLengthM == nil {
			dst.TotalLengthM = models.FloatPtr(have)
		}
		dst.Warnings = append(dst.Warnings,
			fmt.Sprintf("quantity %g looked like a length; using count %g from chunk %d and keeping %g as total length", have, got, o.chunk, have))
	case !m.looksLikeLength(have) && m.looksLikeLength(got):
		if dst.TotalLengthM == nil {
			dst.TotalLengthM = models.FloatPtr(got)
		}
		dst.Warnings = append(dst.Warnings,
			fmt.Sprintf("chunk %d quantity %g looked like a length; keeping %g and recording %g as total length", o.chunk, got, have, got))
	default:
		dst.Warnings = append(dst.Warnings,
			fmt.Sprintf("chunk %d reported quantity %g, keeping %g", o.chunk, got, have))
	}
}

func fillStr(dst **string, src *string) {
	if *dst == nil && src != nil {
		*dst = src
	}
}

func fillFloat(dst **float64, src *float64) {
	if *dst == nil && src != nil {
		*dst = src
	}
}

var pieceCountRe = regexp.MustCompile(`(?i)\b(\d+)\s*(?:PCS|PC|PIECES|PIECE|NOS|EA|EACH)\b`)

// fixQuantity corrects a quantity that looks like a length. A piece count
// parsed from the notes rescues it; otherwise the suspicion is recorded and
// the value left alone.
func (m *Merger) fixQuantity(item *models.MergedLineItem) {
	if item.Quantity == nil || !m.looksLikeLength(*item.Quantity) {
		return
	}
	q := *item.Quantity

	mt := pieceCountRe.FindStringSubmatch(models.StrVal(item.Notes))
	if mt == nil {
		item.Warnings = append(item.Warnings,
			fmt.Sprintf("quantity %g looks like a length but no piece count was found to correct it", q))
		return
	}
	count, err := strconv.ParseFloat(mt[1], 64)
	if err != nil {
		return
	}

	if item.TotalLengthM == nil {
		item.TotalLengthM = models.FloatPtr(q)
	}
	item.Quantity = models.FloatPtr(count)
	item.Warnings = append(item.Warnings,
		fmt.Sprintf("quantity %g looks like a length; replaced with piece count %g from notes", q, count))
}

// looksLikeLength reports whether a quantity is more plausibly a length:
// implausibly large outright, or carrying fractional precision at a
// magnitude where piece counts are whole.
func (m *Merger) looksLikeLength(q float64) bool {
	if q >= m.cfg.ImplausibleQuantity {
		return true
	}
	return q >= m.cfg.LengthMagnitude && q != math.Trunc(q)
}

// dedupKey identifies an item across chunks: line number, the normalized
// dimension text (or a truncated description hash when no dimension is
// present), and the inferred category.
func (m *Merger) dedupKey(item *models.ExtractedLineItem) string {
	dim := normalizeDimension(item)
	if dim == "" {
		sum := sha256.Sum256([]byte(normalizeText(item.Description)))
		h := hex.EncodeToString(sum[:])
		if n := m.cfg.DescriptionHashLen; n < len(h) {
			h = h[:n]
		}
		dim = h
	}
	return models.StrVal(item.LineNumber) + "|" + dim + "|" + match.InferCategory(item)
}

// normalizeDimension joins the size and schedule fields into a compact
// uppercase token, empty when the item carries no dimension at all.
func normalizeDimension(item *models.ExtractedLineItem) string {
	var parts []string
	for _, p := range []*string{item.Size1, item.Size2, item.Schedule} {
		if s := models.StrVal(p); s != "" {
			parts = append(parts, normalizeText(s))
		}
	}
	return strings.Join(parts, "X")
}

// normalizeText uppercases and strips everything but letters and digits.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
