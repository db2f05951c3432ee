package match

import (
	"fmt"
	"sort"

	"github.com/norsteel/takeoff/internal/models"
)

// fallback produces candidates when strategy scoring found nothing. Pipe
// items with a parseable size resolve through the standard dimension table;
// everything else falls back to keyword overlap against the supplied
// candidates, capped well below the review threshold so a fallback can never
// auto-select.
func (m *Matcher) fallback(f *itemFacts, candidates []models.Material) []models.MatchCandidate {
	if f.category == models.CategoryPipe && f.hasNPS && m.dims != nil {
		if c := m.pipeFallback(f); c != nil {
			return []models.MatchCandidate{*c}
		}
	}
	return m.keywordFallback(f, candidates)
}

// pipeFallback resolves a size-only pipe item through the dimension table.
// Preferred rows win; among those, the thinnest schedule.
func (m *Matcher) pipeFallback(f *itemFacts) *models.MatchCandidate {
	rows, err := m.dims.PipeDimensions(f.nps)
	if err != nil || len(rows) == 0 {
		return nil
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].IsPreferred != rows[j].IsPreferred {
			return rows[i].IsPreferred
		}
		return scheduleRank(rows[i].Schedule) < scheduleRank(rows[j].Schedule)
	})
	row := rows[0]

	code := ""
	if mat, err := m.dims.MaterialByID(row.MaterialID); err == nil && mat != nil {
		code = mat.Code
	}

	return &models.MatchCandidate{
		MaterialID:   row.MaterialID,
		MaterialCode: code,
		Score:        m.cfg.PipeFallbackScore,
		Reason:       fmt.Sprintf("size-only fallback: nps %g sch %s", row.NPSInch, row.Schedule),
	}
}

// keywordFallback rescores the supplied candidates on shared description
// tokens alone.
func (m *Matcher) keywordFallback(f *itemFacts, candidates []models.Material) []models.MatchCandidate {
	scored := make([]models.MatchCandidate, 0, len(candidates))
	for i := range candidates {
		mat := &candidates[i]
		shared := f.sharedTokens(mat.Description)
		if shared == 0 {
			continue
		}
		score := float64(shared) * 10
		if score > m.cfg.GenericFallbackCap {
			score = m.cfg.GenericFallbackCap
		}
		scored = append(scored, models.MatchCandidate{
			MaterialID:   mat.ID,
			MaterialCode: mat.Code,
			Score:        score,
			Reason:       fmt.Sprintf("keyword fallback: %d shared tokens", shared),
		})
	}

	sortCandidates(scored)
	if len(scored) > m.cfg.FallbackMaxResults {
		scored = scored[:m.cfg.FallbackMaxResults]
	}
	return scored
}
