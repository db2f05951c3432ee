// Package match scores extracted line items against catalog materials.
// Strategies are category-aware: pipes match on NPS and schedule, beams on
// section designation, plates on thickness. Scores run 0-100; a configurable
// threshold separates auto-selection from human review.
package match

import (
	"sort"

	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/models"
)

// Matcher scores line items against candidate materials. Pure and safe for
// concurrent use; the optional dimension source powers size-only fallback.
type Matcher struct {
	cfg  *config.MatchConfig
	dims PipeDimensionSource
}

// PipeDimensionSource supplies standard pipe dimension rows for size-only
// fallback matching. May be nil, which disables the pipe fallback.
type PipeDimensionSource interface {
	// PipeDimensions returns all rows for a nominal pipe size.
	PipeDimensions(npsInch float64) ([]models.PipeDimension, error)
	// MaterialByID resolves a material referenced by a dimension row.
	MaterialByID(id string) (*models.Material, error)
}

// Options tune a single match call.
type Options struct {
	// DisableFallback suppresses size-only fallback candidates.
	DisableFallback bool
	// MaxResults overrides the configured result cap when positive.
	MaxResults int
}

// NewMatcher returns a matcher. dims may be nil.
func NewMatcher(cfg *config.MatchConfig, dims PipeDimensionSource) *Matcher {
	return &Matcher{cfg: cfg, dims: dims}
}

// Match scores the item against every candidate, filters by the minimum
// score, and returns at most MaxResults candidates ranked by score. When
// nothing qualifies, fallback matching produces size-only or keyword-only
// candidates unless disabled.
func (m *Matcher) Match(item *models.MergedLineItem, candidates []models.Material, opts *Options) []models.MatchCandidate {
	f := analyzeItem(item)

	maxResults := m.cfg.MaxResults
	if opts != nil && opts.MaxResults > 0 {
		maxResults = opts.MaxResults
	}

	ranked := make([]models.MatchCandidate, 0, len(candidates))
	for i := range candidates {
		mat := &candidates[i]
		score, reason := m.scoreCandidate(f, mat)
		if score < m.cfg.MinScore {
			continue
		}
		ranked = append(ranked, models.MatchCandidate{
			MaterialID:   mat.ID,
			MaterialCode: mat.Code,
			Score:        score,
			Reason:       reason,
		})
	}

	sortCandidates(ranked)
	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}

	if len(ranked) == 0 && (opts == nil || !opts.DisableFallback) {
		return m.fallback(f, candidates)
	}
	return ranked
}

// Outcome matches the item and wraps the result in an explicit decision:
// auto when the top candidate clears the auto-select threshold, review when
// candidates exist but none qualifies, none when the list is empty.
func (m *Matcher) Outcome(item *models.MergedLineItem, candidates []models.Material) models.MatchOutcome {
	cands := m.Match(item, candidates, nil)
	out := models.MatchOutcome{Decision: models.DecisionNone, Candidates: cands}
	if len(cands) == 0 {
		return out
	}
	if sel := AutoSelect(cands, m.cfg.AutoSelectThreshold); sel != nil {
		out.Decision = models.DecisionAuto
		out.Selected = sel
	} else {
		out.Decision = models.DecisionReview
	}
	return out
}

// AutoSelect returns a copy of the top candidate when it reaches the
// threshold, nil otherwise. Candidates must already be ranked.
func AutoSelect(candidates []models.MatchCandidate, threshold float64) *models.MatchCandidate {
	if len(candidates) == 0 || candidates[0].Score < threshold {
		return nil
	}
	c := candidates[0]
	return &c
}

func (m *Matcher) scoreCandidate(f *itemFacts, mat *models.Material) (float64, string) {
	switch f.category {
	case models.CategoryPipe:
		return m.scorePipe(f, mat)
	case models.CategoryBeam:
		return m.scoreBeam(f, mat)
	case models.CategoryTubular:
		return m.scoreTubular(f, mat)
	case models.CategoryPlate:
		return m.scorePlate(f, mat)
	default:
		return m.scoreGeneric(f, mat)
	}
}

// sortCandidates orders by score descending, then material code for a
// deterministic result on ties.
func sortCandidates(cands []models.MatchCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].MaterialCode < cands[j].MaterialCode
	})
}
