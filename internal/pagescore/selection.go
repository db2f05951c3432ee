package pagescore

import (
	"sort"

	"github.com/norsteel/takeoff/internal/models"
)

// ScorePages scores every page of a document and returns the selected subset.
// Pages are 1-based in the result. For documents above the two-phase
// threshold, a sampling pass locates the item-bearing region first and only
// that region is scored densely.
func (s *Scorer) ScorePages(pages []string) models.PageSelection {
	total := len(pages)
	if total == 0 {
		return models.PageSelection{SelectedPages: []int{}, Scores: []models.PageScore{}}
	}

	if total <= s.cfg.TwoPhaseThreshold {
		scores := s.scoreRange(pages, 1, total)
		return s.selectFrom(scores, total)
	}
	return s.scoreTwoPhase(pages)
}

// scoreRange scores pages lo..hi inclusive (1-based).
func (s *Scorer) scoreRange(pages []string, lo, hi int) []models.PageScore {
	scores := make([]models.PageScore, 0, hi-lo+1)
	for p := lo; p <= hi; p++ {
		scores = append(scores, s.ScorePage(pages[p-1], p))
	}
	return scores
}

// scoreTwoPhase samples every Nth page to find the region worth scoring,
// then scores that region densely. Large documents usually keep their line
// items in one contiguous block, so the sample pass is enough to find it.
func (s *Scorer) scoreTwoPhase(pages []string) models.PageSelection {
	total := len(pages)
	interval := s.cfg.SampleInterval
	if interval < 1 {
		interval = 1
	}

	sampled := make([]models.PageScore, 0, total/interval+1)
	for p := 1; p <= total; p += interval {
		sampled = append(sampled, s.ScorePage(pages[p-1], p))
	}

	// Seed the dense region with every sampled page that cleared the
	// threshold. If none did, fall back to the single best sample as long
	// as it shows at least half the required signal.
	var seeds []int
	for _, ps := range sampled {
		if ps.Score >= s.cfg.MinScore {
			seeds = append(seeds, ps.PageNumber)
		}
	}
	if len(seeds) == 0 {
		best := -1
		for i, ps := range sampled {
			if best < 0 || ps.Score > sampled[best].Score {
				best = i
			}
		}
		if best >= 0 && sampled[best].Score >= s.cfg.MinScore/2 {
			seeds = []int{sampled[best].PageNumber}
		}
	}
	if len(seeds) == 0 {
		sel := models.PageSelection{SelectedPages: []int{}, Scores: sampled}
		sel.CompressionRatio = 0
		return sel
	}

	lo := seeds[0] - interval
	hi := seeds[len(seeds)-1] + interval
	if lo < 1 {
		lo = 1
	}
	if hi > total {
		hi = total
	}

	dense := s.scoreRange(pages, lo, hi)
	return s.selectFrom(dense, total)
}

// selectFrom picks pages at or above the minimum score, keeps at most
// MaxPages of them by score, pads the result with buffer pages on each side
// and returns the final sorted selection.
func (s *Scorer) selectFrom(scores []models.PageScore, total int) models.PageSelection {
	ranked := make([]models.PageScore, 0, len(scores))
	for _, ps := range scores {
		if ps.Score >= s.cfg.MinScore {
			ranked = append(ranked, ps)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].PageNumber < ranked[j].PageNumber
	})
	if len(ranked) > s.cfg.MaxPages {
		ranked = ranked[:s.cfg.MaxPages]
	}

	seen := map[int]bool{}
	for _, ps := range ranked {
		for p := ps.PageNumber - s.cfg.BufferPages; p <= ps.PageNumber+s.cfg.BufferPages; p++ {
			if p >= 1 && p <= total {
				seen[p] = true
			}
		}
	}

	selected := make([]int, 0, len(seen))
	for p := range seen {
		selected = append(selected, p)
	}
	sort.Ints(selected)

	sel := models.PageSelection{
		SelectedPages: selected,
		Scores:        scores,
	}
	if total > 0 {
		sel.CompressionRatio = float64(len(selected)) / float64(total)
	}
	return sel
}
