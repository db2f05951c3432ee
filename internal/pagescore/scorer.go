// Package pagescore scores document pages by their likelihood of containing
// tabular line-item data and selects a minimal page subset for extraction.
package pagescore

import (
	"fmt"
	"strings"

	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/models"
)

// Scorer computes per-page relevance scores. Pure and safe for concurrent use.
type Scorer struct {
	cfg *config.PageScoreConfig
}

// NewScorer returns a scorer with the given settings.
func NewScorer(cfg *config.PageScoreConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// ScorePage scores a single page. pageNumber is 1-based.
// The score never goes below zero; every contributing signal is recorded.
func (s *Scorer) ScorePage(text string, pageNumber int) models.PageScore {
	ps := models.PageScore{
		PageNumber: pageNumber,
		Reasons:    []string{},
		Signals:    map[string]float64{},
	}
	if strings.TrimSpace(text) == "" {
		ps.Reasons = append(ps.Reasons, "empty page")
		return ps
	}

	upper := strings.ToUpper(text)
	score := 0.0

	hits := countKeywordHits(upper, itemKeywords)
	kwPoints := float64(hits) * s.cfg.KeywordPoints
	if kwPoints > s.cfg.KeywordCap {
		kwPoints = s.cfg.KeywordCap
	}
	if hits > 0 {
		score += kwPoints
		ps.Signals["keyword_density"] = kwPoints
		ps.Reasons = append(ps.Reasons, fmt.Sprintf("%d domain keywords (+%.1f)", hits, kwPoints))
	}

	numeric := numericDensity(text)
	numPoints := numeric * s.cfg.NumericWeight
	if numPoints > 0 {
		score += numPoints
		ps.Signals["numeric_density"] = numPoints
		ps.Reasons = append(ps.Reasons, fmt.Sprintf("numeric density %.2f (+%.1f)", numeric, numPoints))
	}

	aligned := alignedLineFraction(text)
	if aligned > s.cfg.TabularMinFraction {
		score += s.cfg.TabularPoints
		ps.Signals["tabular"] = s.cfg.TabularPoints
		ps.Reasons = append(ps.Reasons, fmt.Sprintf("tabular structure %.0f%% aligned (+%.1f)", aligned*100, s.cfg.TabularPoints))
	}

	lines := countNonEmptyLines(text)
	if lines >= s.cfg.DenseLineCount {
		score += s.cfg.DenseLineBonus
		ps.Signals["line_count"] = s.cfg.DenseLineBonus
		ps.Reasons = append(ps.Reasons, fmt.Sprintf("%d lines (+%.1f)", lines, s.cfg.DenseLineBonus))
	}

	if hasAnyKeyword(upper, adminKeywords) {
		score -= s.cfg.AdminPenalty
		ps.Signals["admin_penalty"] = -s.cfg.AdminPenalty
		ps.Reasons = append(ps.Reasons, fmt.Sprintf("administrative keywords (-%.1f)", s.cfg.AdminPenalty))
	}

	if pageNumber <= s.cfg.FirstPages {
		score -= s.cfg.FirstPagesPenalty
		ps.Signals["first_pages_penalty"] = -s.cfg.FirstPagesPenalty
		ps.Reasons = append(ps.Reasons, fmt.Sprintf("leading page (-%.1f)", s.cfg.FirstPagesPenalty))
	}

	if score < 0 {
		score = 0
	}
	ps.Score = score
	return ps
}

// countKeywordHits counts keyword occurrences in upper-cased text. Single
// tokens match whole words or word prefixes (SCH matches SCH40, DN matches
// DN50), phrases match as substrings.
func countKeywordHits(upper string, keywords []string) int {
	tokens := strings.FieldsFunc(upper, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			hits += strings.Count(upper, kw)
			continue
		}
		for _, tok := range tokens {
			if strings.HasPrefix(tok, kw) {
				hits++
			}
		}
	}
	return hits
}

func hasAnyKeyword(upper string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// numericDensity returns the fraction of non-whitespace characters that are digits.
func numericDensity(text string) float64 {
	digits, total := 0, 0
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		total++
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(digits) / float64(total)
}

// alignedLineFraction returns the fraction of non-empty lines containing an
// interior tab or two consecutive spaces, the signature of column alignment.
func alignedLineFraction(text string) float64 {
	lines := strings.Split(text, "\n")
	nonEmpty, aligned := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if strings.Contains(trimmed, "  ") || strings.Contains(trimmed, "\t") {
			aligned++
		}
	}
	if nonEmpty == 0 {
		return 0
	}
	return float64(aligned) / float64(nonEmpty)
}

func countNonEmptyLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
