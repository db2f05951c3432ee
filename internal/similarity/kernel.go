package similarity

import (
	"sort"
	"strings"

	"github.com/norsteel/takeoff/internal/config"
)

// Kernel combines edit distance, prefix alignment, bigram overlap, token
// overlap, and a phonetic bonus into a single weighted fuzzy score.
type Kernel struct {
	cfg *config.SimilarityConfig
}

// NewKernel returns a kernel using the given weights.
func NewKernel(cfg *config.SimilarityConfig) *Kernel {
	return &Kernel{cfg: cfg}
}

// Score returns the combined similarity of a and b in [0, 1].
// Identical strings score 1; strings with no shared structure score near 0.
func (k *Kernel) Score(a, b string) float64 {
	na := normalize(a)
	nb := normalize(b)
	if na == nb {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}

	score := k.cfg.EditWeight*editSimilarity(na, nb) +
		k.cfg.PrefixWeight*prefixSimilarity(na, nb) +
		k.cfg.BigramWeight*bigramOverlap(na, nb) +
		k.cfg.TokenWeight*tokenOverlap(na, nb)

	if ca, cb := Soundex(na), Soundex(nb); ca != "" && ca == cb {
		score += k.cfg.PhoneticBonus
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Match is one ranked candidate from BestMatch/AllMatches.
type Match struct {
	Value string
	Index int
	Score float64
}

// BestMatch returns the highest-scoring candidate at or above minScore,
// or nil when no candidate qualifies. Empty candidate lists are fine.
func (k *Kernel) BestMatch(target string, candidates []string, minScore float64) *Match {
	var best *Match
	for i, c := range candidates {
		s := k.Score(target, c)
		if s < minScore {
			continue
		}
		if best == nil || s > best.Score {
			best = &Match{Value: c, Index: i, Score: s}
		}
	}
	return best
}

// AllMatches returns every candidate scoring at or above minScore,
// sorted by score descending. Returns an empty slice when none qualify.
func (k *Kernel) AllMatches(target string, candidates []string, minScore float64) []Match {
	matches := make([]Match, 0)
	for i, c := range candidates {
		s := k.Score(target, c)
		if s >= minScore {
			matches = append(matches, Match{Value: c, Index: i, Score: s})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Index < matches[j].Index
	})
	return matches
}

// normalize uppercases and collapses whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// prefixSimilarity rewards shared leading characters. Useful for truncated
// OCR tokens ("DESCR" vs "DESCRIPTION").
func prefixSimilarity(a, b string) float64 {
	runesA := []rune(a)
	runesB := []rune(b)
	shorter := len(runesA)
	longer := len(runesB)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if shorter == 0 {
		return 0
	}
	common := 0
	for i := 0; i < shorter; i++ {
		if runesA[i] != runesB[i] {
			break
		}
		common++
	}
	// Average of coverage against both lengths: a pure truncation of a long
	// word still scores well without letting one shared letter dominate.
	return (float64(common)/float64(shorter) + float64(common)/float64(longer)) / 2
}

// bigramOverlap is the Dice coefficient over the rune-bigram sets of a and b.
func bigramOverlap(a, b string) float64 {
	setA := bigramSet(a)
	setB := bigramSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	common := 0
	for g := range setA {
		if setB[g] {
			common++
		}
	}
	return 2 * float64(common) / float64(len(setA)+len(setB))
}

func bigramSet(s string) map[string]bool {
	runes := []rune(s)
	set := make(map[string]bool, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = true
	}
	return set
}

// tokenOverlap is the Jaccard coefficient over whitespace-separated tokens.
func tokenOverlap(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(tokensA))
	for _, t := range tokensA {
		setA[t] = true
	}
	setB := make(map[string]bool, len(tokensB))
	for _, t := range tokensB {
		setB[t] = true
	}
	common := 0
	for t := range setA {
		if setB[t] {
			common++
		}
	}
	union := len(setA) + len(setB) - common
	return float64(common) / float64(union)
}
