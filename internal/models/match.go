package models

// Match decisions. "No match" is a decision, not an error.
const (
	DecisionAuto   = "auto"   // top candidate cleared the auto-select threshold
	DecisionReview = "review" // ranked candidates need human disambiguation
	DecisionNone   = "none"   // nothing qualified; needs manual catalog entry
)

// MatchCandidate is one scored catalog candidate for a line item.
type MatchCandidate struct {
	MaterialID   string  `json:"material_id"`
	MaterialCode string  `json:"material_code"`
	Score        float64 `json:"score"`
	Reason       string  `json:"reason"`
}

// MatchOutcome is the explicit result of matching one line item.
type MatchOutcome struct {
	Decision   string           `json:"decision"`
	Selected   *MatchCandidate  `json:"selected,omitempty"`
	Candidates []MatchCandidate `json:"candidates"`
}

// MatchedItem pairs a merged line item with its match outcome.
type MatchedItem struct {
	Item    MergedLineItem `json:"item"`
	Outcome MatchOutcome   `json:"outcome"`
}
