package match

import (
	"math"
	"strings"

	"github.com/norsteel/takeoff/internal/models"
	"github.com/norsteel/takeoff/pkg/utils"
)

// scoreBeam scores a candidate against a structural beam item on section
// type, depth, and unit weight.
func (m *Matcher) scoreBeam(f *itemFacts, mat *models.Material) (float64, string) {
	score := 0.0
	var reasons []string

	if f.hasBeam && models.StrVal(mat.BeamType) != "" {
		if strings.EqualFold(*mat.BeamType, f.beamType) {
			score += m.cfg.BeamTypeExact
			reasons = append(reasons, "type "+strings.ToLower(f.beamType))
		}
	}

	if f.hasBeam && f.beamDepthMM > 0 && mat.BeamDepthMM != nil {
		diff := math.Abs(f.beamDepthMM - *mat.BeamDepthMM)
		switch {
		case diff == 0:
			score += m.cfg.BeamDepthExact
			reasons = append(reasons, "depth exact")
		case diff <= 1:
			score += m.cfg.BeamDepthClose
			reasons = append(reasons, "depth close")
		}
	}

	if f.hasBeam && f.beamWeightKgM > 0 && mat.BeamWeightKgM != nil {
		switch {
		case f.beamWeightKgM == *mat.BeamWeightKgM:
			score += m.cfg.BeamWeightExact
			reasons = append(reasons, "weight exact")
		case utils.WithinPercent(f.beamWeightKgM, *mat.BeamWeightKgM, 5):
			score += m.cfg.BeamWeightClose
			reasons = append(reasons, "weight close")
		}
	}

	if pts, _ := scoreStandard(f.standard, mat, m.cfg.BeamStandard, m.cfg.BeamStandard); pts > 0 {
		score += m.cfg.BeamStandard
		reasons = append(reasons, "standard")
	}

	return utils.Clamp(score, 0, 100), strings.Join(reasons, ", ")
}
