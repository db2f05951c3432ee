package match

import (
	"strings"

	"github.com/norsteel/takeoff/internal/models"
	"github.com/norsteel/takeoff/pkg/utils"
)

// scoreTubular scores a candidate against a tube/hollow-section item on
// outside diameter and wall thickness, each in three tolerance tiers.
func (m *Matcher) scoreTubular(f *itemFacts, mat *models.Material) (float64, string) {
	score := 0.0
	var reasons []string

	if f.hasDims && mat.ODMM != nil {
		switch {
		case f.odMM == *mat.ODMM:
			score += m.cfg.TubularODExact
			reasons = append(reasons, "od exact")
		case utils.WithinPercent(f.odMM, *mat.ODMM, 1):
			score += m.cfg.TubularODClose
			reasons = append(reasons, "od close")
		case utils.WithinPercent(f.odMM, *mat.ODMM, 5):
			score += m.cfg.TubularODLoose
			reasons = append(reasons, "od loose")
		}
	}

	if f.hasDims && mat.WallThicknessMM != nil {
		wall := *mat.WallThicknessMM
		switch {
		case f.wallMM == wall:
			score += m.cfg.TubularWallExact
			reasons = append(reasons, "wall exact")
		case utils.WithinAbs(f.wallMM, wall, m.cfg.TubularWallAbsMM),
			utils.WithinPercent(f.wallMM, wall, m.cfg.TubularWallPctLow):
			score += m.cfg.TubularWallClose
			reasons = append(reasons, "wall close")
		case utils.WithinPercent(f.wallMM, wall, m.cfg.TubularWallPctHi):
			score += m.cfg.TubularWallLoose
			reasons = append(reasons, "wall loose")
		}
	}

	if pts, _ := scoreStandard(f.standard, mat, m.cfg.TubularStandard, m.cfg.TubularStandard); pts > 0 {
		score += m.cfg.TubularStandard
		reasons = append(reasons, "standard")
	}

	return utils.Clamp(score, 0, 100), strings.Join(reasons, ", ")
}
