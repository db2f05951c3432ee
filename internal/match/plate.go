package match

import (
	"math"
	"strings"

	"github.com/norsteel/takeoff/internal/models"
	"github.com/norsteel/takeoff/pkg/utils"
)

// scorePlate scores a candidate against a plate item. Thickness dominates;
// standard and grade split the remainder.
func (m *Matcher) scorePlate(f *itemFacts, mat *models.Material) (float64, string) {
	score := 0.0
	var reasons []string

	if f.hasThickness && mat.PlateThicknessMM != nil {
		diff := math.Abs(f.thicknessMM - *mat.PlateThicknessMM)
		switch {
		case diff == 0:
			score += m.cfg.PlateThkExact
			reasons = append(reasons, "thickness exact")
		case diff <= 0.5:
			score += m.cfg.PlateThkClose
			reasons = append(reasons, "thickness close")
		case diff <= 2:
			score += m.cfg.PlateThkLoose
			reasons = append(reasons, "thickness loose")
		}
	}

	if pts, _ := scoreStandard(f.standard, mat, m.cfg.PlateStandard, m.cfg.PlateStandard); pts > 0 {
		score += m.cfg.PlateStandard
		reasons = append(reasons, "standard")
	}

	if pts, _ := scoreGrade(f.grade, mat, m.cfg.PlateGrade, m.cfg.PlateGrade); pts > 0 {
		score += m.cfg.PlateGrade
		reasons = append(reasons, "grade")
	}

	return utils.Clamp(score, 0, 100), strings.Join(reasons, ", ")
}
