package match

import (
	"math"
	"strings"

	"github.com/norsteel/takeoff/internal/models"
	"github.com/norsteel/takeoff/pkg/utils"
)

// scoreGeneric scores flanges, fittings, fasteners, gaskets, and anything
// without a dedicated strategy. Attribute agreement is all it has to go on.
func (m *Matcher) scoreGeneric(f *itemFacts, mat *models.Material) (float64, string) {
	score := 0.0
	var reasons []string

	if pts, why := scoreStandard(f.standard, mat, m.cfg.GenericStandard, m.cfg.GenericStandard/2); pts > 0 {
		score += pts
		reasons = append(reasons, why)
	}

	if pts, why := scoreGrade(f.grade, mat, m.cfg.GenericGrade, m.cfg.GenericGrade/2); pts > 0 {
		score += pts
		reasons = append(reasons, why)
	}

	if f.hasNPS && mat.NPSInch != nil && math.Abs(f.nps-*mat.NPSInch) < 0.01 {
		score += m.cfg.GenericSize
		reasons = append(reasons, "size")
	} else if s := strings.ToUpper(models.StrVal(f.item.Size1)); s != "" &&
		strings.Contains(strings.ToUpper(mat.Description), s) {
		score += m.cfg.GenericSize
		reasons = append(reasons, "size text")
	}

	if f.schedule != "" && models.StrVal(mat.Schedule) != "" &&
		normalizeSchedule(*mat.Schedule) == f.schedule {
		score += m.cfg.GenericSchedule
		reasons = append(reasons, "schedule")
	}

	if f.category != "" && mat.Category == f.category {
		score += m.cfg.GenericKeyword
		reasons = append(reasons, "category")
	}

	if mat.Code != "" && strings.Contains(f.desc, strings.ToUpper(mat.Code)) {
		score += m.cfg.GenericCode
		reasons = append(reasons, "code in description")
	}

	return utils.Clamp(score, 0, 100), strings.Join(reasons, ", ")
}
