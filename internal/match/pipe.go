package match

import (
	"math"
	"strings"

	"github.com/norsteel/takeoff/internal/models"
	"github.com/norsteel/takeoff/pkg/utils"
)

// scorePipe scores a candidate against a pipe item. Size and schedule carry
// the most weight; metallurgy and spec standard refine; a shared-token bonus
// breaks ties between otherwise equal candidates.
func (m *Matcher) scorePipe(f *itemFacts, mat *models.Material) (float64, string) {
	score := 0.0
	var reasons []string

	if f.hasNPS && mat.NPSInch != nil {
		diff := math.Abs(f.nps - *mat.NPSInch)
		switch {
		case diff < 0.01:
			score += m.cfg.PipeNPSExact
			reasons = append(reasons, "nps exact")
		case diff <= 0.5:
			score += m.cfg.PipeNPSClose
			reasons = append(reasons, "nps close")
		}
	}

	if f.schedule != "" && models.StrVal(mat.Schedule) != "" {
		cs := normalizeSchedule(*mat.Schedule)
		switch {
		case cs == f.schedule:
			score += m.cfg.PipeScheduleExact
			reasons = append(reasons, "schedule exact")
		case scheduleEquivalent(cs, f.schedule),
			strings.HasPrefix(cs, f.schedule), strings.HasPrefix(f.schedule, cs):
			score += m.cfg.PipeSchedulePartial
			reasons = append(reasons, "schedule partial")
		}
	}

	if f.family != "" && materialFamily(mat) == f.family {
		score += m.cfg.PipeMaterialFamily
		reasons = append(reasons, "family "+strings.ToLower(f.family))
	}

	if pts, why := scoreStandard(f.standard, mat, m.cfg.PipeStandardExact, m.cfg.PipeStandardPartial); pts > 0 {
		score += pts
		reasons = append(reasons, why)
	}

	if pts, why := scoreGrade(f.grade, mat, m.cfg.PipeGradeExact, m.cfg.PipeGradePartial); pts > 0 {
		score += pts
		reasons = append(reasons, why)
	}

	if f.form != "" && normalizeForm(models.StrVal(mat.Form)) == f.form {
		score += m.cfg.PipeForm
		reasons = append(reasons, strings.ToLower(f.form))
	}

	if f.sharedTokens(mat.Description) >= 2 {
		score += m.cfg.PipeKeywordBonus
		reasons = append(reasons, "keywords")
	}

	return utils.Clamp(score, 0, 100), strings.Join(reasons, ", ")
}

// materialFamily classifies a catalog material from its structured fields
// and description.
func materialFamily(mat *models.Material) string {
	return familyOf(mat.Description, models.StrVal(mat.SpecStandard), models.StrVal(mat.Grade))
}

// scoreStandard compares the item's normalized standard with a candidate's.
// Exact core match earns full points, a prefix relation (A106 vs A106M) the
// partial tier.
func scoreStandard(standard string, mat *models.Material, exact, partial float64) (float64, string) {
	if standard == "" {
		return 0, ""
	}
	cs := normalizeStandard(models.StrVal(mat.SpecStandard))
	if cs == "" {
		return 0, ""
	}
	switch {
	case cs == standard:
		return exact, "standard exact"
	case strings.HasPrefix(cs, standard), strings.HasPrefix(standard, cs):
		return partial, "standard partial"
	}
	return 0, ""
}

func scoreGrade(grade string, mat *models.Material, exact, partial float64) (float64, string) {
	if grade == "" {
		return 0, ""
	}
	cg := normalizeGrade(models.StrVal(mat.Grade))
	if cg == "" {
		return 0, ""
	}
	switch {
	case cg == grade:
		return exact, "grade exact"
	case strings.HasPrefix(cg, grade), strings.HasPrefix(grade, cg):
		return partial, "grade partial"
	}
	return 0, ""
}
