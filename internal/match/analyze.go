package match

import (
	"strings"

	"github.com/norsteel/takeoff/internal/models"
)

// itemFacts is the analyzed view of one line item: every attribute the
// strategies score on, parsed once and reused against all candidates.
// Explicit item fields win over values recovered from the description.
type itemFacts struct {
	item     *models.MergedLineItem
	desc     string
	category string
	tokens   map[string]bool

	nps    float64
	hasNPS bool

	schedule string
	standard string
	grade    string
	family   string
	form     string

	odMM    float64
	wallMM  float64
	hasDims bool

	thicknessMM  float64
	hasThickness bool

	beamType      string
	beamDepthMM   float64
	beamWeightKgM float64
	hasBeam       bool
}

func analyzeItem(item *models.MergedLineItem) *itemFacts {
	desc := strings.ToUpper(strings.Join(strings.Fields(item.Description), " "))
	size1 := strings.ToUpper(models.StrVal(item.Size1))
	size2 := strings.ToUpper(models.StrVal(item.Size2))
	sizeText := strings.TrimSpace(size1 + " " + size2)

	f := &itemFacts{
		item:     item,
		desc:     desc,
		category: CategoryOf(item),
		tokens:   significantTokens(desc),
	}

	for _, src := range []string{size1, size2, desc} {
		if src == "" {
			continue
		}
		if nps, ok := parseNPS(src); ok {
			f.nps = nps
			f.hasNPS = true
			break
		}
	}

	if s := models.StrVal(item.Schedule); s != "" {
		f.schedule = normalizeSchedule(s)
	} else {
		f.schedule = scheduleFromText(desc)
	}

	if s := models.StrVal(item.Standard); s != "" {
		f.standard = normalizeStandard(s)
	} else {
		f.standard = standardFromText(desc)
	}

	if g := models.StrVal(item.Grade); g != "" {
		f.grade = normalizeGrade(g)
	} else {
		f.grade = gradeFromText(desc)
	}

	f.family = familyOf(desc, models.StrVal(item.Standard), models.StrVal(item.Grade))
	f.form = normalizeForm(desc)

	for _, src := range []string{sizeText, desc} {
		if od, wall, ok := parseDimPair(src); ok {
			f.odMM, f.wallMM = od, wall
			f.hasDims = true
			break
		}
	}

	for _, src := range []string{sizeText, desc} {
		if thk, ok := parseThicknessMM(src); ok {
			f.thicknessMM = thk
			f.hasThickness = true
			break
		}
	}

	for _, src := range []string{desc, sizeText} {
		if bt, depth, weight, ok := parseBeam(src); ok {
			f.beamType, f.beamDepthMM, f.beamWeightKgM = bt, depth, weight
			f.hasBeam = true
			break
		}
	}

	return f
}

// significantTokens keeps description tokens worth comparing across
// descriptions: at least three characters and not a bare number.
func significantTokens(upper string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range tokenize(upper) {
		if len(tok) < 3 {
			continue
		}
		if allDigits(tok) {
			continue
		}
		set[tok] = true
	}
	return set
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// sharedTokens counts significant tokens common to the item and a candidate
// description.
func (f *itemFacts) sharedTokens(candidateDesc string) int {
	n := 0
	for tok := range significantTokens(strings.ToUpper(candidateDesc)) {
		if f.tokens[tok] {
			n++
		}
	}
	return n
}
