package match

import (
	"strings"

	"github.com/norsteel/takeoff/internal/models"
)

// categoryKeywords map description tokens to material categories. Checked in
// order: specific component words first so "PIPE ELBOW" lands on fitting, not
// pipe. Single-word keywords match whole tokens, plurals, or
// designation+size forms (HEA matches HEA200 but not HEAT).
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{models.CategoryFlange, []string{"FLANGE", "FLG", "BLIND", "SPECTACLE"}},
	{models.CategoryFitting, []string{"ELBOW", "TEE", "REDUCER", "COUPLING", "UNION", "OLET", "WELDOLET", "SOCKOLET", "BEND", "CAP", "NIPPLE", "SWAGE"}},
	{models.CategoryFastener, []string{"BOLT", "STUD", "NUT", "SCREW", "WASHER"}},
	{models.CategoryGasket, []string{"GASKET"}},
	{models.CategoryBeam, []string{"BEAM", "IPE", "HEA", "HEB", "HEM", "UPN", "UPE", "UB", "UC", "ISMB", "GIRDER", "COLUMN"}},
	{models.CategoryTubular, []string{"TUBE", "TUBING", "SHS", "RHS", "CHS"}},
	{models.CategoryPlate, []string{"PLATE", "SHEET", "CHEQUERED"}},
	{models.CategoryPipe, []string{"PIPE"}},
}

var categoryPhrases = map[string][]string{
	models.CategoryGasket:  {"SPIRAL WOUND"},
	models.CategoryTubular: {"HOLLOW SECTION"},
}

// InferCategory guesses the material category of an extracted item:
// description keywords first, then structural hints (a schedule without any
// component keyword means pipe).
func InferCategory(item *models.ExtractedLineItem) string {
	if c := descriptionCategory(item.Description); c != "" {
		return c
	}
	if models.StrVal(item.Schedule) != "" {
		return models.CategoryPipe
	}
	return ""
}

// CategoryOf returns the category for a merged item, reusing the inferred
// type assigned during merge when present.
func CategoryOf(item *models.MergedLineItem) string {
	if item.InferredType != "" {
		return item.InferredType
	}
	return InferCategory(&item.ExtractedLineItem)
}

func descriptionCategory(desc string) string {
	upper := strings.ToUpper(desc)
	tokens := tokenize(upper)
	for _, ck := range categoryKeywords {
		for _, phrase := range categoryPhrases[ck.category] {
			if strings.Contains(upper, phrase) {
				return ck.category
			}
		}
		for _, kw := range ck.keywords {
			for _, tok := range tokens {
				if matchToken(tok, kw) {
					return ck.category
				}
			}
		}
	}
	return ""
}

// matchToken matches a token against a keyword: exact, plural, or keyword
// followed by digits (designation plus size, like SCH40 or HEB300).
func matchToken(tok, kw string) bool {
	if tok == kw {
		return true
	}
	if !strings.HasPrefix(tok, kw) {
		return false
	}
	rest := tok[len(kw):]
	if rest == "S" {
		return true
	}
	return rest[0] >= '0' && rest[0] <= '9'
}

func tokenize(upper string) []string {
	return strings.FieldsFunc(upper, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
}
