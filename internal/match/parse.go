package match

import (
	"regexp"
	"strconv"
	"strings"
)

// Material families. Coarse metallurgy classes used for pipe scoring.
const (
	FamilyCS    = "CS"
	FamilySS    = "SS"
	FamilyLTCS  = "LTCS"
	FamilyAlloy = "ALLOY"
)

// NPS notation parsers, tried in order; the first hit wins.
var (
	quoteNPSRe  = regexp.MustCompile(`(\d+[-\s]\d+/\d+|\d+/\d+|\d+(?:\.\d+)?)\s*(?:"|\x{201D}|\x{2033})`)
	inchNPSRe   = regexp.MustCompile(`(?i)\b(\d+[-\s]\d+/\d+|\d+/\d+|\d+(?:\.\d+)?)\s*(?:INCHES|INCH|IN)\b`)
	prefixNPSRe = regexp.MustCompile(`(?i)\bNPS\s*(\d+[-\s]\d+/\d+|\d+/\d+|\d+(?:\.\d+)?)\b`)
	dnRe        = regexp.MustCompile(`(?i)\bDN\s*(\d+)\b`)
)

// dnToNPS maps metric nominal diameters to NPS inches.
var dnToNPS = map[int]float64{
	6: 0.125, 8: 0.25, 10: 0.375, 15: 0.5, 20: 0.75, 25: 1, 32: 1.25,
	40: 1.5, 50: 2, 65: 2.5, 80: 3, 90: 3.5, 100: 4, 125: 5, 150: 6,
	200: 8, 250: 10, 300: 12, 350: 14, 400: 16, 450: 18, 500: 20,
	550: 22, 600: 24, 650: 26, 700: 28, 750: 30, 800: 32, 900: 36, 1000: 40,
}

// ParseNPS extracts a nominal pipe size in inches from free text. Exposed
// for catalog candidate narrowing; matching itself goes through analyzeItem.
func ParseNPS(text string) (float64, bool) {
	return parseNPS(text)
}

// parseNPS extracts a nominal pipe size from free text. Quote notation wins
// over IN/INCH suffixes, which win over NPS prefixes, which win over DN
// designations.
func parseNPS(text string) (float64, bool) {
	if m := quoteNPSRe.FindStringSubmatch(text); m != nil {
		return parseMixedNumber(m[1])
	}
	if m := inchNPSRe.FindStringSubmatch(text); m != nil {
		return parseMixedNumber(m[1])
	}
	if m := prefixNPSRe.FindStringSubmatch(text); m != nil {
		return parseMixedNumber(m[1])
	}
	if m := dnRe.FindStringSubmatch(text); m != nil {
		dn, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		nps, ok := dnToNPS[dn]
		return nps, ok
	}
	return 0, false
}

// parseMixedNumber parses "6", "6.625", "3/4", and "1-1/2" forms.
func parseMixedNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	whole := 0.0
	frac := s
	if i := strings.IndexAny(s, "- "); i >= 0 && strings.Contains(s[i+1:], "/") {
		w, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			return 0, false
		}
		whole = w
		frac = s[i+1:]
	}
	if num, den, ok := strings.Cut(frac, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return whole + n/d, true
	}
	v, err := strconv.ParseFloat(frac, 64)
	if err != nil {
		return 0, false
	}
	return whole + v, true
}

var scheduleRe = regexp.MustCompile(`(?i)\bSCH(?:EDULE)?\.?\s*(\d+S?|STD|XS|XXS)\b`)

// normalizeSchedule reduces schedule spellings to a bare designation:
// "SCH 40" and "Sch.40" become "40"; "STD", "XS", "XXS", "80S" pass through.
func normalizeSchedule(s string) string {
	up := strings.ToUpper(strings.TrimSpace(s))
	up = strings.ReplaceAll(up, "SCHEDULE", "")
	up = strings.ReplaceAll(up, "SCH", "")
	up = strings.Trim(up, " .")
	return up
}

// scheduleFromText pulls a schedule designation out of a description.
func scheduleFromText(text string) string {
	if m := scheduleRe.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// scheduleEquivalent reports wall-thickness equivalence between named and
// numbered schedules (STD == 40 and XS == 80 for the common size range).
func scheduleEquivalent(a, b string) bool {
	pair := a + "/" + b
	switch pair {
	case "STD/40", "40/STD", "XS/80", "80/XS":
		return true
	}
	return false
}

// scheduleRank orders schedules thinnest-first for fallback preference.
func scheduleRank(s string) int {
	switch s {
	case "STD":
		return 40
	case "XS":
		return 80
	case "XXS":
		return 160
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return 1 << 20
	}
	return n
}

var standardRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:ASTM|ASME)\s*(A\s*\d{2,3}M?)\b`),
	regexp.MustCompile(`(?i)\bAPI\s*(5L[A-Z]?)\b`),
	regexp.MustCompile(`(?i)\bEN\s*(\d{4,5}(?:-\d)?)\b`),
	regexp.MustCompile(`(?i)\b(A\d{2,3}M?)\b`),
}

// normalizeStandard reduces a spec standard to its core designation:
// "ASTM A106" -> "A106", "API 5L" -> "5L", "EN 10025-2" -> "10025-2".
func normalizeStandard(s string) string {
	up := strings.ToUpper(strings.TrimSpace(s))
	for _, prefix := range []string{"ASTM", "ASME", "API", "EN", "ISO", "JIS"} {
		up = strings.TrimPrefix(up, prefix)
	}
	return strings.ReplaceAll(strings.TrimSpace(up), " ", "")
}

// standardFromText extracts a spec standard designation from a description.
func standardFromText(text string) string {
	for _, re := range standardRes {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.ReplaceAll(strings.ToUpper(m[1]), " ", "")
		}
	}
	return ""
}

var gradeRe = regexp.MustCompile(`(?i)\bGR(?:ADE)?\.?\s*([A-Z]?\d{0,3}[A-Z]?)\b`)

// normalizeGrade strips grade prefixes: "GR.B" and "Grade B" become "B".
func normalizeGrade(s string) string {
	up := strings.ToUpper(strings.TrimSpace(s))
	up = strings.TrimPrefix(up, "GRADE")
	up = strings.TrimPrefix(up, "GR")
	return strings.Trim(up, " .")
}

func gradeFromText(text string) string {
	if m := gradeRe.FindStringSubmatch(text); m != nil && m[1] != "" {
		return strings.ToUpper(m[1])
	}
	return ""
}

// familyMarkers classify a description into a material family. Checked in
// order: low-temperature and stainless markers outrank the broad carbon
// defaults, and alloy grades (WP11) outrank their carbon base standard (A234).
var familyMarkers = []struct {
	family  string
	tokens  []string
	phrases []string
}{
	{FamilyLTCS, []string{"LTCS", "A333", "A350", "A420", "LF2", "LF3"}, []string{"LOW TEMP"}},
	{FamilySS, []string{"SS", "STAINLESS", "A312", "A358", "A403", "A182",
		"TP304", "TP304L", "TP316", "TP316L", "TP321", "304", "304L", "316",
		"316L", "321", "347", "DUPLEX", "S31803", "S32205"}, nil},
	{FamilyAlloy, []string{"ALLOY", "A335", "A691", "P5", "P9", "P11", "P22",
		"P91", "WP5", "WP9", "WP11", "WP22", "WP91", "F5", "F9", "F11", "F22", "F91"},
		[]string{"CR MO", "CHROME MOLY"}},
	{FamilyCS, []string{"CS", "CARBON", "A106", "A53", "A105", "A234", "WPB",
		"WPC", "A516", "A36", "A572", "S235", "S275", "S355", "E250", "E350"}, nil},
}

// familyOf infers the material family from any of the given texts.
// Returns "" when nothing matches.
func familyOf(texts ...string) string {
	joined := strings.ToUpper(strings.Join(texts, " "))
	tokens := tokenize(joined)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	for _, fm := range familyMarkers {
		for _, phrase := range fm.phrases {
			if strings.Contains(joined, phrase) {
				return fm.family
			}
		}
		for _, tok := range fm.tokens {
			if set[tok] {
				return fm.family
			}
		}
	}
	return ""
}

// normalizeForm maps manufacturing form spellings to SMLS or WELDED.
func normalizeForm(s string) string {
	up := strings.ToUpper(s)
	switch {
	case strings.Contains(up, "SMLS"), strings.Contains(up, "SEAMLESS"):
		return "SMLS"
	case strings.Contains(up, "WELD"), strings.Contains(up, "ERW"),
		strings.Contains(up, "EFW"), strings.Contains(up, "SAW"), strings.Contains(up, "HFW"):
		return "WELDED"
	}
	return ""
}

var (
	dimPairRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:MM)?\s*[X×]\s*(\d+(?:\.\d+)?)\s*(?:MM)?`)
	dimSingleRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*MM\b`)
	thkRe       = regexp.MustCompile(`(?i)(?:THK|THICKNESS)\.?\s*[:=]?\s*(\d+(?:\.\d+)?)`)
)

// parseDimPair extracts an OD x wall pair in millimetres ("114.3 X 6.02").
func parseDimPair(text string) (od, wall float64, ok bool) {
	m := dimPairRe.FindStringSubmatch(strings.ToUpper(text))
	if m == nil {
		return 0, 0, false
	}
	od, err1 := strconv.ParseFloat(m[1], 64)
	wall, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return od, wall, true
}

// parseThicknessMM extracts a plate thickness: an explicit THK marker wins,
// else the first millimetre-suffixed number.
func parseThicknessMM(text string) (float64, bool) {
	up := strings.ToUpper(text)
	if m := thkRe.FindStringSubmatch(up); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		return v, err == nil
	}
	if m := dimSingleRe.FindStringSubmatch(up); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		return v, err == nil
	}
	return 0, false
}

var beamRe = regexp.MustCompile(`\b(IPE|HEA|HEB|HEM|UPN|UPE|UB|UC|ISMB)\s*(\d{2,4})(?:\s*[X×]\s*(\d+(?:\.\d+)?))?(?:\s*[X×]\s*(\d+(?:\.\d+)?))?`)

// parseBeam extracts a beam designation: section type, depth in mm, and unit
// weight in kg/m when the three-number form ("UB 305X165X40") is used.
func parseBeam(text string) (beamType string, depthMM, weightKgM float64, ok bool) {
	m := beamRe.FindStringSubmatch(strings.ToUpper(text))
	if m == nil {
		return "", 0, 0, false
	}
	depth, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return "", 0, 0, false
	}
	weight := 0.0
	if m[4] != "" {
		if w, err := strconv.ParseFloat(m[4], 64); err == nil {
			weight = w
		}
	}
	return m[1], depth, weight, true
}
