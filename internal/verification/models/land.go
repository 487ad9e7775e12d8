package models

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// SurveyNumber is a parcel identifier as printed, such as "S.F. No. 123/4B".
// Source formats vary, so it is compared as a token and never parsed further.
type SurveyNumber string

var surveyPrefix = regexp.MustCompile(`^(?:(?:r\.?\s*s|t\.?\s*s|s\.?\s*f|survey|sy|s)\.?\s*(?:no|number)?\.?\s*[:\-]?\s*)`)

// Normalize strips labels, spaces and leading zeros and unifies separators.
func (s SurveyNumber) Normalize() string {
	v := strings.ToLower(strings.TrimSpace(string(s)))
	v = surveyPrefix.ReplaceAllString(v, "")
	v = strings.Map(func(r rune) rune {
		switch {
		case r == '-' || r == '\\':
			return '/'
		case r == ' ' || r == '.':
			return -1
		}
		return r
	}, v)
	segs := strings.Split(v, "/")
	out := segs[:0]
	for _, seg := range segs {
		if seg == "" {
			continue
		}
		trimmed := strings.TrimLeft(seg, "0")
		if trimmed == "" {
			trimmed = "0"
		}
		out = append(out, strings.ToUpper(trimmed))
	}
	return strings.Join(out, "/")
}

// Matches reports plausible equality: identical after normalization, or
// differing only in a trailing subdivision letter ("123/4B" and "123/4").
func (s SurveyNumber) Matches(other SurveyNumber) bool {
	a, b := s.Normalize(), other.Normalize()
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return strings.TrimRight(a, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") == strings.TrimRight(b, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") &&
		strings.Count(a, "/") == strings.Count(b, "/") && strings.Contains(a, "/")
}

// AreaText is a land extent as printed: "2400 Sq. Ft", "2 acres 30 cents",
// "0.40.50 Hectares".
type AreaText string

const areaTolerance = 0.02

// square metres per unit
var areaUnits = []struct {
	pattern string
	sqm     float64
}{
	{`hectares?|hects?|ha\b`, 10000},
	{`acres?|ac\b`, 4046.8564224},
	{`cents?`, 40.468564224},
	{`grounds?`, 222.967296},
	{`ares?\b`, 100},
	{`sq\.?\s*(?:ft|feet)|square\s+f(?:ee|oo)t|sqft`, 0.09290304},
	{`sq\.?\s*m(?:etres?|eters?|trs?)?\b|square\s+met(?:re|er)s?|sqm`, 1},
}

var (
	areaQuantity  *regexp.Regexp
	hectareTriple = regexp.MustCompile(`(\d+)\.(\d{1,2})\.(\d{1,2})`)
	thousandsSep  = regexp.MustCompile(`(\d),(\d{3})`)
)

func init() {
	alts := make([]string, len(areaUnits))
	for i, u := range areaUnits {
		alts[i] = "(" + u.pattern + ")"
	}
	areaQuantity = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:` + strings.Join(alts, "|") + `)`)
}

// SquareMetres converts the text to square metres. Compound extents are summed.
func (a AreaText) SquareMetres() (float64, bool) {
	v := strings.ToLower(string(a))
	v = thousandsSep.ReplaceAllString(v, "$1$2")

	// Tamil Nadu records print hectares.ares.square-metres.
	if m := hectareTriple.FindStringSubmatch(v); m != nil && strings.Contains(v, "hect") {
		h, _ := strconv.ParseFloat(m[1], 64)
		ares, _ := strconv.ParseFloat(m[2], 64)
		sqm, _ := strconv.ParseFloat(m[3], 64)
		return h*10000 + ares*100 + sqm, true
	}

	matches := areaQuantity.FindAllStringSubmatch(v, -1)
	if len(matches) == 0 {
		return 0, false
	}
	total := 0.0
	for _, m := range matches {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		for i, u := range areaUnits {
			if m[i+2] != "" {
				total += n * u.sqm
				break
			}
		}
	}
	return total, total > 0
}

// ConsistentWith compares two extents within a 2% tolerance. ok is false when
// either side cannot be read.
func (a AreaText) ConsistentWith(other AreaText) (consistent, ok bool) {
	x, okA := a.SquareMetres()
	y, okB := other.SquareMetres()
	if !okA || !okB {
		return false, false
	}
	return math.Abs(x-y) <= areaTolerance*math.Max(x, y), true
}
