package models

import (
	"math"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PersonName is a name as printed on a document. Comparison is fuzzy: it
// tolerates initials, a missing middle name, word order and common
// romanisation variants of Indian names.
type PersonName string

const (
	nameMatchedScore = 85
	namePartialScore = 60

	initialCredit    = 0.8
	nearMissCredit   = 0.9
	unusedPenalty    = 5
	singleTokenCap   = 70
	nearMissMinRunes = 5
)

var honorifics = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "miss": {}, "dr": {}, "shri": {}, "sri": {}, "smt": {},
	"thiru": {}, "thirumathi": {}, "selvi": {}, "kumari": {}, "late": {},
}

// Romanisation variants folded to one spelling, applied in order.
var transliterations = strings.NewReplacer(
	"ee", "i",
	"oo", "u",
	"aa", "a",
	"th", "t",
	"dh", "d",
	"bh", "b",
	"ph", "f",
	"sh", "s",
	"w", "v",
	"z", "s",
	"y", "i",
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Tokens returns the folded name parts with honorifics removed.
func (n PersonName) Tokens() []string {
	folded, _, err := transform.String(stripMarks, string(n))
	if err != nil {
		folded = string(n)
	}
	folded = strings.ToLower(folded)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := honorifics[f]; ok {
			continue
		}
		tokens = append(tokens, transliterations.Replace(f))
	}
	return tokens
}

// IsZero reports whether the name has no usable parts.
func (n PersonName) IsZero() bool { return len(n.Tokens()) == 0 }

// Similarity scores two names from 0 to 100.
func (n PersonName) Similarity(other PersonName) int {
	a, b := n.Tokens(), other.Tokens()
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Align the shorter name onto the longer one.
	if len(a) > len(b) {
		a, b = b, a
	}

	used := make([]bool, len(b))
	credit := 0.0
	// Full tokens first so an initial cannot steal a token a full word needs.
	for _, pass := range []bool{false, true} {
		for _, tok := range a {
			if isInitial(tok) != pass {
				continue
			}
			credit += claim(tok, b, used)
		}
	}

	score := int(math.Round(credit / float64(len(a)) * 100))
	for i, tok := range b {
		if !used[i] && !isInitial(tok) {
			score -= unusedPenalty
		}
	}
	if len(a) == 1 && fullTokens(b) > 1 {
		score = min(score, singleTokenCap)
	}
	return max(0, min(100, score))
}

// Compare classifies the correspondence of two names.
func (n PersonName) Compare(other PersonName) (MatchStatus, int) {
	score := n.Similarity(other)
	return StatusForScore(score), score
}

// Matches is Compare reduced to a yes/no: MATCHED or PARTIAL.
func (n PersonName) Matches(other PersonName) bool {
	status, _ := n.Compare(other)
	return status != MatchMismatch
}

// StatusForScore applies the name-match thresholds.
func StatusForScore(score int) MatchStatus {
	switch {
	case score >= nameMatchedScore:
		return MatchMatched
	case score >= namePartialScore:
		return MatchPartial
	default:
		return MatchMismatch
	}
}

// claim finds the best unused counterpart for tok in others and marks it used.
func claim(tok string, others []string, used []bool) float64 {
	best, bestIdx := 0.0, -1
	for i, o := range others {
		if used[i] {
			continue
		}
		c := tokenCredit(tok, o)
		if c > best {
			best, bestIdx = c, i
		}
	}
	if bestIdx >= 0 {
		used[bestIdx] = true
	}
	return best
}

func tokenCredit(a, b string) float64 {
	switch {
	case a == b:
		return 1
	case isInitial(a) || isInitial(b):
		if []rune(a)[0] == []rune(b)[0] {
			return initialCredit
		}
		return 0
	case len([]rune(a)) >= nearMissMinRunes && len([]rune(b)) >= nearMissMinRunes &&
		levenshtein.Distance(a, b, nil) <= 1:
		return nearMissCredit
	default:
		return 0
	}
}

func isInitial(tok string) bool { return len([]rune(tok)) == 1 }

func fullTokens(toks []string) int {
	n := 0
	for _, t := range toks {
		if !isInitial(t) {
			n++
		}
	}
	return n
}
