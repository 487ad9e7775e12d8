package landrecord

import (
	"strings"
	"unicode"

	"landverify/internal/verification/models"
)

// GovernmentLandReason is the fixed rejection shown for public land.
const GovernmentLandReason = "Alert: This land is classified as Government Property and cannot be sold."

const defaultRejectionReason = "The Patta record does not match the Deed information."

// Land record vocabulary in the spellings found on Tamil Nadu records.
var (
	classificationWords = []struct {
		class models.LandClassification
		words []string
	}{
		{models.LandWetland, []string{"nanjai", "nansai", "wet", "wetland", "wetlands"}},
		{models.LandDryland, []string{"punjai", "punsai", "manavari", "dry", "dryland", "drylands"}},
		{models.LandHousing, []string{"manai", "manaivari", "natham", "nattam", "residential", "housing", "house site", "house sites"}},
	}

	// Words that only appear on public or trust land count alone. Generic
	// issuers like "Government of Tamil Nadu" count only when they name
	// what owns the land.
	governmentWords = []string{
		"sarkar", "sircar", "poramboke", "puramboke", "porambokku", "purambokku",
		"waqf", "wakf", "devasthanam", "anadheenam", "aadheenam",
	}
	governmentOwners = []string{"government", "govt", "temple"}
	ownershipNouns   = []string{"land", "lands", "property", "owned", "poramboke", "puramboke"}

	negations = []string{"non", "not", "no"}
)

// Classify returns the first land-use category named in texts, scanning
// them in order. Texts naming none give Unknown.
func Classify(texts ...string) models.LandClassification {
	for _, text := range texts {
		words := words(text)
		for i := range words {
			for _, c := range classificationWords {
				if hasPhraseAt(words, i, c.words) {
					return c.class
				}
			}
		}
	}
	return models.LandUnknown
}

// GovernmentMarker returns the first public-ownership marker in texts.
// A marker directly preceded by a negation ("Non-Government", "not
// poramboke") is ignored.
func GovernmentMarker(texts ...string) (string, bool) {
	for _, text := range texts {
		words := words(text)
		for i, w := range words {
			if i > 0 && hasPhraseAt(words, i-1, negations) {
				continue
			}
			if hasPhraseAt(words, i, governmentWords) {
				return w, true
			}
			if hasPhraseAt(words, i, governmentOwners) && i+1 < len(words) && hasPhraseAt(words, i+1, ownershipNouns) {
				return w + " " + words[i+1], true
			}
		}
	}
	return "", false
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// hasPhraseAt reports whether one of phrases starts at words[i].
func hasPhraseAt(words []string, i int, phrases []string) bool {
	for _, p := range phrases {
		parts := strings.Fields(p)
		if i+len(parts) > len(words) {
			continue
		}
		match := true
		for j, part := range parts {
			if words[i+j] != part {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
