package invoice

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)
	taxIDLetterLead = regexp.MustCompile(`^[A-Z]\d{8}$`)
	taxIDLetterTail = regexp.MustCompile(`^\d{8}[A-Z]$`)
)

// NormalizeTaxID strips everything but letters and digits and upper-cases.
// Tax id comparisons always run on normalized values.
func NormalizeTaxID(raw string) string {
	return strings.ToUpper(nonAlphanumeric.ReplaceAllString(raw, ""))
}

// ValidTaxID reports whether a normalized tax id has a recognized shape:
// a letter plus eight digits or eight digits plus a letter. Used for
// diagnostics only; identification never rejects on shape.
func ValidTaxID(id string) bool {
	id = NormalizeTaxID(id)
	if len(id) != 9 {
		return false
	}
	return taxIDLetterLead.MatchString(id) || taxIDLetterTail.MatchString(id)
}
