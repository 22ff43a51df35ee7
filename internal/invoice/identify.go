package invoice

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aitorevi/extract-pdf-data/internal/pdfdoc"
	"github.com/aitorevi/extract-pdf-data/internal/template"
)

// ErrUnidentifiedProvider means no template matched the document.
var ErrUnidentifiedProvider = errors.New("unidentified provider")

// SimilarityThreshold is the minimum provider-name similarity (percent)
// accepted during identification.
const SimilarityThreshold = 85.0

var punctuation = regexp.MustCompile(`[.,;:!?¿¡()\[\]{}"'-]`)

// Identify matches a document against the store's templates in load order.
// For each template the identification fields are cropped from the declared
// page: an exact tax id match or a provider-name similarity at or above the
// threshold accepts the template immediately. The first template with either
// signal wins; there is no global best-match search.
func Identify(doc pdfdoc.Document, store *template.Store) (string, *template.Template, error) {
	pages := doc.Pages()
	if len(pages) == 0 {
		return "", nil, ErrUnidentifiedProvider
	}

	for _, id := range store.IDs() {
		tpl, _ := store.Get(id)

		for _, field := range tpl.IdentificationFields() {
			pageIdx := field.Page
			if pageIdx == 0 {
				pageIdx = tpl.Page
			}
			if pageIdx < 0 || pageIdx >= len(pages) {
				continue
			}

			raw := pages[pageIdx].TextInRect(fieldRect(field))
			value := strings.ToLower(strings.TrimSpace(raw))
			if value == "" {
				continue
			}

			switch template.StandardName(field.Name) {
			case template.IdentTaxID:
				if tpl.TaxID != "" && NormalizeTaxID(value) == NormalizeTaxID(tpl.TaxID) {
					slog.Debug("Provider identified by tax id", "template", id)
					return id, tpl, nil
				}
			case template.IdentName:
				score := Similarity(value, tpl.ProviderName)
				if score >= SimilarityThreshold {
					slog.Debug("Provider identified by name", "template", id, "similarity", score)
					return id, tpl, nil
				}
			}
		}
	}

	return "", nil, ErrUnidentifiedProvider
}

// Similarity scores two strings 0-100 with a crude positional metric: both
// are lower-cased, stripped of punctuation and whitespace-collapsed, then the
// count of positions (up to the shorter length) holding the same character is
// divided by the longer length. Not edit-distance based: a single insertion
// shifts every later position. Kept for compatibility with the documented
// 85% threshold behavior.
func Similarity(a, b string) float64 {
	na := []rune(normalizeForMatch(a))
	nb := []rune(normalizeForMatch(b))

	if len(na) == 0 && len(nb) == 0 {
		return 0
	}
	if string(na) == string(nb) {
		return 100
	}

	minLen, maxLen := len(na), len(nb)
	if minLen > maxLen {
		minLen, maxLen = maxLen, minLen
	}

	matches := 0
	for i := 0; i < minLen; i++ {
		if na[i] == nb[i] {
			matches++
		}
	}
	return float64(matches) / float64(maxLen) * 100
}

func normalizeForMatch(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctuation.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func fieldRect(f template.FieldDefinition) pdfdoc.Rect {
	return pdfdoc.Rect{X0: f.BBox[0], Y0: f.BBox[1], X1: f.BBox[2], Y1: f.BBox[3]}
}
