package invoice

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aitorevi/extract-pdf-data/internal/template"
)

// DateLayout is the canonical presentation format for extracted dates.
const DateLayout = "02/01/2006"

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f-\x9f]`)
	whitespace   = regexp.MustCompile(`\s+`)
	nonNumeric   = regexp.MustCompile(`[^\d.,+-]`)

	// Date-shaped substrings, day-first and year-first.
	dayFirstDate  = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{4}`)
	yearFirstDate = regexp.MustCompile(`\d{4}[/-]\d{1,2}[/-]\d{1,2}`)
)

// dateLayouts are tried in order; the first successful parse wins.
var dateLayouts = []string{
	"2/1/2006", // DD/MM/YYYY
	"2-1-2006", // DD-MM-YYYY
	"2006/1/2", // YYYY/MM/DD
	"2006-1-2", // YYYY-MM-DD
	"2/1/06",   // DD/MM/YY
	"2-1-06",   // DD-MM-YY
}

// Clean normalizes a raw extracted value according to its field kind.
func Clean(raw, kind string) string {
	if raw == "" {
		return ""
	}
	switch kind {
	case template.KindDate:
		return CleanDate(raw)
	case template.KindNumeric:
		return CleanNumeric(raw)
	default:
		return CleanText(raw)
	}
}

// CleanText collapses whitespace runs to a single space, strips control
// characters and trims.
func CleanText(text string) string {
	text = whitespace.ReplaceAllString(text, " ")
	text = controlChars.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// CleanDate normalizes a date to DD/MM/YYYY. If the text does not parse as a
// date directly, a date-shaped substring is searched and retried. Unparseable
// input is returned unchanged, not treated as an error.
func CleanDate(text string) string {
	text = CleanText(text)
	if text == "" {
		return ""
	}

	if formatted, ok := parseDate(text); ok {
		return formatted
	}

	for _, pattern := range []*regexp.Regexp{dayFirstDate, yearFirstDate} {
		if match := pattern.FindString(text); match != "" {
			if formatted, ok := parseDate(match); ok {
				return formatted
			}
		}
	}

	return text
}

func parseDate(text string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format(DateLayout), true
		}
	}
	return "", false
}

// CleanNumeric normalizes a numeric value to a plain decimal with '.' as the
// decimal separator. European (1.234,56) and American (1,234.56) grouping are
// both handled: with both separators present, the later one is decimal; a
// lone comma is decimal only when followed by one or two digits. Input that
// does not end up as a valid number is returned unchanged.
func CleanNumeric(text string) string {
	cleaned := nonNumeric.ReplaceAllString(text, "")
	if cleaned == "" {
		return strings.TrimSpace(text)
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			// European: dot groups thousands, comma is decimal.
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) >= 1 && len(parts[1]) <= 2 {
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	if _, err := strconv.ParseFloat(cleaned, 64); err != nil {
		return strings.TrimSpace(text)
	}
	return cleaned
}

// NormalizeDate converts a DD/MM/YYYY date to YYYY-MM-DD for index
// comparison. Dates already in year-first form pass through; anything else is
// returned as-is.
func NormalizeDate(date string) string {
	if date == "" {
		return ""
	}

	if parts := strings.Split(date, "-"); len(parts) == 3 && len(parts[0]) == 4 {
		return date
	}

	if parts := strings.Split(date, "/"); len(parts) == 3 {
		return parts[2] + "-" + pad2(parts[1]) + "-" + pad2(parts[0])
	}

	return date
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
