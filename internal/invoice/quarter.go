package invoice

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Quarter is a fiscal quarter of a specific year.
type Quarter struct {
	Year int
	Num  int // 1-4
}

// Label renders the quarter's fiscal label: 1T through 4T.
func (q Quarter) Label() string {
	return fmt.Sprintf("%dT", q.Num)
}

func (q Quarter) String() string {
	return fmt.Sprintf("%s/%d", q.Label(), q.Year)
}

// ParseQuarterLabel parses a fiscal label like "3T" back to its number.
func ParseQuarterLabel(label string) (int, bool) {
	label = strings.TrimSpace(strings.ToUpper(label))
	if len(label) != 2 || label[1] != 'T' {
		return 0, false
	}
	n := int(label[0] - '0')
	if n < 1 || n > 4 {
		return 0, false
	}
	return n, true
}

// QuarterOfMonth maps a month to its fiscal quarter number.
func QuarterOfMonth(m time.Month) int {
	return (int(m)-1)/3 + 1
}

// RealQuarter derives the quarter an invoice chronologically belongs to,
// solely from its own date (DD/MM/YYYY or YYYY-MM-DD). This drives all index
// lookups, index writes and archival paths. Unparseable dates report ok=false
// and are excluded from indexing.
func RealQuarter(date string) (Quarter, bool) {
	normalized := NormalizeDate(date)
	if normalized == "" {
		return Quarter{}, false
	}

	t, err := time.Parse("2006-1-2", normalized)
	if err != nil {
		return Quarter{}, false
	}
	return Quarter{Year: t.Year(), Num: QuarterOfMonth(t.Month())}, true
}

// ReportQuarter decides how an invoice is labeled in the report for the
// operator-selected (quarter, year). The selection never affects indexing or
// archival, only the report:
//
//   - same quarter as selected: labeled with the selection
//   - 4T of the previous year under a 1T selection: labeled with the
//     selection (rollover grace window)
//   - any other quarter earlier than the selection: excluded from the report
//   - later quarters: labeled with their own real quarter
//
// Invoices without a parseable date carry the selected labels.
func ReportQuarter(date string, selected Quarter) (Quarter, bool) {
	real, ok := RealQuarter(date)
	if !ok {
		return selected, true
	}

	switch {
	case real == selected:
		return selected, true
	case selected.Num == 1 && real.Year == selected.Year-1 && real.Num == 4:
		return selected, true
	case real.Year > selected.Year || (real.Year == selected.Year && real.Num > selected.Num):
		return real, true
	default:
		return Quarter{}, false
	}
}

// ParseReportingQuarter validates operator input: quarter 1-4 and a 4-digit
// year.
func ParseReportingQuarter(quarter, year string) (Quarter, error) {
	q, err := strconv.Atoi(strings.TrimSpace(quarter))
	if err != nil || q < 1 || q > 4 {
		return Quarter{}, fmt.Errorf("quarter must be 1, 2, 3 or 4, got %q", quarter)
	}
	y := strings.TrimSpace(year)
	if len(y) != 4 {
		return Quarter{}, fmt.Errorf("year must be a 4-digit year, got %q", year)
	}
	yn, err := strconv.Atoi(y)
	if err != nil {
		return Quarter{}, fmt.Errorf("year must be a 4-digit year, got %q", year)
	}
	return Quarter{Year: yn, Num: q}, nil
}
