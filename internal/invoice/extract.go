package invoice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aitorevi/extract-pdf-data/internal/pdfdoc"
	"github.com/aitorevi/extract-pdf-data/internal/template"
)

var (
	// ErrMissingInvoiceNumber marks a page with no usable invoice number.
	// Per-page and non-fatal: the rest of the document still extracts.
	ErrMissingInvoiceNumber = errors.New("missing invoice number")

	// ErrExtractionFailure means the authoritative page yielded zero usable
	// fields; the whole invoice is rejected.
	ErrExtractionFailure = errors.New("extraction yielded no usable fields")
)

// continuationPhrases rejects invoice-number values that are really
// pagination artifacts ("page 2 of 3", "continued", ...).
var continuationPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^page\s+\d+(\s+of\s+\d+)?$`),
	regexp.MustCompile(`(?i)^p[áa]gina\s+\d+(\s+de\s+\d+)?$`),
	regexp.MustCompile(`(?i)\bcontinued\b`),
	regexp.MustCompile(`(?i)\bcontinuaci[óo]n\b`),
}

// IsContinuation reports whether a value matches the continuation-phrase
// denylist.
func IsContinuation(value string) bool {
	for _, p := range continuationPhrases {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

// PageError is a non-fatal error tied to one page of a document.
type PageError struct {
	Page int
	Err  error
}

func (e PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e PageError) Unwrap() error { return e.Err }

// PageGroup is the set of pages sharing one invoice number.
type PageGroup struct {
	InvoiceNumber string
	Pages         []int // ascending page indexes
}

// Authoritative returns the page the invoice's fields are read from: the
// highest index in the group. Multi-page invoices carry running totals, so
// the final page holds the correct cumulative amounts.
func (g PageGroup) Authoritative() int {
	return g.Pages[len(g.Pages)-1]
}

// GroupPages reads the invoice number from every page and groups pages with
// identical values across the whole document, not just contiguous runs.
// Pages with an empty or denylisted value come back as per-page errors
// instead of joining any group.
func GroupPages(doc pdfdoc.Document, tpl *template.Template) ([]PageGroup, []PageError) {
	numberField, ok := tpl.Field(template.FieldInvoiceNumber)
	if !ok {
		errs := make([]PageError, len(doc.Pages()))
		for i := range doc.Pages() {
			errs[i] = PageError{Page: i, Err: fmt.Errorf("%w: template has no invoice number field", ErrMissingInvoiceNumber)}
		}
		return nil, errs
	}

	rect := fieldRect(numberField)
	var (
		groups []PageGroup
		index  = make(map[string]int)
		errs   []PageError
	)

	for i, page := range doc.Pages() {
		value := CleanText(page.TextInRect(rect))
		if value == "" || IsContinuation(value) {
			errs = append(errs, PageError{Page: i, Err: ErrMissingInvoiceNumber})
			continue
		}

		if gi, seen := index[value]; seen {
			groups[gi].Pages = append(groups[gi].Pages, i)
			continue
		}
		index[value] = len(groups)
		groups = append(groups, PageGroup{InvoiceNumber: value, Pages: []int{i}})
	}

	return groups, errs
}

// Extractor turns documents into invoice records using a provider template.
type Extractor struct {
	now func() time.Time
}

// NewExtractor creates an Extractor stamping records with the given clock
// (nil for wall time).
func NewExtractor(now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{now: now}
}

// Extract groups the document's pages by invoice number and builds one
// record per group, reading every declared field from the group's
// authoritative page only. Per-page and per-group failures are returned
// alongside the successful records; none of them abort the document.
func (e *Extractor) Extract(doc pdfdoc.Document, providerID string, tpl *template.Template) ([]*Record, []PageError) {
	groups, errs := GroupPages(doc, tpl)
	pages := doc.Pages()

	var records []*Record
	for _, group := range groups {
		authoritative := group.Authoritative()
		record, err := e.extractPage(pages[authoritative], tpl)
		if err != nil {
			errs = append(errs, PageError{Page: authoritative, Err: err})
			continue
		}

		record.ProviderID = providerID
		record.ProviderName = tpl.ProviderName
		record.TaxID = NormalizeTaxID(tpl.TaxID)
		record.InvoiceNumber = group.InvoiceNumber
		record.SourceFile = doc.Name()
		record.PageIndex = authoritative
		record.TotalPages = len(group.Pages)
		record.ProcessedAt = e.now()
		records = append(records, record)
	}

	return records, errs
}

// extractPage reads every declared data field from one page, normalizes by
// kind and folds auxiliary fields into their targets.
func (e *Extractor) extractPage(page pdfdoc.Page, tpl *template.Template) (*Record, error) {
	record := &Record{}
	var auxiliaries []template.FieldDefinition
	extracted := 0

	for _, field := range tpl.DataFields() {
		value := Clean(page.TextInRect(fieldRect(field)), field.Kind)
		// The invoice number alone does not make a usable invoice; grouping
		// already guaranteed its presence on this page.
		if value != "" && template.StandardName(field.Name) != template.FieldInvoiceNumber {
			extracted++
		}

		if field.Auxiliary {
			auxiliaries = append(auxiliaries, field)
		}
		record.Set(template.StandardName(field.Name), value)
	}

	if extracted == 0 {
		return nil, ErrExtractionFailure
	}

	for _, aux := range auxiliaries {
		foldAuxiliary(record, aux)
	}
	return record, nil
}

// foldAuxiliary adds an auxiliary field's numeric value into its target
// (base amount unless the template says otherwise) and removes it from the
// record. Empty or non-numeric auxiliary values leave the target untouched.
func foldAuxiliary(record *Record, field template.FieldDefinition) {
	name := template.StandardName(field.Name)
	value := record.Get(name)
	delete(record.Extras, name)

	if strings.TrimSpace(value) == "" {
		return
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return
	}

	target := field.Target
	if target == "" {
		target = template.FieldBase
	}
	target = template.StandardName(target)

	total := amount
	if current := record.Get(target); strings.TrimSpace(current) != "" {
		base, err := strconv.ParseFloat(current, 64)
		if err != nil {
			return
		}
		total += base
	}
	record.Set(target, strconv.FormatFloat(total, 'f', 2, 64))
}
