package invoice

import (
	"strconv"
	"time"

	"github.com/aitorevi/extract-pdf-data/internal/template"
)

// MetaPrefix marks internal metadata keys in report rows. Downstream report
// generators strip keys with this prefix before rendering.
const MetaPrefix = "_"

// Record is one extracted invoice: the closed standard field set plus a side
// table for recognized-but-nonstandard fields and processing metadata.
// Identification fields never appear here.
type Record struct {
	ProviderID   string
	ProviderName string

	TaxID         string
	InvoiceDate   string // DD/MM/YYYY
	DueDate       string
	InvoiceNumber string
	PaymentDate   string
	Base          string
	Commission    string

	// Extras holds extracted fields outside the standard set, keyed by
	// template field name. Auxiliary fields are folded and removed before
	// the record leaves the extractor.
	Extras map[string]string

	SourceFile      string
	PageIndex       int // authoritative page, 0-based
	TotalPages      int // pages in this invoice's group
	ProcessedAt     time.Time
	Duplicate       bool
	DuplicateReason string
}

// Set assigns a standard field by name. Non-standard names land in Extras.
func (r *Record) Set(stdName, value string) {
	switch stdName {
	case template.FieldTaxID:
		r.TaxID = value
	case template.FieldInvoiceDate:
		r.InvoiceDate = value
	case template.FieldDueDate:
		r.DueDate = value
	case template.FieldInvoiceNumber:
		r.InvoiceNumber = value
	case template.FieldPaymentDate:
		r.PaymentDate = value
	case template.FieldBase:
		r.Base = value
	case template.FieldCommission:
		r.Commission = value
	default:
		if r.Extras == nil {
			r.Extras = make(map[string]string)
		}
		r.Extras[stdName] = value
	}
}

// Get reads a standard field by name; non-standard names read from Extras.
func (r *Record) Get(stdName string) string {
	switch stdName {
	case template.FieldTaxID:
		return r.TaxID
	case template.FieldInvoiceDate:
		return r.InvoiceDate
	case template.FieldDueDate:
		return r.DueDate
	case template.FieldInvoiceNumber:
		return r.InvoiceNumber
	case template.FieldPaymentDate:
		return r.PaymentDate
	case template.FieldBase:
		return r.Base
	case template.FieldCommission:
		return r.Commission
	default:
		return r.Extras[stdName]
	}
}

// Row flattens the record for the external report generator: the standard
// fields as strings, the reporting quarter/year labels, and metadata under
// the reserved prefix.
func (r *Record) Row(reportQuarter, reportYear string) map[string]string {
	row := map[string]string{
		"TaxID":         r.TaxID,
		"InvoiceDate":   r.InvoiceDate,
		"Quarter":       reportQuarter,
		"Year":          reportYear,
		"DueDate":       r.DueDate,
		"InvoiceNumber": r.InvoiceNumber,
		"PaymentDate":   r.PaymentDate,
		"Base":          r.Base,
		"Commission":    r.Commission,

		MetaPrefix + "SourceFile":  r.SourceFile,
		MetaPrefix + "Provider":    r.ProviderName,
		MetaPrefix + "Page":        strconv.Itoa(r.PageIndex),
		MetaPrefix + "TotalPages":  strconv.Itoa(r.TotalPages),
		MetaPrefix + "ProcessedAt": r.ProcessedAt.Format("2006-01-02 15:04:05"),
		MetaPrefix + "Duplicate":   strconv.FormatBool(r.Duplicate),
	}
	if r.DuplicateReason != "" {
		row[MetaPrefix+"DuplicateReason"] = r.DuplicateReason
	}
	return row
}
