// Package index persists the per-(year, quarter) ledger of processed
// invoices used for duplicate detection.
package index

import "fmt"

// Entry is one processed invoice in a quarter's ledger.
type Entry struct {
	TaxID          string `json:"tax_id"`
	InvoiceDate    string `json:"invoice_date"` // normalized YYYY-MM-DD
	InvoiceNumber  string `json:"invoice_number"`
	SourceFilename string `json:"source_filename"`
	ArchivedPath   string `json:"archived_path"`
	ProcessedAt    string `json:"processed_at"`
	ContentHash    string `json:"content_hash"`
}

// QuarterIndex is the ledger for one (year, quarter) pair. Mutated only by
// append; persisted after every append, never buffered for the run.
type QuarterIndex struct {
	Quarter  string  `json:"quarter"` // 1T-4T
	Year     int     `json:"year"`
	Invoices []Entry `json:"invoices"`
}

// Key identifies a quarter index in durable storage.
func Key(year int, quarter string) string {
	return fmt.Sprintf("%d_%s", year, quarter)
}

// Repository is the durable store of quarter indexes. Read, check-duplicate
// and append for one (year, quarter) key form a single critical section
// relative to other writers of the same key.
type Repository interface {
	// Load returns the index for (year, quarter), empty if absent.
	Load(year int, quarter string) (*QuarterIndex, error)

	// FindDuplicate looks up an entry with the same tax id, invoice number
	// and normalized date in the (year, quarter) index. Returns nil when
	// the invoice is new.
	FindDuplicate(year int, quarter, taxID, invoiceDate, invoiceNumber string) (*Entry, error)

	// Append adds an entry to the (year, quarter) index and persists it
	// immediately.
	Append(year int, quarter string, entry Entry) error

	// Close releases the underlying store.
	Close() error
}
