// Package batch runs the sequential document pipeline: identify, extract,
// deduplicate, archive, log. Documents are processed one at a time; no
// per-document failure aborts the run.
package batch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aitorevi/extract-pdf-data/internal/index"
	"github.com/aitorevi/extract-pdf-data/internal/invoice"
	"github.com/aitorevi/extract-pdf-data/internal/organize"
	"github.com/aitorevi/extract-pdf-data/internal/pdfdoc"
	"github.com/aitorevi/extract-pdf-data/internal/template"
)

// ErrStorage marks an index or file-move failure. The affected operation is
// recorded as failed and the batch continues.
var ErrStorage = errors.New("storage failure")

// DocumentOpener opens one source document.
type DocumentOpener func(path string) (pdfdoc.Document, error)

// TimeSource provides the current time.
type TimeSource interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// ProcessError is one accumulated failure, tied to its source file.
type ProcessError struct {
	File string
	Err  error
}

func (e ProcessError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e ProcessError) Unwrap() error { return e.Err }

// Summary is the end-of-run report. Documents counts files; Succeeded and
// Duplicates count invoices (one file can hold several).
type Summary struct {
	RunID      string
	Documents  int
	Succeeded  int
	Duplicates int
	Failed     int
	Errors     []ProcessError
	Rows       []map[string]string
}

// Service drives the batch. Collaborators are injected so tests can swap the
// opener and the clock.
type Service struct {
	store      *template.Store
	repo       index.Repository
	organizer  *organize.Organizer
	opener     DocumentOpener
	timeSource TimeSource
	reporting  invoice.Quarter
	runID      string
}

// NewService creates a batch service with the default PDF opener and clock.
func NewService(store *template.Store, repo index.Repository, organizer *organize.Organizer, reporting invoice.Quarter) *Service {
	return &Service{
		store:      store,
		repo:       repo,
		organizer:  organizer,
		opener:     pdfdoc.Open,
		timeSource: wallClock{},
		reporting:  reporting,
		runID:      uuid.NewString(),
	}
}

// NewServiceWithDeps creates a batch service with custom collaborators. An
// empty runID gets a fresh one.
func NewServiceWithDeps(store *template.Store, repo index.Repository, organizer *organize.Organizer, reporting invoice.Quarter, opener DocumentOpener, ts TimeSource, runID string) *Service {
	s := NewService(store, repo, organizer, reporting)
	if opener != nil {
		s.opener = opener
	}
	if ts != nil {
		s.timeSource = ts
	}
	if runID != "" {
		s.runID = runID
	}
	return s
}

// RunID returns the identifier stamped on this batch.
func (s *Service) RunID() string { return s.runID }

// Run processes every PDF in inputDir, fully finishing one document before
// the next. The batch always completes; failures end up in the summary.
func (s *Service) Run(inputDir string) (*Summary, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	summary := &Summary{RunID: s.runID}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		summary.Documents++
		s.processDocument(filepath.Join(inputDir, e.Name()), summary)
	}

	slog.Info("Batch finished",
		"run", s.runID,
		"documents", summary.Documents,
		"succeeded", summary.Succeeded,
		"duplicates", summary.Duplicates,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (s *Service) processDocument(path string, summary *Summary) {
	name := filepath.Base(path)
	slog.Info("Processing document", "file", name)

	doc, err := s.opener(path)
	if err != nil {
		s.fail(summary, name, fmt.Errorf("opening document: %w", err))
		s.archiveError(path, summary, false, 0)
		return
	}

	providerID, tpl, err := invoice.Identify(doc, s.store)
	if err != nil {
		s.fail(summary, name, err)
		likely, words := organize.ScanKeywords(doc)
		doc.Close()
		s.archiveError(path, summary, likely, words)
		return
	}

	extractor := invoice.NewExtractor(s.timeSource.Now)
	records, pageErrs := extractor.Extract(doc, providerID, tpl)
	for _, pe := range pageErrs {
		s.fail(summary, name, pe)
	}

	if len(records) == 0 {
		likely, words := organize.ScanKeywords(doc)
		doc.Close()
		s.archiveError(path, summary, likely, words)
		return
	}

	likely, words := organize.ScanKeywords(doc)
	doc.Close()

	s.settleRecords(records, summary, name)
	s.archiveAndIndex(path, records, summary, likely, words)
}

// settleRecords runs the duplicate check for every extracted record against
// the index of its real quarter.
func (s *Service) settleRecords(records []*invoice.Record, summary *Summary, name string) {
	for _, record := range records {
		real, ok := invoice.RealQuarter(record.InvoiceDate)
		if !ok {
			continue // no real quarter: never indexed, never a duplicate
		}

		existing, err := s.repo.FindDuplicate(real.Year, real.Label(),
			record.TaxID, invoice.NormalizeDate(record.InvoiceDate), record.InvoiceNumber)
		if err != nil {
			s.fail(summary, name, fmt.Errorf("%w: duplicate check: %v", ErrStorage, err))
			continue
		}
		if existing != nil {
			record.Duplicate = true
			record.DuplicateReason = fmt.Sprintf(
				"invoice with same tax id, number and date already indexed (archived at %s)",
				existing.ArchivedPath)
		}
	}
}

// archiveAndIndex moves the source file once according to the file-level
// outcome, then appends the index entries for newly accepted invoices. The
// index write happens after the move so entries carry the archived path and
// the archived file's content hash.
func (s *Service) archiveAndIndex(path string, records []*invoice.Record, summary *Summary, likely bool, words int) {
	name := filepath.Base(path)

	var firstNew, firstDup *invoice.Record
	for _, r := range records {
		if r.Duplicate {
			if firstDup == nil {
				firstDup = r
			}
			summary.Duplicates++
		} else {
			if firstNew == nil {
				firstNew = r
			}
			summary.Succeeded++
		}
		s.appendRow(summary, r)
	}

	var (
		dest string
		err  error
	)
	switch {
	case firstNew != nil:
		year, month := s.archiveYearMonth(firstNew.InvoiceDate)
		detail := fmt.Sprintf("Provider: %s, TaxID: %s", firstNew.ProviderName, firstNew.TaxID)
		dest, err = s.organizer.ArchiveSuccess(path, year, month, firstNew.ProviderName, detail)
	case firstDup != nil:
		year, label := s.archiveYearQuarter(firstDup.InvoiceDate)
		detail := fmt.Sprintf("TaxID: %s, Date: %s, InvoiceNumber: %s",
			firstDup.TaxID, firstDup.InvoiceDate, firstDup.InvoiceNumber)
		dest, err = s.organizer.ArchiveDuplicate(path, year, label, detail)
	default:
		s.archiveError(path, summary, likely, words)
		return
	}
	if err != nil {
		s.fail(summary, name, fmt.Errorf("%w: %v", ErrStorage, err))
		return
	}

	if firstNew == nil {
		return
	}

	hash, err := organize.ContentHash(dest)
	if err != nil {
		slog.Warn("Could not hash archived file", "file", name, "error", err)
	}

	for _, r := range records {
		if r.Duplicate {
			continue
		}
		real, ok := invoice.RealQuarter(r.InvoiceDate)
		if !ok {
			continue // excluded from indexing, archived all the same
		}

		entry := index.Entry{
			TaxID:          r.TaxID,
			InvoiceDate:    invoice.NormalizeDate(r.InvoiceDate),
			InvoiceNumber:  r.InvoiceNumber,
			SourceFilename: name,
			ArchivedPath:   dest,
			ProcessedAt:    r.ProcessedAt.Format("2006-01-02 15:04:05"),
			ContentHash:    hash,
		}
		if err := s.repo.Append(real.Year, real.Label(), entry); err != nil {
			s.fail(summary, name, fmt.Errorf("%w: index append: %v", ErrStorage, err))
		}
	}
}

// appendRow adds the record to the report rows when the reporting-quarter
// rule includes it.
func (s *Service) appendRow(summary *Summary, record *invoice.Record) {
	label, included := invoice.ReportQuarter(record.InvoiceDate, s.reporting)
	if !included {
		return
	}
	summary.Rows = append(summary.Rows, record.Row(label.Label(), fmt.Sprintf("%d", label.Year)))
}

func (s *Service) archiveError(path string, summary *Summary, likely bool, words int) {
	if _, err := s.organizer.ArchiveError(path, likely, words); err != nil {
		s.fail(summary, filepath.Base(path), fmt.Errorf("%w: %v", ErrStorage, err))
	}
}

func (s *Service) fail(summary *Summary, file string, err error) {
	summary.Failed++
	summary.Errors = append(summary.Errors, ProcessError{File: file, Err: err})
	slog.Warn("Document problem", "file", file, "error", err)
}

// archiveYearMonth picks the success archive folder parts from the invoice
// date, falling back to the reporting year and month 00 when the date never
// parsed.
func (s *Service) archiveYearMonth(date string) (string, string) {
	normalized := invoice.NormalizeDate(date)
	parts := strings.Split(normalized, "-")
	if len(parts) == 3 && len(parts[0]) == 4 {
		month := parts[1]
		if len(month) == 1 {
			month = "0" + month
		}
		return parts[0], month
	}
	return fmt.Sprintf("%d", s.reporting.Year), "00"
}

func (s *Service) archiveYearQuarter(date string) (string, string) {
	if real, ok := invoice.RealQuarter(date); ok {
		return fmt.Sprintf("%d", real.Year), real.Label()
	}
	return fmt.Sprintf("%d", s.reporting.Year), s.reporting.Label()
}
