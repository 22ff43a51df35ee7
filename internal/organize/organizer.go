// Package organize relocates processed source documents into success,
// duplicate and error archives, and records every move in the operations log.
package organize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aitorevi/extract-pdf-data/internal/pdfdoc"
)

// Outcome kinds recorded in the operations log.
const (
	OutcomeSuccess            = "SUCCESS"
	OutcomeDuplicate          = "DUPLICATE"
	OutcomeErrorLikelyInvoice = "ERROR_LIKELY_INVOICE"
	OutcomeErrorNotInvoice    = "ERROR_NOT_INVOICE"
)

// Error archive subfolders.
const (
	errorsDir        = "errors"
	looksLikeDir     = "looks_like_invoice"
	probablyNotDir   = "probably_not_invoice"
	duplicatesSubdir = "duplicates"
)

// Invoice vocabulary for the content scan of unidentified documents. Policy
// constants, tunable independently of the pipeline.
var invoiceKeywords = []string{
	"factura", "invoice", "bill", "receipt",
	"cif", "nif", "vat", "tax",
	"iva", "base imponible", "total", "subtotal",
	"fecha factura", "número factura", "numero factura",
	"proveedor", "cliente", "supplier", "customer",
	"importe", "amount", "precio", "price",
}

// keywordThreshold is the number of distinct vocabulary terms that makes an
// unidentified document "look like" an invoice.
const keywordThreshold = 3

// scanPageLimit caps how many pages the content scan reads.
const scanPageLimit = 5

// Organizer moves source documents into the archive tree rooted at
// archiveDir and logs every relocation.
type Organizer struct {
	archiveDir string
	log        *OpLog
}

// NewOrganizer creates an Organizer writing under archiveDir.
func NewOrganizer(archiveDir string, log *OpLog) (*Organizer, error) {
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &Organizer{archiveDir: archiveDir, log: log}, nil
}

// ArchiveSuccess files a successfully indexed invoice under
// <year>/<month>/<provider-slug>/ and returns the final path.
func (o *Organizer) ArchiveSuccess(srcPath string, year, month, providerName, detail string) (string, error) {
	dir := filepath.Join(o.archiveDir, year, month, ProviderSlug(providerName))
	return o.relocate(srcPath, dir, OutcomeSuccess, detail)
}

// ArchiveDuplicate files a duplicate under <year>/<quarter>/duplicates/.
func (o *Organizer) ArchiveDuplicate(srcPath string, year, quarterLabel, detail string) (string, error) {
	dir := filepath.Join(o.archiveDir, year, quarterLabel, duplicatesSubdir)
	return o.relocate(srcPath, dir, OutcomeDuplicate, detail)
}

// ArchiveError classifies a failed document by its keyword count and files it
// under errors/looks_like_invoice/ or errors/probably_not_invoice/.
func (o *Organizer) ArchiveError(srcPath string, likelyInvoice bool, keywordCount int) (string, error) {
	var (
		sub     string
		outcome string
		detail  string
	)
	if likelyInvoice {
		sub, outcome = looksLikeDir, OutcomeErrorLikelyInvoice
		detail = fmt.Sprintf("%d invoice keywords detected", keywordCount)
	} else {
		sub, outcome = probablyNotDir, OutcomeErrorNotInvoice
		detail = fmt.Sprintf("only %d invoice keywords found", keywordCount)
	}
	dir := filepath.Join(o.archiveDir, errorsDir, sub)
	return o.relocate(srcPath, dir, outcome, detail)
}

func (o *Organizer) relocate(srcPath, destDir, outcome, detail string) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", destDir, err)
	}

	dest := availablePath(filepath.Join(destDir, filepath.Base(srcPath)))
	if err := moveFile(srcPath, dest); err != nil {
		return "", fmt.Errorf("moving %s: %w", filepath.Base(srcPath), err)
	}

	if o.log != nil {
		if err := o.log.Append(outcome, filepath.Base(srcPath), filepath.Dir(srcPath), destDir, detail); err != nil {
			slog.Warn("Could not write operations log", "error", err)
		}
	}
	return dest, nil
}

// ScanKeywords counts distinct vocabulary terms in up to the first five
// pages and reports whether the document clears the invoice threshold.
func ScanKeywords(doc pdfdoc.Document) (bool, int) {
	found := make(map[string]bool)

	for i, page := range doc.Pages() {
		if i >= scanPageLimit {
			break
		}
		text := strings.ToLower(page.Text())
		if text == "" {
			continue
		}
		for _, kw := range invoiceKeywords {
			if strings.Contains(text, kw) {
				found[kw] = true
			}
		}
		if len(found) >= keywordThreshold {
			break
		}
	}
	return len(found) >= keywordThreshold, len(found)
}

// ProviderSlug turns a provider display name into a folder name: spaces to
// underscores, only word characters and dashes kept.
func ProviderSlug(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "Unknown"
	}
	return b.String()
}

// availablePath appends _2, _3, ... before the extension until the path does
// not exist. Existing archived files are never overwritten.
func availablePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// moveFile renames, falling back to copy+remove across filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// ContentHash returns the SHA-256 of the whole file, hex encoded.
func ContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
