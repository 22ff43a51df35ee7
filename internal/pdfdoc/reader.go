package pdfdoc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// lineTolerance is the vertical distance (points) within which two text runs
// are treated as belonging to the same line.
const lineTolerance = 2.0

// pdfDocument implements Document over a PDF file.
type pdfDocument struct {
	name  string
	file  *os.File
	pages []Page
}

// Open opens a PDF file as a Document.
func Open(path string) (Document, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	doc := &pdfDocument{
		name: filepath.Base(path),
		file: file,
	}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		doc.pages = append(doc.pages, &pdfPage{page: page})
	}
	return doc, nil
}

func (d *pdfDocument) Name() string  { return d.name }
func (d *pdfDocument) Pages() []Page { return d.pages }
func (d *pdfDocument) Close() error  { return d.file.Close() }

// pdfPage implements Page over one parsed PDF page.
type pdfPage struct {
	page pdf.Page
}

func (p *pdfPage) Text() (text string) {
	// The content-stream parser panics on malformed streams; a page we
	// cannot read extracts as empty, it does not kill the batch.
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	text, err := p.page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

func (p *pdfPage) TextInRect(r Rect) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
		}
	}()

	var runs []pdf.Text
	for _, t := range p.page.Content().Text {
		if r.Contains(t.X, t.Y) {
			runs = append(runs, t)
		}
	}
	return joinRuns(runs)
}

// joinRuns assembles raw text runs into lines: runs within lineTolerance of
// each other vertically share a line, lines are ordered top-down, runs within
// a line left-to-right. A space is inserted where the horizontal gap between
// consecutive runs exceeds the width of a thin space.
func joinRuns(runs []pdf.Text) string {
	if len(runs) == 0 {
		return ""
	}

	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Y != runs[j].Y {
			return runs[i].Y > runs[j].Y
		}
		return runs[i].X < runs[j].X
	})

	var lines [][]pdf.Text
	for _, run := range runs {
		if n := len(lines); n > 0 {
			last := lines[n-1]
			if last[0].Y-run.Y <= lineTolerance {
				lines[n-1] = append(last, run)
				continue
			}
		}
		lines = append(lines, []pdf.Text{run})
	}

	var b strings.Builder
	for li, line := range lines {
		if li > 0 {
			b.WriteByte('\n')
		}
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
		var prevEnd float64
		for ri, run := range line {
			threshold := run.FontSize * 0.2
			if threshold <= 0 {
				threshold = 1
			}
			if ri > 0 && run.X-prevEnd > threshold {
				b.WriteByte(' ')
			}
			b.WriteString(run.S)
			prevEnd = run.X + run.W
		}
	}
	return b.String()
}
