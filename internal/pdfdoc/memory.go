package pdfdoc

import "strings"

// MemRegion is a positioned piece of text on an in-memory page.
type MemRegion struct {
	X, Y float64
	Text string
}

// MemPage is an in-memory Page. Useful for synthetic documents and tests.
type MemPage struct {
	Content string
	Regions []MemRegion
}

func (p *MemPage) Text() string {
	if p.Content != "" {
		return p.Content
	}
	parts := make([]string, 0, len(p.Regions))
	for _, r := range p.Regions {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, "\n")
}

func (p *MemPage) TextInRect(rect Rect) string {
	var parts []string
	for _, r := range p.Regions {
		if rect.Contains(r.X, r.Y) {
			parts = append(parts, r.Text)
		}
	}
	return strings.Join(parts, " ")
}

// MemDocument is an in-memory Document.
type MemDocument struct {
	DocName  string
	PageList []*MemPage
}

func (d *MemDocument) Name() string { return d.DocName }

func (d *MemDocument) Pages() []Page {
	pages := make([]Page, len(d.PageList))
	for i, p := range d.PageList {
		pages[i] = p
	}
	return pages
}

func (d *MemDocument) Close() error { return nil }
